package session

import (
	"fmt"

	"github.com/abhisek/kgtutor/internal/diagnosis"
	"github.com/abhisek/kgtutor/internal/mastery"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/spacedrep"
)

// Config gathers the tuning constants of every component the tutor drives.
type Config struct {
	Mastery   mastery.Config   `yaml:"mastery"`
	Recommend recommend.Config `yaml:"recommend"`
	Diagnosis diagnosis.Config `yaml:"diagnosis"`
	Decay     spacedrep.Config `yaml:"decay"`
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		Mastery:   mastery.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Diagnosis: diagnosis.DefaultConfig(),
		Decay:     spacedrep.DefaultConfig(),
	}
}

// Validate checks every component config.
func (c Config) Validate() error {
	if err := c.Mastery.Validate(); err != nil {
		return fmt.Errorf("mastery: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.Diagnosis.Validate(); err != nil {
		return fmt.Errorf("diagnosis: %w", err)
	}
	if err := c.Decay.Validate(); err != nil {
		return fmt.Errorf("decay: %w", err)
	}
	return nil
}
