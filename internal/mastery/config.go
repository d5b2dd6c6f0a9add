package mastery

import "fmt"

// Config holds the update constants.
type Config struct {
	// Alpha is the share of the previous learner vector retained on each
	// update.
	Alpha float64 `yaml:"alpha"`

	// CorrectStrength and IncorrectStrength scale how far one answer pulls
	// the learner vector toward the embeddings of its knowledge points.
	CorrectStrength   float64 `yaml:"correct_strength"`
	IncorrectStrength float64 `yaml:"incorrect_strength"`

	// CorrectGain and IncorrectGain are the mastery increments per unit of
	// knowledge-point weight.
	CorrectGain   float64 `yaml:"correct_gain"`
	IncorrectGain float64 `yaml:"incorrect_gain"`

	// TargetAccuracy is the batch accuracy at which the personal difficulty
	// offset stays put. Above it the offset grows, below it shrinks.
	TargetAccuracy        float64 `yaml:"target_accuracy"`
	DifficultyOffsetRate  float64 `yaml:"difficulty_offset_rate"`
	DifficultyOffsetLimit float64 `yaml:"difficulty_offset_limit"`
}

// DefaultConfig returns the standard update constants.
func DefaultConfig() Config {
	return Config{
		Alpha:                 0.7,
		CorrectStrength:       1.0,
		IncorrectStrength:     0.3,
		CorrectGain:           0.3,
		IncorrectGain:         0.1,
		TargetAccuracy:        0.7,
		DifficultyOffsetRate:  0.05,
		DifficultyOffsetLimit: 0.2,
	}
}

// Validate reports the first out-of-range constant.
func (c Config) Validate() error {
	switch {
	case c.Alpha < 0 || c.Alpha > 1:
		return fmt.Errorf("alpha must be in [0, 1], got %v", c.Alpha)
	case c.CorrectStrength < 0 || c.IncorrectStrength < 0:
		return fmt.Errorf("learning strengths must be >= 0")
	case c.CorrectStrength+c.IncorrectStrength == 0:
		return fmt.Errorf("at least one learning strength must be positive")
	case c.CorrectGain < 0 || c.IncorrectGain < 0:
		return fmt.Errorf("mastery gains must be >= 0")
	case c.TargetAccuracy < 0 || c.TargetAccuracy > 1:
		return fmt.Errorf("target accuracy must be in [0, 1], got %v", c.TargetAccuracy)
	case c.DifficultyOffsetRate < 0 || c.DifficultyOffsetLimit < 0:
		return fmt.Errorf("difficulty offset rate and limit must be >= 0")
	}
	return nil
}
