package spacedrep

import "fmt"

// Config holds the forgetting-curve and error-recurrence constants.
type Config struct {
	// Memory strength is max(MinStrength, mastery*StrengthScale) days.
	StrengthScale float64 `yaml:"strength_scale"`
	MinStrength   float64 `yaml:"min_strength"`

	// Floor is the mastery decay never goes below.
	Floor float64 `yaml:"floor"`

	// RecurrenceMinDays is how long a missed question rests before it may
	// come back. Its time factor grows by 1 every RecurrenceRampDays up to
	// RecurrenceCap.
	RecurrenceMinDays  float64 `yaml:"recurrence_min_days"`
	RecurrenceRampDays float64 `yaml:"recurrence_ramp_days"`
	RecurrenceCap      float64 `yaml:"recurrence_cap"`
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		StrengthScale:      10,
		MinStrength:        1,
		Floor:              0.05,
		RecurrenceMinDays:  1,
		RecurrenceRampDays: 3,
		RecurrenceCap:      2,
	}
}

// Validate reports the first out-of-range constant.
func (c Config) Validate() error {
	switch {
	case c.MinStrength <= 0:
		return fmt.Errorf("min strength must be > 0, got %v", c.MinStrength)
	case c.StrengthScale < 0:
		return fmt.Errorf("strength scale must be >= 0, got %v", c.StrengthScale)
	case c.Floor < 0 || c.Floor >= 1:
		return fmt.Errorf("decay floor must be in [0, 1), got %v", c.Floor)
	case c.RecurrenceRampDays <= 0:
		return fmt.Errorf("recurrence ramp must be > 0 days, got %v", c.RecurrenceRampDays)
	case c.RecurrenceMinDays < 0 || c.RecurrenceCap <= 0:
		return fmt.Errorf("recurrence min days must be >= 0 and cap > 0")
	}
	return nil
}
