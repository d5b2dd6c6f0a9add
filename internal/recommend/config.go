package recommend

import "fmt"

// Weights combine the four scoring dimensions.
type Weights struct {
	Coverage   float64 `yaml:"coverage" json:"coverage"`
	Relevance  float64 `yaml:"relevance" json:"relevance"`
	Difficulty float64 `yaml:"difficulty" json:"difficulty"`
	Diversity  float64 `yaml:"diversity" json:"diversity"`
}

func (w Weights) validate(name string) error {
	if w.Coverage < 0 || w.Relevance < 0 || w.Difficulty < 0 || w.Diversity < 0 {
		return fmt.Errorf("%s weights must be >= 0", name)
	}
	if w.Coverage+w.Relevance+w.Difficulty+w.Diversity == 0 {
		return fmt.Errorf("%s weights are all zero", name)
	}
	return nil
}

// Profile names the learner situation that picked the weights.
type Profile string

const (
	ProfileNew        Profile = "new"
	ProfileStrong     Profile = "strong"
	ProfileStruggling Profile = "struggling"
	ProfileDefault    Profile = "default"
)

// Config holds the engine constants.
type Config struct {
	BatchSize        int     `yaml:"batch_size"`
	MasteryThreshold float64 `yaml:"mastery_threshold"`
	SimilarityFloor  float64 `yaml:"similarity_floor"`

	// NewLearnerAnswers is the answer count below which the new-learner
	// weights apply. RecentWindow bounds the answers used for accuracy.
	NewLearnerAnswers int `yaml:"new_learner_answers"`
	RecentWindow      int `yaml:"recent_window"`

	StrongAccuracy     float64 `yaml:"strong_accuracy"`
	StrongMastery      float64 `yaml:"strong_mastery"`
	StrugglingAccuracy float64 `yaml:"struggling_accuracy"`
	StrugglingMastery  float64 `yaml:"struggling_mastery"`

	NewWeights        Weights `yaml:"new_weights"`
	StrongWeights     Weights `yaml:"strong_weights"`
	StrugglingWeights Weights `yaml:"struggling_weights"`
	DefaultWeights    Weights `yaml:"default_weights"`

	TargetDifficultyMin float64 `yaml:"target_difficulty_min"`
	TargetDifficultyMax float64 `yaml:"target_difficulty_max"`
	DifficultySigma     float64 `yaml:"difficulty_sigma"`
	ColdStartDifficulty float64 `yaml:"cold_start_difficulty"`

	// ReviewSlots is the most error-recurrence items mixed into one batch.
	// At most half of a batch is ever given to reviews.
	ReviewSlots int `yaml:"review_slots"`
}

// DefaultConfig returns the standard engine constants.
func DefaultConfig() Config {
	return Config{
		BatchSize:          3,
		MasteryThreshold:   0.5,
		SimilarityFloor:    0,
		NewLearnerAnswers:  5,
		RecentWindow:       20,
		StrongAccuracy:     0.8,
		StrongMastery:      0.4,
		StrugglingAccuracy: 0.5,
		StrugglingMastery:  0.2,
		NewWeights:         Weights{Coverage: 0.5, Relevance: 0.3, Difficulty: 0.15, Diversity: 0.05},
		StrongWeights:      Weights{Coverage: 0.3, Relevance: 0.25, Difficulty: 0.3, Diversity: 0.15},
		StrugglingWeights:  Weights{Coverage: 0.4, Relevance: 0.4, Difficulty: 0.15, Diversity: 0.05},
		DefaultWeights:     Weights{Coverage: 0.4, Relevance: 0.3, Difficulty: 0.2, Diversity: 0.1},

		TargetDifficultyMin: 0.4,
		TargetDifficultyMax: 0.8,
		DifficultySigma:     0.15,
		ColdStartDifficulty: 0.5,
		ReviewSlots:         1,
	}
}

// Validate reports the first out-of-range constant.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", c.BatchSize)
	}
	if c.MasteryThreshold <= 0 || c.MasteryThreshold > 1 {
		return fmt.Errorf("mastery threshold must be in (0, 1], got %v", c.MasteryThreshold)
	}
	if c.DifficultySigma <= 0 {
		return fmt.Errorf("difficulty sigma must be > 0, got %v", c.DifficultySigma)
	}
	if c.TargetDifficultyMin > c.TargetDifficultyMax {
		return fmt.Errorf("target difficulty range is inverted: [%v, %v]", c.TargetDifficultyMin, c.TargetDifficultyMax)
	}
	if c.ReviewSlots < 0 || c.NewLearnerAnswers < 0 || c.RecentWindow < 0 {
		return fmt.Errorf("review slots, new learner answers and recent window must be >= 0")
	}
	for _, p := range []Profile{ProfileNew, ProfileStrong, ProfileStruggling, ProfileDefault} {
		if err := c.WeightsFor(p).validate(string(p)); err != nil {
			return err
		}
	}
	return nil
}

// WeightsFor returns the weights of profile p.
func (c Config) WeightsFor(p Profile) Weights {
	switch p {
	case ProfileNew:
		return c.NewWeights
	case ProfileStrong:
		return c.StrongWeights
	case ProfileStruggling:
		return c.StrugglingWeights
	default:
		return c.DefaultWeights
	}
}
