// Package diagnosis reports a learner's weak knowledge points and turns
// them into remediation advice.
package diagnosis

import (
	"fmt"
	"sort"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
)

// Config holds the analyzer constants.
type Config struct {
	// Threshold is the default mastery below which a practiced point is weak.
	Threshold        float64 `yaml:"threshold"`
	MasteryThreshold float64 `yaml:"mastery_threshold"`

	// MessageLimit caps the per-point messages; the weakest come first.
	MessageLimit int `yaml:"message_limit"`

	// HighUrgencyBelow and MediumUrgencyBelow split accuracy into bands.
	HighUrgencyBelow   float64 `yaml:"high_urgency_below"`
	MediumUrgencyBelow float64 `yaml:"medium_urgency_below"`

	// ManyWeakPoints and SeveralWeakPoints pick the strategy advice.
	ManyWeakPoints    int `yaml:"many_weak_points"`
	SeveralWeakPoints int `yaml:"several_weak_points"`
}

// DefaultConfig returns the standard analyzer constants.
func DefaultConfig() Config {
	return Config{
		Threshold:          0.3,
		MasteryThreshold:   0.5,
		MessageLimit:       3,
		HighUrgencyBelow:   0.1,
		MediumUrgencyBelow: 0.2,
		ManyWeakPoints:     5,
		SeveralWeakPoints:  2,
	}
}

// Validate reports the first out-of-range constant.
func (c Config) Validate() error {
	switch {
	case c.Threshold <= 0 || c.Threshold > 1:
		return fmt.Errorf("weak threshold must be in (0, 1], got %v", c.Threshold)
	case c.MasteryThreshold < c.Threshold:
		return fmt.Errorf("mastery threshold %v is below weak threshold %v", c.MasteryThreshold, c.Threshold)
	case c.HighUrgencyBelow > c.MediumUrgencyBelow:
		return fmt.Errorf("urgency bands are inverted")
	case c.MessageLimit < 0:
		return fmt.Errorf("message limit must be >= 0")
	}
	return nil
}

// Urgency grades how pressing a weak point is.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLight  Urgency = "light"
)

// WeakPoint is a practiced knowledge point below the threshold.
type WeakPoint struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Mastery         float64 `json:"mastery"`
	TotalAttempts   int     `json:"total_attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
	// Accuracy is a percentage, 0 to 100.
	Accuracy float64 `json:"accuracy"`
	Urgency  Urgency `json:"urgency"`
}

// Report is the result of one analysis.
type Report struct {
	StudentID  string          `json:"student_id"`
	Threshold  float64         `json:"threshold"`
	WeakPoints []WeakPoint     `json:"weak_points"`
	Summary    learner.Summary `json:"summary"`
	Messages   []string        `json:"messages"`
}

// Analyzer finds weak points. It never modifies the state it reads.
type Analyzer struct {
	graph *knowledge.Graph
	cfg   Config
}

// NewAnalyzer creates an analyzer over g.
func NewAnalyzer(g *knowledge.Graph, cfg Config) *Analyzer {
	return &Analyzer{graph: g, cfg: cfg}
}

// Config returns the constants the analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze returns every practiced point with mastery below threshold, most
// urgent first: lowest accuracy, then most attempts. A threshold <= 0 uses
// the configured default. Points never practiced are not weak.
func (a *Analyzer) Analyze(st *learner.State, threshold float64) Report {
	if threshold <= 0 {
		threshold = a.cfg.Threshold
	}

	var weak []WeakPoint
	for i, m := range st.Mastery {
		total := st.PracticeCount[i]
		if m >= threshold || total < 1 {
			continue
		}
		correct := st.CorrectCount[i]
		frac := float64(correct) / float64(total)
		id := a.graph.ID(i)
		weak = append(weak, WeakPoint{
			ID:              id,
			Name:            a.graph.Name(id),
			Mastery:         m,
			TotalAttempts:   total,
			CorrectAttempts: correct,
			Accuracy:        frac * 100,
			Urgency:         a.urgency(frac),
		})
	}
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].Accuracy != weak[j].Accuracy {
			return weak[i].Accuracy < weak[j].Accuracy
		}
		return weak[i].TotalAttempts > weak[j].TotalAttempts
	})

	return Report{
		StudentID:  st.StudentID,
		Threshold:  threshold,
		WeakPoints: weak,
		Summary:    st.Summarize(a.cfg.MasteryThreshold, threshold),
		Messages:   a.messages(weak),
	}
}

func (a *Analyzer) urgency(accuracy float64) Urgency {
	switch {
	case accuracy < a.cfg.HighUrgencyBelow:
		return UrgencyHigh
	case accuracy < a.cfg.MediumUrgencyBelow:
		return UrgencyMedium
	default:
		return UrgencyLight
	}
}
