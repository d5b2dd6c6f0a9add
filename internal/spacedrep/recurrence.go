package spacedrep

import (
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/questionbank"
)

// Candidate is a missed question eligible to come back.
type Candidate struct {
	QuestionID      string    `json:"qid"`
	KnowledgePoints []string  `json:"knowledge_points"`
	MissedAt        time.Time `json:"missed_at"`
	Misses          int       `json:"misses"`
	DaysSinceError  float64   `json:"days_since_error"`
	// MinMasteryAtError is the lowest mastery among the question's points
	// when it was missed; CurrentMinMastery is the same figure now.
	MinMasteryAtError float64 `json:"min_mastery_at_error"`
	CurrentMinMastery float64 `json:"current_min_mastery"`
	Urgency           float64 `json:"urgency"`
	TimeFactor        float64 `json:"time_factor"`
	Priority          float64 `json:"priority"`
}

// Reason describes why the candidate is back.
func (c Candidate) Reason() string {
	return fmt.Sprintf("missed %.1f days ago, weakest point now at %.2f mastery", c.DaysSinceError, c.CurrentMinMastery)
}

// Candidates returns the missed questions due at now, highest priority
// first; ties go to the older miss, then the lower question id.
func (s *Scheduler) Candidates(st *learner.State, now time.Time) []Candidate {
	now = now.UTC()
	var out []Candidate
	for _, e := range st.Errors {
		days := float64(now.Sub(e.At)) / float64(day)
		if days < s.cfg.RecurrenceMinDays {
			continue
		}

		current, found := 1.0, false
		for _, kp := range e.KnowledgePoints {
			idx, ok := s.graph.Index(kp)
			if !ok {
				continue
			}
			current = min(current, st.Mastery[idx])
			found = true
		}
		if !found {
			current = e.MinMastery
		}

		urgency := 1 / (1 + current)
		tf := min(s.cfg.RecurrenceCap, days/s.cfg.RecurrenceRampDays)
		out = append(out, Candidate{
			QuestionID:        e.QuestionID,
			KnowledgePoints:   append([]string(nil), e.KnowledgePoints...),
			MissedAt:          e.At,
			Misses:            e.Misses,
			DaysSinceError:    days,
			MinMasteryAtError: e.MinMastery,
			CurrentMinMastery: current,
			Urgency:           urgency,
			TimeFactor:        tf,
			Priority:          urgency * tf,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].MissedAt.Equal(out[j].MissedAt) {
			return out[i].MissedAt.Before(out[j].MissedAt)
		}
		return questionbank.CompareIDs(out[i].QuestionID, out[j].QuestionID) < 0
	})
	return out
}
