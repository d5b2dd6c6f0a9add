// Package mastery folds graded answers into a learner's state: it moves the
// learner vector toward the knowledge points exercised, raises per-point
// mastery, and keeps the answer history and error log current.
package mastery

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/questionbank"
	"github.com/abhisek/kgtutor/internal/vecmath"
)

// Updater produces successive learner states. It holds only read-only data
// and may be shared across goroutines.
type Updater struct {
	graph *knowledge.Graph
	bank  *questionbank.Bank
	cfg   Config
	log   *logger.Logger
}

// NewUpdater creates an updater over g and b.
func NewUpdater(g *knowledge.Graph, b *questionbank.Bank, cfg Config, log *logger.Logger) *Updater {
	return &Updater{graph: g, bank: b, cfg: cfg, log: logger.OrNop(log)}
}

// Config returns the constants the updater was built with.
func (u *Updater) Config() Config { return u.cfg }

// StartSession creates the state of a new learner, seeded with an optional
// initial mastery map. Unknown knowledge points in initial are skipped and
// returned; values are clamped to [0,1].
func (u *Updater) StartSession(studentID string, initial map[string]float64, now time.Time) (*learner.State, []string, error) {
	if studentID == "" {
		return nil, nil, fmt.Errorf("start session: empty student id")
	}

	st := learner.New(studentID, u.graph, now)
	var skipped []string
	for id, m := range initial {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, nil, fmt.Errorf("start session %q: mastery of %s is not finite", studentID, id)
		}
		idx, ok := u.graph.Index(id)
		if !ok {
			skipped = append(skipped, id)
			continue
		}
		st.Mastery[idx] = clamp01(m)
	}
	slices.Sort(skipped)
	if len(skipped) > 0 {
		u.log.Warn("skipping unknown knowledge points in initial mastery", "student", studentID, "ids", skipped)
	}

	st.Vector = u.initialVector(st)
	st.PushVector(st.Vector)
	return st, skipped, nil
}

// initialVector is the mastery-weighted mean of embeddings, or the mean of
// the foundational points when no mastery is known.
func (u *Updater) initialVector(st *learner.State) vecmath.Vector {
	v := vecmath.Zeros(u.graph.Dim())
	var total float64
	for i, m := range st.Mastery {
		if m > 0 {
			v.AddScaled(u.graph.EmbeddingAt(i), m)
			total += m
		}
	}
	if total > 0 {
		v.Scale(1 / total)
		if n, ok := v.Normalized(); ok {
			return n
		}
	}

	v = vecmath.Zeros(u.graph.Dim())
	foundational := u.graph.Foundational()
	for _, id := range foundational {
		idx, _ := u.graph.Index(id)
		v.AddScaled(u.graph.EmbeddingAt(idx), 1/float64(len(foundational)))
	}
	if n, ok := v.Normalized(); ok {
		return n
	}
	// The foundational embeddings cancel out; fall back to the first one.
	idx := 0
	if len(foundational) > 0 {
		idx, _ = u.graph.Index(foundational[0])
	}
	n, _ := u.graph.EmbeddingAt(idx).Normalized()
	return n
}

// Apply grades answers against the bank and returns the next state. The
// input state is not modified. Each answer is independent: malformed
// answers and unknown questions are reported in their Result and skipped.
func (u *Updater) Apply(st *learner.State, answers []Answer) (*learner.State, []Result) {
	return u.ApplyAt(st, answers, time.Now())
}

// ApplyAt is Apply with an explicit clock.
func (u *Updater) ApplyAt(st *learner.State, answers []Answer, now time.Time) (*learner.State, []Result) {
	next := st.Clone()
	if !next.Started() {
		next.Vector = u.initialVector(next)
	}

	at := now.UTC()
	if n := len(next.History); n > 0 && at.Before(next.History[n-1].At) {
		at = next.History[n-1].At
	}

	batch := vecmath.Zeros(u.graph.Dim())
	results := make([]Result, len(answers))
	graded, correct := 0, 0

	for i, raw := range answers {
		res, q, ok := u.grade(i, raw)
		if !ok {
			results[i] = res
			continue
		}

		minBefore := 1.0
		for _, kp := range q.KnowledgePointIDs() {
			idx, _ := u.graph.Index(kp)
			minBefore = min(minBefore, next.Mastery[idx])
		}

		res.Review = next.ErrorIndex(q.ID) >= 0
		strength, gain := u.cfg.IncorrectStrength, u.cfg.IncorrectGain
		if res.Correct {
			strength, gain = u.cfg.CorrectStrength, u.cfg.CorrectGain
		}

		kps := q.KnowledgePointIDs()
		for _, kp := range kps {
			idx, _ := u.graph.Index(kp)
			w := q.KnowledgePoints[kp]
			batch.AddScaled(u.graph.EmbeddingAt(idx), strength*w)
			next.Mastery[idx] = clamp01(next.Mastery[idx] + gain*w)
			next.PracticeCount[idx]++
			if res.Correct {
				next.CorrectCount[idx]++
			}
			next.LastPractice[idx] = at
		}

		next.History = append(next.History, learner.Record{
			ID:              ulid.MustNewDefault(at).String(),
			QuestionID:      q.ID,
			Chosen:          res.Chosen,
			Correct:         res.Correct,
			KnowledgePoints: kps,
			At:              at,
			Review:          res.Review,
		})
		u.recordError(next, q, kps, res.Correct, minBefore, at)

		graded++
		if res.Correct {
			correct++
		}
		results[i] = res
	}

	if graded > 0 {
		if vb, ok := batch.Normalized(); ok {
			if v, ok := vecmath.Blend(next.Vector, vb, u.cfg.Alpha).Normalized(); ok {
				next.Vector = v
			} else {
				next.Vector = vb
			}
		}
		next.PushVector(next.Vector)

		acc := float64(correct) / float64(graded)
		offset := next.DifficultyOffset + u.cfg.DifficultyOffsetRate*(acc-u.cfg.TargetAccuracy)
		next.DifficultyOffset = max(-u.cfg.DifficultyOffsetLimit, min(u.cfg.DifficultyOffsetLimit, offset))
	}

	next.BatchCount++
	next.UpdatedAt = at

	u.log.Debug("applied answers",
		"student", next.StudentID,
		"batch", next.BatchCount,
		"answers", len(answers),
		"graded", graded,
		"correct", correct,
	)
	return next, results
}

// recordError keeps the error log in step with an answer: a miss adds or
// refreshes the entry, a correct answer clears it.
func (u *Updater) recordError(st *learner.State, q questionbank.Question, kps []string, correct bool, minMastery float64, at time.Time) {
	i := st.ErrorIndex(q.ID)
	if correct {
		if i >= 0 {
			st.Errors = slices.Delete(st.Errors, i, i+1)
		}
		return
	}
	if i >= 0 {
		e := &st.Errors[i]
		e.At = at
		e.MinMastery = minMastery
		e.Misses++
		return
	}
	st.Errors = append(st.Errors, learner.ErrorEntry{
		QuestionID:      q.ID,
		KnowledgePoints: slices.Clone(kps),
		At:              at,
		MinMastery:      minMastery,
		Misses:          1,
	})
}

// Check grades answers without reading or writing any learner state.
func (u *Updater) Check(answers []Answer) CheckReport {
	report := CheckReport{Total: len(answers), Results: make([]Result, len(answers))}
	for i, raw := range answers {
		res, _, ok := u.grade(i, raw)
		report.Results[i] = res
		if !ok {
			continue
		}
		report.Graded++
		if res.Correct {
			report.Correct++
		}
	}
	if report.Graded > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Graded)
	}
	return report
}

// grade validates one answer and compares it with the question's correct
// option. ok is false when the answer was rejected.
func (u *Updater) grade(i int, raw Answer) (Result, questionbank.Question, bool) {
	a, err := ValidateAnswer(i, raw)
	if err != nil {
		u.log.Warn("rejecting malformed answer", "index", i, "error", err)
		return Result{QuestionID: a.QuestionID, Chosen: a.ChosenOption, Status: StatusInvalidAnswer, Err: err}, questionbank.Question{}, false
	}

	q, err := u.bank.Get(a.QuestionID)
	if err != nil {
		u.log.Warn("skipping answer to unknown question", "index", i, "qid", a.QuestionID)
		return Result{QuestionID: a.QuestionID, Chosen: a.ChosenOption, Status: StatusUnknownQuestion, Err: err}, questionbank.Question{}, false
	}

	chosen, ok := q.ResolveOption(a.ChosenOption)
	if !ok {
		err := &InvalidAnswerFormatError{Index: i, QuestionID: q.ID, Reason: fmt.Sprintf("chosen option %q matches no option", a.ChosenOption)}
		u.log.Warn("rejecting malformed answer", "index", i, "error", err)
		return Result{QuestionID: q.ID, Chosen: a.ChosenOption, Status: StatusInvalidAnswer, Err: err}, questionbank.Question{}, false
	}

	kps := make(map[string]float64, len(q.KnowledgePoints))
	for k, w := range q.KnowledgePoints {
		kps[k] = w
	}
	return Result{
		QuestionID:      q.ID,
		Chosen:          chosen,
		Correct:         chosen == q.CorrectOption,
		CorrectOption:   q.CorrectOption,
		KnowledgePoints: kps,
		Status:          StatusGraded,
	}, q, true
}

// Errors returns the per-item errors of results, joined, or nil.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
