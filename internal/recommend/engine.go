// Package recommend picks the next practice questions for a learner by
// reasoning over knowledge-point embeddings and ranking candidates on
// coverage, relevance, difficulty fit and topic diversity.
package recommend

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/questionbank"
	"github.com/abhisek/kgtutor/internal/vecmath"
)

// Scores are the per-dimension scores of one question.
type Scores struct {
	Coverage   float64 `json:"coverage"`
	Relevance  float64 `json:"relevance"`
	Difficulty float64 `json:"difficulty"`
	Diversity  float64 `json:"diversity"`
}

// Recommendation is one question of a batch.
type Recommendation struct {
	questionbank.Payload
	Score        float64 `json:"score"`
	Scores       Scores  `json:"scores"`
	IsReview     bool    `json:"is_review,omitempty"`
	ReviewReason string  `json:"review_reason,omitempty"`
}

// Batch is the result of one recommendation call.
type Batch struct {
	Items            []Recommendation `json:"items"`
	Reason           string           `json:"reason"`
	Profile          Profile          `json:"profile,omitempty"`
	Weights          Weights          `json:"weights"`
	ColdStart        bool             `json:"cold_start"`
	TargetDifficulty float64          `json:"target_difficulty,omitempty"`
	// Targets are the knowledge points the target vector was moved toward.
	Targets []string `json:"targets,omitempty"`
}

// ReviewItem is a previously missed question offered for re-practice,
// in priority order.
type ReviewItem struct {
	QuestionID string
	Reason     string
}

// Engine ranks questions. It holds only read-only data and may be shared
// across goroutines.
type Engine struct {
	graph *knowledge.Graph
	bank  *questionbank.Bank
	cfg   Config
	log   *logger.Logger
}

// NewEngine creates an engine over g and b.
func NewEngine(g *knowledge.Graph, b *questionbank.Bank, cfg Config, log *logger.Logger) *Engine {
	return &Engine{graph: g, bank: b, cfg: cfg, log: logger.OrNop(log)}
}

// Config returns the constants the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// candidate is a question under consideration with its static scores.
type candidate struct {
	q         questionbank.Question
	kps       []string
	coverage  float64
	relevance float64
	fit       float64
}

// Recommend returns up to n questions for st; n <= 0 uses the configured
// batch size. Up to ReviewSlots of reviews are interleaved with the main
// selection. The state is not modified.
//
// When nothing can be recommended the returned batch is empty, carries the
// reason, and the error is a *NoQuestionsAvailableError.
func (e *Engine) Recommend(st *learner.State, n int, reviews []ReviewItem) (*Batch, error) {
	if n <= 0 {
		n = e.cfg.BatchSize
	}
	if st.BatchCount == 0 || !st.Started() {
		return e.coldStart(n)
	}

	target, targets, reason := e.targetVector(st)
	points, poolNote := e.candidatePoints(st, target)
	reason += poolNote

	profile := e.profile(st)
	weights := e.cfg.WeightsFor(profile)
	targetDiff := e.targetDifficulty(st)

	batch := &Batch{
		Profile:          profile,
		Weights:          weights,
		TargetDifficulty: targetDiff,
		Targets:          targets,
	}

	reviewPicks := e.pickReviews(reviews, min(e.cfg.ReviewSlots, n/2), nil)

	pool, readmit := e.pool(st, points, reviewPicks)
	reason += readmit

	cands, maxCov := e.score(st, pool, target, targetDiff)
	selected := make(map[string]bool)
	for _, q := range reviewPicks {
		for _, kp := range q.KnowledgePointIDs() {
			selected[kp] = true
		}
	}
	main := e.greedy(cands, n-len(reviewPicks), weights, selected)

	// Fill from reviews when the main pool ran short.
	if len(main)+len(reviewPicks) < n {
		inMain := make(map[string]bool, len(main))
		for _, r := range main {
			inMain[r.ID] = true
		}
		reviewPicks = e.pickReviews(reviews, n-len(main), inMain)
	}

	reviewReasons := make(map[string]string, len(reviews))
	for _, r := range reviews {
		if _, ok := reviewReasons[r.QuestionID]; !ok {
			reviewReasons[r.QuestionID] = r.Reason
		}
	}
	var reviewRecs []Recommendation
	for _, q := range reviewPicks {
		c := e.scoreOne(st, q, target, targetDiff, maxCov)
		rec := e.recommendation(c, weights, 1)
		rec.IsReview = true
		rec.ReviewReason = reviewReasons[q.ID]
		reviewRecs = append(reviewRecs, rec)
	}

	batch.Items = interleave(main, reviewRecs, n)
	batch.Reason = fmt.Sprintf("%s; %s profile", reason, profile)

	if len(batch.Items) == 0 {
		err := &NoQuestionsAvailableError{Reason: "no question in the bank covers any outstanding knowledge point"}
		batch.Reason = err.Reason
		e.log.Warn("recommendation pool empty, check question bank coverage",
			"student", st.StudentID, "points", len(points))
		return batch, err
	}
	return batch, nil
}

// coldStart serves one question per foundational knowledge point, the one
// closest to the cold-start difficulty, cycling until n are picked.
func (e *Engine) coldStart(n int) (*Batch, error) {
	foundational := e.graph.Foundational()
	batch := &Batch{
		ColdStart: true,
		Weights:   e.cfg.NewWeights,
		Reason:    fmt.Sprintf("cold start over foundational points %s", strings.Join(foundational, ", ")),
	}

	used := make(map[string]bool)
	for len(batch.Items) < n {
		progressed := false
		for _, id := range foundational {
			if len(batch.Items) == n {
				break
			}
			q, ok := e.closestUnused([]string{id}, e.cfg.ColdStartDifficulty, used)
			if !ok {
				continue
			}
			used[q.ID] = true
			progressed = true
			fit := gaussian(q.Difficulty, e.cfg.ColdStartDifficulty, e.cfg.DifficultySigma)
			batch.Items = append(batch.Items, Recommendation{
				Payload: q.Payload(),
				Score:   fit,
				Scores:  Scores{Difficulty: fit},
			})
		}
		if !progressed {
			break
		}
	}

	if len(batch.Items) == 0 {
		err := &NoQuestionsAvailableError{Reason: "no question covers a foundational knowledge point"}
		e.log.Warn("cold start pool empty, check question bank coverage", "foundational", foundational)
		return batch, err
	}
	return batch, nil
}

func (e *Engine) closestUnused(ids []string, difficulty float64, used map[string]bool) (questionbank.Question, bool) {
	var (
		best  questionbank.Question
		found bool
	)
	for _, q := range e.bank.CoveringAny(ids) {
		if used[q.ID] {
			continue
		}
		// CoveringAny is in id order, so strict comparison keeps the lower id.
		if !found || math.Abs(q.Difficulty-difficulty) < math.Abs(best.Difficulty-difficulty) {
			best, found = q, true
		}
	}
	return best, found
}

// targetVector moves the learner vector toward the unmastered successors of
// mastered prerequisites. Without any such successor the learner vector is
// used unchanged.
func (e *Engine) targetVector(st *learner.State) (vecmath.Vector, []string, string) {
	var targets []string
	seen := make(map[string]bool)
	for i, m := range st.Mastery {
		if m < e.cfg.MasteryThreshold {
			continue
		}
		for _, succ := range e.graph.Successors(e.graph.ID(i), knowledge.PrerequisiteFor) {
			idx, _ := e.graph.Index(succ)
			if st.Mastery[idx] >= e.cfg.MasteryThreshold || seen[succ] {
				continue
			}
			seen[succ] = true
			targets = append(targets, succ)
		}
	}
	slices.SortFunc(targets, func(a, b string) int {
		ia, _ := e.graph.Index(a)
		ib, _ := e.graph.Index(b)
		return ia - ib
	})

	if len(targets) == 0 {
		return st.Vector.Clone(), nil, "similarity search from learner vector"
	}

	embs := make([]vecmath.Vector, len(targets))
	for i, id := range targets {
		idx, _ := e.graph.Index(id)
		embs[i] = e.graph.EmbeddingAt(idx)
	}
	v := st.Vector.Clone()
	v.AddScaled(vecmath.Mean(embs...), 1)
	if t, ok := v.Normalized(); ok {
		return t, targets, fmt.Sprintf("vector reasoning toward %s", strings.Join(targets, ", "))
	}
	return st.Vector.Clone(), nil, "similarity search from learner vector"
}

// candidatePoints returns the unmastered points similar to target, in index
// order. The similarity floor is dropped when it filters out everything,
// and all points are used once everything is mastered.
func (e *Engine) candidatePoints(st *learner.State, target vecmath.Vector) ([]string, string) {
	var unmastered, similar []string
	for i, m := range st.Mastery {
		if m >= e.cfg.MasteryThreshold {
			continue
		}
		id := e.graph.ID(i)
		unmastered = append(unmastered, id)
		if vecmath.Cosine(e.graph.EmbeddingAt(i), target) > e.cfg.SimilarityFloor {
			similar = append(similar, id)
		}
	}
	switch {
	case len(similar) > 0:
		return similar, ""
	case len(unmastered) > 0:
		return unmastered, "; no point above similarity floor, using all unmastered points"
	default:
		return e.graph.IDs(), "; every point mastered, reviewing all points"
	}
}

// pool maps points to questions, leaving out questions already answered
// correctly and those held back for review. If that leaves nothing the
// answered questions are let back in, and after them the missed ones that
// are not yet due for review. Questions picked as reviews stay out.
func (e *Engine) pool(st *learner.State, points []string, reviews []questionbank.Question) ([]questionbank.Question, string) {
	covering := e.bank.CoveringAny(points)
	picked := make(map[string]bool, len(reviews))
	for _, q := range reviews {
		picked[q.ID] = true
	}

	var fresh, answered, missed []questionbank.Question
	for _, q := range covering {
		switch {
		case picked[q.ID]:
		case st.ErrorIndex(q.ID) >= 0:
			missed = append(missed, q)
		default:
			answered = append(answered, q)
			if _, correct := st.Answered(q.ID); !correct {
				fresh = append(fresh, q)
			}
		}
	}
	switch {
	case len(fresh) > 0:
		return fresh, ""
	case len(answered) > 0:
		return answered, "; readmitted previously answered questions"
	case len(missed) > 0:
		return missed, "; readmitted missed questions ahead of review"
	}
	return nil, ""
}

// pickReviews returns the first slots reviewable questions not in exclude.
func (e *Engine) pickReviews(reviews []ReviewItem, slots int, exclude map[string]bool) []questionbank.Question {
	var out []questionbank.Question
	seen := make(map[string]bool)
	for _, r := range reviews {
		if len(out) >= slots {
			break
		}
		if seen[r.QuestionID] || exclude[r.QuestionID] {
			continue
		}
		q, err := e.bank.Get(r.QuestionID)
		if err != nil {
			e.log.Warn("dropping review of unknown question", "qid", r.QuestionID)
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}

// profile picks the weight table for st.
func (e *Engine) profile(st *learner.State) Profile {
	if len(st.History) < e.cfg.NewLearnerAnswers {
		return ProfileNew
	}
	acc, _ := st.RecentAccuracy(e.cfg.RecentWindow)
	avg := st.AverageMastery()
	switch {
	case acc > e.cfg.StrongAccuracy && avg > e.cfg.StrongMastery:
		return ProfileStrong
	case acc < e.cfg.StrugglingAccuracy || avg < e.cfg.StrugglingMastery:
		return ProfileStruggling
	default:
		return ProfileDefault
	}
}

// targetDifficulty maps average mastery linearly into the configured range
// and shifts it by the learner's personal offset.
func (e *Engine) targetDifficulty(st *learner.State) float64 {
	lo, hi := e.cfg.TargetDifficultyMin, e.cfg.TargetDifficultyMax
	t := lo + (hi-lo)*st.AverageMastery() + st.DifficultyOffset
	return max(0, min(1, t))
}

// score computes the static scores of every pool question and returns them
// with the largest raw coverage, which the coverage scores are normalized by.
func (e *Engine) score(st *learner.State, pool []questionbank.Question, target vecmath.Vector, targetDiff float64) ([]candidate, float64) {
	cands := make([]candidate, len(pool))
	maxCov := 0.0
	for i, q := range pool {
		cands[i] = e.scoreOne(st, q, target, targetDiff, 0)
		maxCov = max(maxCov, cands[i].coverage)
	}
	for i := range cands {
		if maxCov > 0 {
			cands[i].coverage /= maxCov
		}
	}
	return cands, maxCov
}

// scoreOne computes the static scores of q. Coverage is the number of
// unmastered points q touches, divided by maxCov when maxCov is positive.
func (e *Engine) scoreOne(st *learner.State, q questionbank.Question, target vecmath.Vector, targetDiff, maxCov float64) candidate {
	kps := q.KnowledgePointIDs()
	agg := vecmath.Zeros(e.graph.Dim())
	var total, unmastered float64
	for _, kp := range kps {
		idx, _ := e.graph.Index(kp)
		w := q.KnowledgePoints[kp]
		agg.AddScaled(e.graph.EmbeddingAt(idx), w)
		total += w
		if st.Mastery[idx] < e.cfg.MasteryThreshold {
			unmastered++
		}
	}
	if total > 0 {
		agg.Scale(1 / total)
	}
	cov := unmastered
	if maxCov > 0 {
		cov = min(1, unmastered/maxCov)
	}
	return candidate{
		q:         q,
		kps:       kps,
		coverage:  cov,
		relevance: vecmath.Cosine(agg, target),
		fit:       gaussian(q.Difficulty, targetDiff, e.cfg.DifficultySigma),
	}
}

// greedy picks up to n candidates, recomputing diversity against the
// knowledge points already selected after every pick. Ties go to the lower
// question id.
func (e *Engine) greedy(cands []candidate, n int, w Weights, selected map[string]bool) []Recommendation {
	var out []Recommendation
	taken := make([]bool, len(cands))
	for len(out) < n {
		best := -1
		var bestRec Recommendation
		for i, c := range cands {
			if taken[i] {
				continue
			}
			rec := e.recommendation(c, w, diversity(c.kps, selected))
			if best < 0 || rec.Score > bestRec.Score ||
				(rec.Score == bestRec.Score && questionbank.CompareIDs(c.q.ID, cands[best].q.ID) < 0) {
				best, bestRec = i, rec
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		for _, kp := range cands[best].kps {
			selected[kp] = true
		}
		out = append(out, bestRec)
	}
	return out
}

func (e *Engine) recommendation(c candidate, w Weights, div float64) Recommendation {
	s := Scores{Coverage: c.coverage, Relevance: c.relevance, Difficulty: c.fit, Diversity: div}
	return Recommendation{
		Payload: c.q.Payload(),
		Score:   w.Coverage*s.Coverage + w.Relevance*s.Relevance + w.Difficulty*s.Difficulty + w.Diversity*s.Diversity,
		Scores:  s,
	}
}

// diversity is the share of kps not yet covered by selected questions.
func diversity(kps []string, selected map[string]bool) float64 {
	if len(kps) == 0 {
		return 0
	}
	overlap := 0
	for _, kp := range kps {
		if selected[kp] {
			overlap++
		}
	}
	return 1 - float64(overlap)/float64(len(kps))
}

func gaussian(x, mean, sigma float64) float64 {
	d := x - mean
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// interleave places reviews at every second position starting at index 1,
// then appends whatever is left, up to n items.
func interleave(main, reviews []Recommendation, n int) []Recommendation {
	out := make([]Recommendation, 0, min(n, len(main)+len(reviews)))
	i, j := 0, 0
	for len(out) < n && (i < len(main) || j < len(reviews)) {
		takeReview := j < len(reviews) && (len(out)%2 == 1 || i >= len(main))
		if takeReview {
			out = append(out, reviews[j])
			j++
		} else {
			out = append(out, main[i])
			i++
		}
	}
	return out
}
