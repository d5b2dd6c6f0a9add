package diagnosis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/dataset"
	"github.com/abhisek/kgtutor/internal/learner"
)

func newState(t *testing.T) (*Analyzer, *learner.State) {
	t.Helper()
	ds, err := dataset.Default()
	require.NoError(t, err)
	return NewAnalyzer(ds.Graph, DefaultConfig()), learner.New("s1", ds.Graph, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func set(t *testing.T, st *learner.State, id string, m float64, total, correct int) {
	t.Helper()
	idx, ok := st.Graph().Index(id)
	require.True(t, ok, id)
	st.Mastery[idx] = m
	st.PracticeCount[idx] = total
	st.CorrectCount[idx] = correct
}

func TestAnalyze_WeakPointAccuracy(t *testing.T) {
	a, st := newState(t)
	set(t, st, "K1", 0.18, 5, 1)
	set(t, st, "K2", 0.2, 2, 1)
	set(t, st, "K3", 0.9, 4, 4)

	r := a.Analyze(st, 0.3)
	require.Len(t, r.WeakPoints, 2)
	k1 := r.WeakPoints[0]
	assert.Equal(t, "K1", k1.ID)
	assert.Equal(t, "Set operations", k1.Name)
	assert.InDelta(t, 20.0, k1.Accuracy, 1e-9)
	assert.Equal(t, 5, k1.TotalAttempts)
	assert.Equal(t, 1, k1.CorrectAttempts)
	assert.Equal(t, "K2", r.WeakPoints[1].ID)
	assert.InDelta(t, 50.0, r.WeakPoints[1].Accuracy, 1e-9)
}

func TestAnalyze_ExcludesUnpracticed(t *testing.T) {
	a, st := newState(t)
	r := a.Analyze(st, 0.3)
	assert.Empty(t, r.WeakPoints)
	assert.Equal(t, 12, r.Summary.Unknown)
	require.Len(t, r.Messages, 1)
	assert.Contains(t, r.Messages[0], "No weak knowledge points")
}

func TestAnalyze_TiesPreferMoreAttempts(t *testing.T) {
	a, st := newState(t)
	set(t, st, "K4", 0.1, 2, 0)
	set(t, st, "K5", 0.1, 6, 0)
	set(t, st, "K6", 0.25, 4, 1)

	r := a.Analyze(st, 0)
	require.Len(t, r.WeakPoints, 3)
	assert.Equal(t, []string{"K5", "K4", "K6"}, []string{r.WeakPoints[0].ID, r.WeakPoints[1].ID, r.WeakPoints[2].ID})
	assert.Equal(t, a.Config().Threshold, r.Threshold)
}

func TestAnalyze_SummaryCounts(t *testing.T) {
	a, st := newState(t)
	set(t, st, "K1", 0.6, 3, 3)
	set(t, st, "K2", 0.4, 2, 1)
	set(t, st, "K3", 0.1, 3, 0)

	s := a.Analyze(st, 0.3).Summary
	assert.Equal(t, 1, s.Mastered)
	assert.Equal(t, 1, s.Moderate)
	assert.Equal(t, 1, s.Weak)
	assert.Equal(t, 9, s.Unknown)
}

func TestAnalyze_SeededPointsAreNotWeak(t *testing.T) {
	a, st := newState(t)
	set(t, st, "K1", 0.2, 0, 0)
	set(t, st, "K2", 0.1, 2, 0)

	r := a.Analyze(st, 0.3)
	require.Len(t, r.WeakPoints, 1)
	assert.Equal(t, "K2", r.WeakPoints[0].ID)
	assert.Equal(t, len(r.WeakPoints), r.Summary.Weak)
	assert.Equal(t, 11, r.Summary.Unknown)
}

func TestAnalyze_DoesNotMutate(t *testing.T) {
	a, st := newState(t)
	set(t, st, "K1", 0.1, 3, 0)
	before := st.Clone()
	_ = a.Analyze(st, 0.3)
	assert.Equal(t, before, st)
}

func TestMessages_Bands(t *testing.T) {
	a, st := newState(t)
	set(t, st, "K1", 0.05, 20, 1) // 5%
	set(t, st, "K2", 0.1, 20, 3)  // 15%
	set(t, st, "K3", 0.2, 20, 5)  // 25%
	set(t, st, "K4", 0.25, 10, 9) // 90%

	r := a.Analyze(st, 0.3)
	require.Len(t, r.WeakPoints, 4)
	assert.Equal(t, UrgencyHigh, r.WeakPoints[0].Urgency)
	assert.Equal(t, UrgencyMedium, r.WeakPoints[1].Urgency)
	assert.Equal(t, UrgencyLight, r.WeakPoints[2].Urgency)

	require.Len(t, r.Messages, 4, "three point messages plus strategy")
	assert.True(t, strings.HasPrefix(r.Messages[0], "[high]"))
	assert.Contains(t, r.Messages[0], "K1")
	assert.Contains(t, r.Messages[0], "5.0%")
	assert.True(t, strings.HasPrefix(r.Messages[1], "[medium]"))
	assert.True(t, strings.HasPrefix(r.Messages[2], "[light]"))
	assert.Contains(t, r.Messages[3], "several weak points")
}

func TestMessages_Strategy(t *testing.T) {
	a, _ := newState(t)
	mk := func(n int) []WeakPoint {
		out := make([]WeakPoint, n)
		for i := range out {
			out[i] = WeakPoint{ID: "K", Name: "k", Urgency: UrgencyLight}
		}
		return out
	}
	assert.Contains(t, last(a.messages(mk(1))), "concentrate")
	assert.Contains(t, last(a.messages(mk(3))), "several")
	assert.Contains(t, last(a.messages(mk(6))), "many weak points")
}

func last(s []string) string { return s[len(s)-1] }

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	cfg := DefaultConfig()
	cfg.Threshold = 0
	assert.Error(t, cfg.Validate())
	cfg = DefaultConfig()
	cfg.MasteryThreshold = 0.1
	assert.Error(t, cfg.Validate())
}
