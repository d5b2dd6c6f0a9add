package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/dataset"
	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/mastery"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/session"
	"github.com/abhisek/kgtutor/internal/store"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func memoryStore(t *testing.T, g *knowledge.Graph) session.Store {
	return store.NewMemoryStore(g)
}

func sqliteStore(t *testing.T, g *knowledge.Graph) session.Store {
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "kgtutor.db"), g, store.SQLiteOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTutor(t *testing.T, open func(*testing.T, *knowledge.Graph) session.Store) (*session.Tutor, *clock) {
	t.Helper()
	ds, err := dataset.Default(knowledge.WithFoundational("K1", "K2", "K3"))
	require.NoError(t, err)
	if open == nil {
		open = memoryStore
	}
	s := open(t, ds.Graph)
	c := &clock{now: t0}
	tu, err := session.New(ds.Graph, ds.Bank, session.DefaultConfig(), s, session.WithClock(c.Now))
	require.NoError(t, err)
	return tu, c
}

func TestStartSession_Policies(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()

	res, err := tu.StartSession(ctx, "s1", map[string]float64{"K1": 0.4, "K42": 1}, session.RejectExisting)
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, []string{"K42"}, res.Skipped)
	assert.False(t, res.Resumed)

	_, err = tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	assert.True(t, errors.Is(err, session.ErrExists))

	again, err := tu.StartSession(ctx, "s1", nil, session.ResumeExisting)
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.NotEqual(t, res.SessionID, again.SessionID)
	m, _ := again.State.MasteryOf("K1")
	assert.Equal(t, 0.4, m)

	reset, err := tu.StartSession(ctx, "s1", nil, session.ResetExisting)
	require.NoError(t, err)
	m, _ = reset.State.MasteryOf("K1")
	assert.Equal(t, 0.0, m)
}

func TestTutor_UnknownLearner(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()

	_, err := tu.Recommend(ctx, "ghost", 3)
	assert.True(t, errors.Is(err, session.ErrNotFound))
	_, _, err = tu.Submit(ctx, "ghost", nil)
	assert.True(t, errors.Is(err, session.ErrNotFound))
	_, err = tu.Status(ctx, "ghost")
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestTutor_RecommendSubmitCycle(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)

	batch, err := tu.Recommend(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, batch.Items, 3)
	assert.True(t, batch.ColdStart)

	answers := make([]mastery.Answer, len(batch.Items))
	for i, it := range batch.Items {
		q, err := tu.Bank().Get(it.ID)
		require.NoError(t, err)
		answers[i] = mastery.Answer{QuestionID: q.ID, ChosenOption: q.CorrectOption}
	}
	results, st, err := tu.Submit(ctx, "s1", answers)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Correct)
	}
	assert.Equal(t, 1, st.BatchCount)

	stored, err := tu.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.BatchCount)
	assert.Len(t, stored.History, 3)

	next, err := tu.Recommend(ctx, "s1", 3)
	require.NoError(t, err)
	assert.False(t, next.ColdStart)
	for _, it := range next.Items {
		for _, a := range answers {
			assert.NotEqual(t, a.QuestionID, it.ID, "correctly answered questions are not repeated")
		}
	}

	sum, err := tu.Status(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalAnswers)
	assert.Equal(t, 1.0, sum.Accuracy)
}

func TestTutor_RecommendDoesNotChangeState(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)

	before, _ := tu.Export(ctx, "s1")
	_, err = tu.Recommend(ctx, "s1", 3)
	require.NoError(t, err)
	after, _ := tu.Export(ctx, "s1")
	assert.JSONEq(t, string(before), string(after))
}

func TestTutor_MissedQuestionReturnsAsReview(t *testing.T) {
	tu, c := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)

	results, _, err := tu.Submit(ctx, "s1", []mastery.Answer{{QuestionID: "Q1", ChosenOption: "A"}})
	require.NoError(t, err)
	require.False(t, results[0].Correct)

	cands, err := tu.ReviewCandidates(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cands, "not due on the same day")

	c.Advance(2 * 24 * time.Hour)
	cands, err = tu.ReviewCandidates(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Q1", cands[0].QuestionID)

	batch, err := tu.Recommend(ctx, "s1", 3)
	require.NoError(t, err)
	var reviews []recommend.Recommendation
	for _, it := range batch.Items {
		if it.IsReview {
			reviews = append(reviews, it)
		}
	}
	require.Len(t, reviews, 1)
	assert.Equal(t, "Q1", reviews[0].ID)
	assert.NotEmpty(t, reviews[0].ReviewReason)

	results, st, err := tu.Submit(ctx, "s1", []mastery.Answer{{QuestionID: "Q1", ChosenOption: "C"}})
	require.NoError(t, err)
	assert.True(t, results[0].Correct)
	assert.True(t, results[0].Review)
	assert.Empty(t, st.Errors)
}

func TestTutor_Check(t *testing.T) {
	tu, _ := newTutor(t, nil)
	report := tu.Check([]mastery.Answer{
		{QuestionID: "Q1", ChosenOption: "C"},
		{QuestionID: "Q2", ChosenOption: "B"},
		{QuestionID: "Q999", ChosenOption: "A"},
	})
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Graded)
	assert.Equal(t, 1, report.Correct)
	assert.Equal(t, mastery.StatusUnknownQuestion, report.Results[2].Status)
}

func TestTutor_WeakPointsAndDecay(t *testing.T) {
	tu, c := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)

	_, _, err = tu.Submit(ctx, "s1", []mastery.Answer{
		{QuestionID: "Q1", ChosenOption: "A"},
		{QuestionID: "Q2", ChosenOption: "B"},
	})
	require.NoError(t, err)

	report, err := tu.WeakPoints(ctx, "s1", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, report.WeakPoints)
	assert.NotEmpty(t, report.Messages)

	before, err := tu.State(ctx, "s1")
	require.NoError(t, err)

	c.Advance(10 * 24 * time.Hour)
	changes, err := tu.Decay(ctx, "s1")
	require.NoError(t, err)
	require.NotEmpty(t, changes)

	after, err := tu.State(ctx, "s1")
	require.NoError(t, err)
	for _, ch := range changes {
		b, _ := before.MasteryOf(ch.ID)
		a, _ := after.MasteryOf(ch.ID)
		assert.Less(t, a, b)
		assert.GreaterOrEqual(t, a, 0.05)
	}
	assert.Equal(t, t0.Add(10*24*time.Hour), after.LastDecayAt)
}

func TestTutor_DecayAll(t *testing.T) {
	tu, c := newTutor(t, sqliteStore)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := tu.StartSession(ctx, id, nil, session.RejectExisting)
		require.NoError(t, err)
		_, _, err = tu.Submit(ctx, id, []mastery.Answer{{QuestionID: "Q1", ChosenOption: "C"}})
		require.NoError(t, err)
	}

	c.Advance(5 * 24 * time.Hour)
	changed, err := tu.DecayAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, changed, 3)
	for id, n := range changed {
		assert.Positive(t, n, id)
	}
}

func TestTutor_ConcurrentSubmitsSerialize(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := tu.Submit(ctx, "s1", []mastery.Answer{{QuestionID: "Q2", ChosenOption: "A"}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := tu.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, st.BatchCount)
	assert.Len(t, st.History, 10)
	assert.Zero(t, tu.LockCount())
}

func TestTutor_RemoveReleasesLock(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)

	require.NoError(t, tu.Remove(ctx, "s1"))
	assert.Zero(t, tu.LockCount())

	_, err = tu.State(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Zero(t, tu.LockCount())
}

func TestTutor_ExportImportAll(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := tu.StartSession(ctx, id, map[string]float64{"K2": 0.7}, session.RejectExisting)
		require.NoError(t, err)
	}

	data, err := tu.ExportAll(ctx)
	require.NoError(t, err)

	// Corrupt one learner and add an unknown point to another.
	var archive session.Archive
	require.NoError(t, json.Unmarshal(data, &archive))
	archive.Students["a"].Mastery["K77"] = 0.5
	archive.Students["bad"] = nil
	data, err = json.Marshal(archive)
	require.NoError(t, err)

	other, _ := newTutor(t, nil)
	report, err := other.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, report.Imported)
	assert.Equal(t, []string{"K77"}, report.Dropped["a"])
	assert.Contains(t, report.Failed, "bad")
	assert.Error(t, report.Err())

	ids, err := other.Learners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	st, err := other.State(ctx, "b")
	require.NoError(t, err)
	m, _ := st.MasteryOf("K2")
	assert.Equal(t, 0.7, m)
}

func TestTutor_ImportSingle(t *testing.T) {
	tu, _ := newTutor(t, nil)
	ctx := context.Background()
	_, err := tu.StartSession(ctx, "s1", nil, session.RejectExisting)
	require.NoError(t, err)
	data, err := tu.Export(ctx, "s1")
	require.NoError(t, err)

	other, _ := newTutor(t, nil)
	st, dropped, err := other.Import(ctx, data)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Equal(t, "s1", st.StudentID)

	_, _, err = other.Import(ctx, []byte("{"))
	assert.Error(t, err)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	ds, err := dataset.Default()
	require.NoError(t, err)
	cfg := session.DefaultConfig()
	cfg.Mastery.Alpha = 2
	_, err = session.New(ds.Graph, ds.Bank, cfg, store.NewMemoryStore(ds.Graph))
	assert.Error(t, err)
}
