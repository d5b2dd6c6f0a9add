package learner

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/vecmath"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testGraph(t *testing.T) *knowledge.Graph {
	t.Helper()
	g, err := knowledge.New([]knowledge.KnowledgePoint{
		{ID: "K1", Embedding: vecmath.Vector{1, 0, 0}},
		{ID: "K2", Embedding: vecmath.Vector{0, 1, 0}},
		{ID: "K3", Embedding: vecmath.Vector{0, 0, 1}},
	}, nil)
	require.NoError(t, err)
	return g
}

func populated(t *testing.T, g *knowledge.Graph, answers int) *State {
	t.Helper()
	s := New("alice", g, t0)
	s.Vector = vecmath.Vector{0.6, 0.8, 0}
	s.Mastery = []float64{0.27000000000000002, 0.1 + 0.2, 0}
	s.PracticeCount = []int{answers, 2, 0}
	s.CorrectCount = []int{answers / 2, 1, 0}
	s.LastPractice = []time.Time{t0.Add(time.Hour), t0.Add(2 * time.Hour), {}}
	s.BatchCount = answers
	s.DifficultyOffset = -0.015
	for i := 0; i < answers; i++ {
		s.History = append(s.History, Record{
			ID:              fmt.Sprintf("r%d", i),
			QuestionID:      fmt.Sprintf("Q%d", i%7+1),
			Chosen:          "B",
			Correct:         i%2 == 0,
			KnowledgePoints: []string{"K1"},
			At:              t0.Add(time.Duration(i) * time.Second),
			Review:          i%5 == 0,
		})
	}
	s.Errors = []ErrorEntry{{QuestionID: "Q2", KnowledgePoints: []string{"K1", "K2"}, At: t0, MinMastery: 0.1, Misses: 2}}
	s.PushVector(vecmath.Vector{1, 0, 0})
	s.PushVector(s.Vector)
	s.LastDecayAt = t0.Add(48 * time.Hour)
	s.UpdatedAt = t0.Add(72 * time.Hour)
	return s
}

func TestNew(t *testing.T) {
	g := testGraph(t)
	s := New("bob", g, t0)
	assert.Equal(t, "bob", s.StudentID)
	assert.Len(t, s.Mastery, 3)
	assert.False(t, s.Started())
	assert.Equal(t, 0, s.BatchCount)
	assert.NoError(t, s.Check())
}

func TestState_MasteryOf(t *testing.T) {
	g := testGraph(t)
	s := populated(t, g, 4)

	m, err := s.MasteryOf("K2")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, m, 1e-9)

	_, err = s.MasteryOf("K9")
	assert.ErrorIs(t, err, knowledge.ErrUnknownKnowledgePoint)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := populated(t, testGraph(t), 3)
	c := s.Clone()
	require.Equal(t, s, c)

	c.Mastery[0] = 1
	c.Vector[0] = 9
	c.History[0].KnowledgePoints[0] = "K3"
	c.Errors[0].Misses = 10
	c.VectorHistory[0][0] = 7

	assert.NotEqual(t, 1.0, s.Mastery[0])
	assert.Equal(t, 0.6, s.Vector[0])
	assert.Equal(t, "K1", s.History[0].KnowledgePoints[0])
	assert.Equal(t, 2, s.Errors[0].Misses)
	assert.Equal(t, 1.0, s.VectorHistory[0][0])
}

func TestState_AverageMasteryTracksOnlyEvidence(t *testing.T) {
	s := New("c", testGraph(t), t0)
	assert.Equal(t, 0.0, s.AverageMastery())
	s.Mastery[0] = 0.6
	s.PracticeCount[1] = 1
	assert.InDelta(t, 0.3, s.AverageMastery(), 1e-12)
}

func TestState_RecentAccuracy(t *testing.T) {
	s := populated(t, testGraph(t), 10)
	acc, n := s.RecentAccuracy(4)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 0.5, acc, 1e-12)

	acc, n = New("x", testGraph(t), t0).RecentAccuracy(20)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0.0, acc)
}

func TestState_Answered(t *testing.T) {
	s := populated(t, testGraph(t), 3)
	answered, correct := s.Answered("Q1")
	assert.True(t, answered)
	assert.True(t, correct)
	answered, correct = s.Answered("Q2")
	assert.True(t, answered)
	assert.False(t, correct)
	answered, _ = s.Answered("Q99")
	assert.False(t, answered)
}

func TestState_PushVectorBounded(t *testing.T) {
	s := New("d", testGraph(t), t0)
	for i := 0; i < MaxVectorHistory+7; i++ {
		s.PushVector(vecmath.Vector{float64(i), 0, 0})
	}
	require.Len(t, s.VectorHistory, MaxVectorHistory)
	assert.Equal(t, 7.0, s.VectorHistory[0][0])
}

func TestState_Check(t *testing.T) {
	s := populated(t, testGraph(t), 3)
	require.NoError(t, s.Check())

	s.Mastery[1] = 1.5
	assert.Error(t, s.Check())

	s = populated(t, testGraph(t), 3)
	s.History[2].At = t0.Add(-time.Hour)
	assert.Error(t, s.Check())
}

func TestState_Summarize(t *testing.T) {
	s := New("e", testGraph(t), t0)
	s.Mastery = []float64{0.7, 0.35, 0.1}
	s.PracticeCount = []int{3, 1, 1}
	sum := s.Summarize(0.5, 0.3)
	assert.Equal(t, 3, sum.TotalPoints)
	assert.Equal(t, 1, sum.Mastered)
	assert.Equal(t, 1, sum.Moderate)
	assert.Equal(t, 1, sum.Weak)
	assert.Equal(t, 0, sum.Unknown)
	assert.InDelta(t, (0.7+0.35+0.1)/3, sum.AverageMastery, 1e-12)

	s.Mastery[2], s.PracticeCount[2] = 0, 0
	assert.Equal(t, 1, s.Summarize(0.5, 0.3).Unknown)

	// Seeded but never practiced: not weak yet.
	s.Mastery[2] = 0.2
	sum = s.Summarize(0.5, 0.3)
	assert.Equal(t, 0, sum.Weak)
	assert.Equal(t, 1, sum.Unknown)
}
