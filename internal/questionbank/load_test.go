package questionbank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/knowledge"
)

func TestLoad(t *testing.T) {
	src := `{"questions": [
		{"qid": "Q1", "content": "c1", "options": ["w","x","y","z"], "answer": "C",
		 "knowledge_points": {"K1": 0.9}, "difficulty": 0.5},
		{"qid": "Q2", "content": "c2", "options": ["{1,2}","{3,4}","y","z"], "answer": "{3,4}",
		 "knowledge_points": {"K2": 1.0}}
	]}`
	b, err := Load(strings.NewReader(src), testGraph(t))
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())

	q1, err := b.Get("Q1")
	require.NoError(t, err)
	assert.Equal(t, "C", q1.CorrectOption)
	assert.InDelta(t, 0.9, q1.KnowledgePoints["K1"], 1e-12)

	q2, err := b.Get("Q2")
	require.NoError(t, err)
	assert.Equal(t, "B", q2.CorrectOption, "answer given as option text resolves to its letter")
	assert.Equal(t, DefaultDifficulty, q2.Difficulty)
}

func TestLoad_SchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing questions", `{}`},
		{"three options", `{"questions":[{"qid":"Q1","content":"c","options":["a","b","c"],"answer":"A","knowledge_points":{"K1":1}}]}`},
		{"zero weight", `{"questions":[{"qid":"Q1","content":"c","options":["a","b","c","d"],"answer":"A","knowledge_points":{"K1":0}}]}`},
		{"difficulty out of range", `{"questions":[{"qid":"Q1","content":"c","options":["a","b","c","d"],"answer":"A","knowledge_points":{"K1":1},"difficulty":3}]}`},
		{"not json", `{"questions":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src), testGraph(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, knowledge.ErrDataIntegrity)
		})
	}
}

func TestLoad_UnknownKnowledgePoint(t *testing.T) {
	src := `{"questions":[{"qid":"Q1","content":"c","options":["a","b","c","d"],"answer":"A","knowledge_points":{"K77":1}}]}`
	_, err := Load(strings.NewReader(src), testGraph(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, knowledge.ErrDataIntegrity)
	assert.Contains(t, err.Error(), "K77")
}

func TestLoad_AnswerMatchesNoOption(t *testing.T) {
	src := `{"questions":[{"qid":"Q1","content":"c","options":["a","b","c","d"],"answer":"banana","knowledge_points":{"K1":1}}]}`
	_, err := Load(strings.NewReader(src), testGraph(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banana")
}
