package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"opposite", Vector{1, 2}, Vector{-1, -2}, -1},
		{"zero vector", Vector{0, 0}, Vector{1, 1}, 0},
		{"length mismatch", Vector{1}, Vector{1, 1}, 0},
		{"empty", Vector{}, Vector{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-12)
		})
	}
}

func TestNormalized(t *testing.T) {
	v, ok := Vector{3, 4}.Normalized()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, v.Norm(), 1e-12)
	assert.InDelta(t, 0.6, v[0], 1e-12)

	z, ok := Vector{0, 0}.Normalized()
	assert.False(t, ok)
	assert.True(t, z.IsZero())
}

func TestNormalized_DoesNotMutate(t *testing.T) {
	v := Vector{3, 4}
	_, _ = v.Normalized()
	assert.Equal(t, Vector{3, 4}, v)
}

func TestBlend(t *testing.T) {
	got := Blend(Vector{1, 0}, Vector{0, 1}, 0.7)
	assert.InDelta(t, 0.7, got[0], 1e-12)
	assert.InDelta(t, 0.3, got[1], 1e-12)
}

func TestMean(t *testing.T) {
	assert.Nil(t, Mean())
	got := Mean(Vector{1, 2}, Vector{3, 4})
	assert.Equal(t, Vector{2, 3}, got)
}

func TestAddScaled_CommonPrefix(t *testing.T) {
	v := Vector{1, 1, 1}
	v.AddScaled(Vector{1, 1}, 2)
	assert.Equal(t, Vector{3, 3, 1}, v)
}

func TestNormalized_NaN(t *testing.T) {
	_, ok := Vector{math.NaN(), 1}.Normalized()
	assert.False(t, ok)
}
