// Package vecmath provides the small set of dense-vector operations used for
// reasoning over knowledge-point embeddings.
package vecmath

import "math"

// Vector is a dense float64 embedding vector.
type Vector []float64

// Zeros returns a zero vector of dimension dim.
func Zeros(dim int) Vector {
	return make(Vector, dim)
}

// Clone returns a copy of v. A nil vector clones to nil.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Norm returns the L2 norm of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// AddScaled adds s*w to v in place. Vectors of different length are
// combined over their common prefix.
func (v Vector) AddScaled(w Vector, s float64) {
	n := min(len(v), len(w))
	for i := 0; i < n; i++ {
		v[i] += s * w[i]
	}
}

// Scale multiplies v by s in place.
func (v Vector) Scale(s float64) {
	for i := range v {
		v[i] *= s
	}
}

// Normalized returns v scaled to unit length and true, or a copy of v and
// false when v has zero norm.
func (v Vector) Normalized() (Vector, bool) {
	out := v.Clone()
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return out, false
	}
	out.Scale(1 / n)
	return out, true
}

// IsZero reports whether every component of v is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Dot returns the inner product of a and b, or 0 if their lengths differ.
func Dot(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// Cosine computes cosine similarity between two vectors. Mismatched
// lengths and zero vectors yield 0.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Blend returns alpha*a + (1-alpha)*b.
func Blend(a, b Vector, alpha float64) Vector {
	out := Zeros(max(len(a), len(b)))
	out.AddScaled(a, alpha)
	out.AddScaled(b, 1-alpha)
	return out
}

// Mean returns the component-wise mean of vs, or nil when vs is empty.
func Mean(vs ...Vector) Vector {
	if len(vs) == 0 {
		return nil
	}
	out := Zeros(len(vs[0]))
	for _, v := range vs {
		out.AddScaled(v, 1)
	}
	out.Scale(1 / float64(len(vs)))
	return out
}
