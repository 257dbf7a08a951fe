// Package retrieval ranks corpus rows against a query vector by cosine
// similarity. It is defensive about numeric anomalies: NaN/Inf inputs
// are zeroed before norms are taken, non-finite similarities rank last
// via a sentinel score, and a degenerate zero-norm query scores every
// row as exactly zero instead of dividing by near-zero.
package retrieval

import "math"

// epsilon guards cosine denominators against near-zero norms.
const epsilon = 1e-8

// sentinel replaces non-finite similarity results so the affected rows
// rank last rather than breaking selection.
const sentinel = -1.0

// Hit is one ranked row.
type Hit struct {
	// Index is the corpus row.
	Index int

	// Score is the cosine similarity, or the -1.0 sentinel.
	Score float64
}

// sanitise replaces NaN/Inf with 0, in place on the returned copy.
func sanitise(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		d := float64(f)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			d = 0
		}
		out[i] = d
	}
	return out
}

func vectorNorm(v []float64) float64 {
	var sum float64
	for _, f := range v {
		sum += f * f
	}
	return math.Sqrt(sum)
}

func dot(a []float64, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(b[i])
		if math.IsNaN(d) || math.IsInf(d, 0) {
			d = 0
		}
		sum += a[i] * d
	}
	return sum
}

func rowNorm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		d := float64(f)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			d = 0
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Similarities computes the cosine similarity of the query against
// every row. A query with norm below epsilon yields all zeros.
func Similarities(rows [][]float32, query []float32) []float64 {
	q := sanitise(query)
	qNorm := vectorNorm(q)

	sims := make([]float64, len(rows))
	if qNorm < epsilon {
		return sims
	}

	for i, row := range rows {
		denom := rowNorm(row)*qNorm + epsilon
		sim := dot(q, row) / denom
		if math.IsNaN(sim) || math.IsInf(sim, 0) {
			sim = sentinel
		}
		sims[i] = sim
	}
	return sims
}
