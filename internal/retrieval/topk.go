package retrieval

import (
	"container/heap"
	"sort"
)

// hitHeap is a bounded min-heap used for partial selection: the root is
// the weakest retained hit. Among equal scores the higher index is
// considered weaker, so lower indexes survive and output is
// deterministic.
type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }

func (h hitHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	hit := old[n-1]
	*h = old[:n-1]
	return hit
}

// TopK returns the k highest-similarity rows for the query, sorted by
// descending score (ties broken by ascending row index). k is clamped
// to max(1, min(k, rows)); an empty corpus yields an empty result.
func TopK(rows [][]float32, query []float32, k int) []Hit {
	if len(rows) == 0 {
		return nil
	}

	sims := Similarities(rows, query)

	if k < 1 {
		k = 1
	}
	if k > len(sims) {
		k = len(sims)
	}

	// Partial selection beats a full sort on large corpora.
	h := make(hitHeap, 0, k+1)
	heap.Init(&h)
	for i, s := range sims {
		heap.Push(&h, Hit{Index: i, Score: s})
		if h.Len() > k {
			heap.Pop(&h)
		}
	}

	hits := []Hit(h)
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Index < hits[j].Index
	})
	return hits
}
