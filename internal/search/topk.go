package search

import (
	"container/heap"
	"sort"

	"github.com/populationgenomics/seqr/internal/domain"
)

// row is one result: a single variant or a comp-het pair whose members are
// ordered by their sort tuples.
type row struct {
	sort     []float64
	key      string
	variant  *domain.Candidate
	compHets [2]*domain.Candidate
}

func (r *row) isPair() bool { return r.variant == nil }

func (r *row) candidates() []*domain.Candidate {
	if r.isPair() {
		return r.compHets[:]
	}
	return []*domain.Candidate{r.variant}
}

func singleRow(s *sorter, c *domain.Candidate) *row {
	return &row{sort: s.tuple(c), key: c.Key, variant: c}
}

func pairRow(s *sorter, p domain.CompHetPair) *row {
	t1, t2 := s.tuple(p.V1), s.tuple(p.V2)
	first, second := p.V1, p.V2
	if cmp := compareTuples(t2, t1); cmp < 0 || (cmp == 0 && p.V2.Key < p.V1.Key) {
		first, second = second, first
		t1 = t2
	}
	return &row{sort: t1, key: first.Key + "," + second.Key, compHets: [2]*domain.Candidate{first, second}}
}

func less(a, b *row) bool {
	if cmp := compareTuples(a.sort, b.sort); cmp != 0 {
		return cmp < 0
	}
	return a.key < b.key
}

// worstFirst is a max-heap on sort order, so the root is the row to evict.
type worstFirst []*row

func (h worstFirst) Len() int            { return len(h) }
func (h worstFirst) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x interface{}) { *h = append(*h, x.(*row)) }
func (h *worstFirst) Pop() interface{} {
	old := *h
	n := len(old)
	r := old[n-1]
	*h = old[:n-1]
	return r
}

// initialTopKCap bounds the up-front allocation; the heap grows past it on
// demand.
const initialTopKCap = 1024

// topK keeps the k lowest rows of a stream without holding the rest.
type topK struct {
	k     int
	total int
	rows  worstFirst
}

func newTopK(k int) *topK {
	return &topK{k: k, rows: make(worstFirst, 0, min(max(k, 0), initialTopKCap))}
}

func (t *topK) add(r *row) {
	t.total++
	if t.k <= 0 {
		return
	}
	if len(t.rows) < t.k {
		heap.Push(&t.rows, r)
		return
	}
	if less(r, t.rows[0]) {
		t.rows[0] = r
		heap.Fix(&t.rows, 0)
	}
}

// sorted returns the kept rows in ascending order.
func (t *topK) sorted() []*row {
	out := append([]*row(nil), t.rows...)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
