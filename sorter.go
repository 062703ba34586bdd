package neo

import "container/heap"

// ═══════════════════════════════════════════════════════════════════════════════
// L4: SORTER CONTRACT + TOP-K VARIANTS (spec.md §4.4)
// ═══════════════════════════════════════════════════════════════════════════════
// A Sorter consumes RankedMatch values one at a time (as the ranker produces
// them) and keeps the top K under an ordering described by a Comparator of up
// to MaxSortFields key parts plus an implicit ascending-DocID tie-break
// (spec.md §4.4's determinism requirement: two matches tying on every
// explicit key must still order the same way every run). HeapSorter is the
// general case (container/heap min-heap of size K); KBufferSorter trades a
// larger working set for fewer heap-fixup operations by batching eviction,
// the same "amortize instead of keeping a tight heap" idea the teacher
// applies to its skip list's probabilistic level generation.
// ═══════════════════════════════════════════════════════════════════════════════

// SortValue is one resolved sort-key component: either numeric or string.
type SortValue struct {
	Num   float64
	Str   string
	IsStr bool
}

// SortField is one ORDER BY clause: how to extract a SortValue from a match,
// and whether it sorts descending.
type SortField struct {
	Desc    bool
	Extract func(RankedMatch) SortValue
}

// Comparator orders matches by up to MaxSortFields SortFields, then by
// ascending DocID as an implicit final tie-break.
type Comparator struct {
	Fields []SortField
}

// Less reports whether a sorts strictly before b.
func (c Comparator) Less(a, b RankedMatch) bool {
	for _, f := range c.Fields {
		va, vb := f.Extract(a), f.Extract(b)
		var cmp int
		switch {
		case va.IsStr:
			cmp = compareStrings(va.Str, vb.Str)
		default:
			cmp = compareFloats(va.Num, vb.Num)
		}
		if cmp == 0 {
			continue
		}
		if f.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.Doc.DocID < b.Doc.DocID
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// WeightSortField builds the common "ORDER BY weight DESC" field.
func WeightSortField(desc bool) SortField {
	return SortField{Desc: desc, Extract: func(m RankedMatch) SortValue {
		return SortValue{Num: float64(m.Weight)}
	}}
}

// matchHeap adapts []RankedMatch to container/heap using a Comparator,
// inverted so the *worst* match (by cmp) sits at the root - popping the root
// is how both sorters evict the weakest survivor once over capacity.
type matchHeap struct {
	items []RankedMatch
	cmp   Comparator
}

func (h *matchHeap) Len() int { return len(h.items) }
func (h *matchHeap) Less(i, j int) bool {
	// Root = worst match, so a root "less than" means it sorts *after* j.
	return h.cmp.Less(h.items[j], h.items[i])
}
func (h *matchHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *matchHeap) Push(x any)    { h.items = append(h.items, x.(RankedMatch)) }
func (h *matchHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// HeapSorter keeps the top K matches under cmp using a bounded min-heap
// (root = current worst survivor).
type HeapSorter struct {
	k    int
	h    *matchHeap
	seen int
}

// NewHeapSorter builds a HeapSorter retaining the best k matches under cmp.
func NewHeapSorter(k int, cmp Comparator) *HeapSorter {
	return &HeapSorter{k: k, h: &matchHeap{cmp: cmp}}
}

// Push offers one match to the sorter.
func (s *HeapSorter) Push(m RankedMatch) {
	s.seen++
	if s.h.Len() < s.k {
		heap.Push(s.h, m)
		return
	}
	if s.k == 0 {
		return
	}
	worst := s.h.items[0]
	if s.h.cmp.Less(worst, m) {
		heap.Pop(s.h)
		heap.Push(s.h, m)
	}
}

// Len returns the current number of retained matches.
func (s *HeapSorter) Len() int { return s.h.Len() }

// TotalSeen returns the total number of matches ever pushed, for SELECT's
// total-found count independent of K.
func (s *HeapSorter) TotalSeen() int { return s.seen }

// Results drains the sorter into a slice ordered best-first. The sorter is
// left empty afterward.
func (s *HeapSorter) Results() []RankedMatch {
	out := make([]RankedMatch, s.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(s.h).(RankedMatch)
	}
	return out
}

// KBufferSorter amortizes heap-fixup cost by overflowing into a larger
// buffer (bufFactor * k) and only collapsing to the true top-k via a full
// sort once the buffer fills, instead of heap-fixing on every push.
type KBufferSorter struct {
	k, bufSize int
	cmp        Comparator
	buf        []RankedMatch
	seen       int
}

// NewKBufferSorter builds a k-buffer sorter retaining the best k matches,
// batching eviction every bufFactor*k pushes.
func NewKBufferSorter(k, bufFactor int, cmp Comparator) *KBufferSorter {
	if bufFactor < 2 {
		bufFactor = 2
	}
	return &KBufferSorter{k: k, bufSize: k * bufFactor, cmp: cmp}
}

// Push offers one match to the sorter.
func (s *KBufferSorter) Push(m RankedMatch) {
	s.seen++
	s.buf = append(s.buf, m)
	if len(s.buf) >= s.bufSize {
		s.collapse()
	}
}

func (s *KBufferSorter) collapse() {
	sortMatches(s.buf, s.cmp)
	if len(s.buf) > s.k {
		s.buf = s.buf[:s.k]
	}
}

// Len returns the current number of retained matches.
func (s *KBufferSorter) Len() int {
	n := len(s.buf)
	if n > s.k {
		return s.k
	}
	return n
}

// TotalSeen returns the total number of matches ever pushed.
func (s *KBufferSorter) TotalSeen() int { return s.seen }

// Results drains the sorter into a slice ordered best-first.
func (s *KBufferSorter) Results() []RankedMatch {
	s.collapse()
	out := s.buf
	s.buf = nil
	return out
}

func sortMatches(items []RankedMatch, cmp Comparator) {
	// a three-way quicksort over cmp (quicksortMatches below).
	quicksortMatches(items, cmp)
}

func quicksortMatches(items []RankedMatch, cmp Comparator) {
	if len(items) < 2 {
		return
	}
	pivot := items[len(items)/2]
	var less, equal, more []RankedMatch
	for _, it := range items {
		switch {
		case cmp.Less(it, pivot):
			less = append(less, it)
		case cmp.Less(pivot, it):
			more = append(more, it)
		default:
			equal = append(equal, it)
		}
	}
	quicksortMatches(less, cmp)
	quicksortMatches(more, cmp)
	n := copy(items, less)
	n += copy(items[n:], equal)
	copy(items[n:], more)
}
