package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// DISTINCT-VALUE COUNTER (original_source supplement: uniqounter.h/cpp)
// ═══════════════════════════════════════════════════════════════════════════════
// Backs COUNT(DISTINCT attr): accumulates (groupKey, value) pairs during the
// drain, then at finalize time sorts and runs a single linear sweep counting
// distinct values per group - the same "accumulate then one sort pass"
// shape as the original's uniqounter, instead of a live per-group hash set
// (which would cost a map allocation per group for what is usually a
// one-shot aggregate).
// ═══════════════════════════════════════════════════════════════════════════════

type uniqPair struct {
	group GroupKey
	value int64
}

// UniqCounter accumulates (group, value) pairs and reduces them to a
// per-group distinct count.
type UniqCounter struct {
	pairs []uniqPair
}

// NewUniqCounter returns an empty counter.
func NewUniqCounter() *UniqCounter { return &UniqCounter{} }

// Add records one (group, value) observation.
func (u *UniqCounter) Add(group GroupKey, value int64) {
	u.pairs = append(u.pairs, uniqPair{group, value})
}

// Counts reduces all recorded pairs to a distinct-value count per group.
// The counter is left populated (idempotent: calling Counts twice returns
// the same result) since nothing here is destructive.
func (u *UniqCounter) Counts() map[GroupKey]int {
	pairs := append([]uniqPair(nil), u.pairs...)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].group != pairs[j].group {
			return pairs[i].group < pairs[j].group
		}
		return pairs[i].value < pairs[j].value
	})
	out := make(map[GroupKey]int)
	for i, p := range pairs {
		if i == 0 || p.group != pairs[i-1].group {
			out[p.group] = 1
			continue
		}
		if p.value != pairs[i-1].value {
			out[p.group]++
		}
	}
	return out
}

// Reset drops every recorded pair.
func (u *UniqCounter) Reset() { u.pairs = u.pairs[:0] }
