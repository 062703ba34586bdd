package neo

import (
	"fmt"
	"sort"
)

// ═══════════════════════════════════════════════════════════════════════════════
// L4: GROUP SORTER (spec.md §4.4's GROUP BY / HAVING)
// ═══════════════════════════════════════════════════════════════════════════════
// Groups matches by an FNV-64 key (fnv.go's hash, used here for group identity),
// keeping an N-best k-buffer of representative matches per group alongside a
// running aggregate (SUM/AVG/MIN/MAX/GROUP_CONCAT). A MVA or JSON grouper is
// just a different key-extraction function feeding the same sorter - MVA
// pushes one match per attribute value, JSON dispatches on the value's
// concrete type before hashing so "1" (string) and 1 (int) don't collide.
// ═══════════════════════════════════════════════════════════════════════════════

// GroupKey identifies one GROUP BY bucket.
type GroupKey uint64

// AggKind selects the aggregate maintained per group.
type AggKind int

const (
	AggSum AggKind = iota
	AggAvg
	AggMin
	AggMax
	AggConcat
)

// GroupAccumulator is the running aggregate for one group.
type GroupAccumulator struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	Concat []string
	kind   AggKind
	hasVal bool
}

func newGroupAccumulator(kind AggKind) *GroupAccumulator {
	return &GroupAccumulator{kind: kind}
}

func (a *GroupAccumulator) add(value float64, str string) {
	a.Count++
	switch a.kind {
	case AggSum, AggAvg:
		a.Sum += value
	case AggMin:
		if !a.hasVal || value < a.Min {
			a.Min = value
		}
	case AggMax:
		if !a.hasVal || value > a.Max {
			a.Max = value
		}
	case AggConcat:
		a.Concat = append(a.Concat, str)
	}
	a.hasVal = true
}

// Value returns the accumulator's current aggregate value (meaningless for
// AggConcat; use Concat directly).
func (a *GroupAccumulator) Value() float64 {
	if a.kind == AggAvg && a.Count > 0 {
		return a.Sum / float64(a.Count)
	}
	if a.kind == AggMin || a.kind == AggMax {
		if a.kind == AggMin {
			return a.Min
		}
		return a.Max
	}
	return a.Sum
}

// GroupResult is one finalized GROUP BY bucket: its N-best representative
// matches plus the running aggregate.
type GroupResult struct {
	Key  GroupKey
	Best []RankedMatch
	Agg  *GroupAccumulator
}

type groupState struct {
	key  GroupKey
	best []RankedMatch
	agg  *GroupAccumulator
}

// GroupSorter groups pushed matches by a key function, keeping an N-best
// k-buffer per group and an aggregate over a value function.
type GroupSorter struct {
	keyFn   func(RankedMatch) GroupKey
	valueFn func(RankedMatch) (float64, string)
	aggKind AggKind
	nBest   int
	cmp     Comparator

	groups map[GroupKey]*groupState
	order  []GroupKey
	having func(*GroupAccumulator) bool
}

// NewGroupSorter builds a group sorter. nBest controls how many
// representative matches are retained per group (the classic sphinx
// @groupby implicit sort keeps 1; "N-best" queries keep more).
func NewGroupSorter(keyFn func(RankedMatch) GroupKey, valueFn func(RankedMatch) (float64, string), aggKind AggKind, nBest int, cmp Comparator) *GroupSorter {
	return &GroupSorter{
		keyFn: keyFn, valueFn: valueFn, aggKind: aggKind, nBest: nBest, cmp: cmp,
		groups: make(map[GroupKey]*groupState),
	}
}

// WithHaving attaches a post-aggregation filter, evaluated at Results() time
// (spec.md §4.4: HAVING is a post-group filter, never pushed below the
// group-by itself).
func (s *GroupSorter) WithHaving(pred func(*GroupAccumulator) bool) *GroupSorter {
	s.having = pred
	return s
}

// Push offers one match to the sorter, routing it into its group.
func (s *GroupSorter) Push(m RankedMatch) {
	key := s.keyFn(m)
	g, ok := s.groups[key]
	if !ok {
		g = &groupState{key: key, agg: newGroupAccumulator(s.aggKind)}
		s.groups[key] = g
		s.order = append(s.order, key)
	}
	val, str := s.valueFn(m)
	g.agg.add(val, str)
	g.best = insertNBest(g.best, m, s.nBest, s.cmp)
}

func insertNBest(best []RankedMatch, m RankedMatch, n int, cmp Comparator) []RankedMatch {
	if n <= 0 {
		return best
	}
	idx := sort.Search(len(best), func(i int) bool { return cmp.Less(m, best[i]) })
	best = append(best, RankedMatch{})
	copy(best[idx+1:], best[idx:])
	best[idx] = m
	if len(best) > n {
		best = best[:n]
	}
	return best
}

// Results finalizes every group (applying HAVING if set), returning groups
// in first-seen order.
func (s *GroupSorter) Results() []GroupResult {
	var out []GroupResult
	for _, key := range s.order {
		g := s.groups[key]
		if s.having != nil && !s.having(g.agg) {
			continue
		}
		out = append(out, GroupResult{Key: g.key, Best: g.best, Agg: g.agg})
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════
// KEY EXTRACTORS: scalar, MVA, JSON
// ═══════════════════════════════════════════════════════════════════════════════

// ScalarGroupKey hashes a single int64 attribute value into a GroupKey.
func ScalarGroupKey(v int64) GroupKey {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return GroupKey(FNV64(buf[:]))
}

// MVAGroupKeys hashes every value in a multi-valued attribute, for pushing a
// single match once per distinct group it belongs to.
func MVAGroupKeys(values []int64) []GroupKey {
	keys := make([]GroupKey, len(values))
	for i, v := range values {
		keys[i] = ScalarGroupKey(v)
	}
	return keys
}

// PushMVA routes m into every group named by an MVA attribute's values.
func (s *GroupSorter) PushMVA(m RankedMatch, values []int64) {
	for _, v := range values {
		key := ScalarGroupKey(v)
		g, ok := s.groups[key]
		if !ok {
			g = &groupState{key: key, agg: newGroupAccumulator(s.aggKind)}
			s.groups[key] = g
			s.order = append(s.order, key)
		}
		val, str := s.valueFn(m)
		g.agg.add(val, str)
		g.best = insertNBest(g.best, m, s.nBest, s.cmp)
	}
}

// JSONGroupKey hashes a dynamically-typed JSON scalar into a GroupKey,
// prefixing the hash input with a type tag so "1" (string) and 1 (float64,
// the type encoding/json decodes numbers into) never collide.
func JSONGroupKey(v any) GroupKey {
	switch t := v.(type) {
	case nil:
		return GroupKey(FNV64([]byte{'n'}))
	case bool:
		if t {
			return GroupKey(FNV64([]byte{'b', 1}))
		}
		return GroupKey(FNV64([]byte{'b', 0}))
	case float64:
		return GroupKey(FNV64([]byte(fmt.Sprintf("f%v", t))))
	case string:
		return GroupKey(FNV64([]byte("s" + t)))
	default:
		return GroupKey(FNV64([]byte(fmt.Sprintf("o%v", t))))
	}
}
