package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: POSITIONAL OPERATORS (spec.md §4.2.4: phrase, proximity, multinear)
// ═══════════════════════════════════════════════════════════════════════════════
// All three share one shape: intersect the doc streams of an AND-spine (built
// by the coordinator in doc-frequency-then-query-position order, per
// SPEC_FULL.md §6's qpos-reverse decision), then for each candidate doc pull
// every child's hits for that doc and run a small position FSM over the
// merged, field-grouped hit set. A doc is only emitted once its FSM finds at
// least one valid match; the matching hits are buffered so GetHitsChunk can
// hand them back on the next call, preserving the one-chunk-lag contract.
// ═══════════════════════════════════════════════════════════════════════════════

// PositionalKind distinguishes the three FSM variants. Multinear reuses
// proximity's sliding-window algorithm with a configurable per-gap distance
// instead of phrase's exact-adjacency check (treated as symmetric-distance
// proximity, not true asymmetric twofer chaining).
type PositionalKind int

const (
	PositionalPhrase PositionalKind = iota
	PositionalProximity
	PositionalMultinear
)

// PositionalNode matches an ordered (phrase) or unordered (proximity,
// multinear) run of keyword positions within a window.
type PositionalNode struct {
	children []ExtNode
	cursors  []*docCursor
	kind     PositionalKind
	distance int // phrase: ignored (always exact adjacency); proximity/multinear: window width

	pendingOrder []DocID
	pendingDocs  map[DocID]ExtDoc
	pendingHits  map[DocID][]ExtHit
	drainIdx     int
	childEOF     bool
}

// NewPositionalNode builds a positional operator over children in the order
// the caller passes them (the coordinator passes them in query order; they
// are not re-sorted by document frequency).
func NewPositionalNode(kind PositionalKind, distance int, children ...ExtNode) *PositionalNode {
	n := &PositionalNode{kind: kind, distance: distance, children: children}
	n.cursors = make([]*docCursor, len(children))
	for i, c := range children {
		n.cursors[i] = newDocCursor(c)
	}
	n.pendingDocs = make(map[DocID]ExtDoc)
	n.pendingHits = make(map[DocID][]ExtHit)
	return n
}

// intersectOne advances all cursors to their next common DocID, returning
// that doc with the children's field masks merged and ok=true, or ok=false
// once any cursor is exhausted.
func (n *PositionalNode) intersectOne() (ExtDoc, bool) {
	for {
		var maxID DocID
		allSame := true
		first := true
		for _, c := range n.cursors {
			d, ok := c.peek()
			if !ok {
				return ExtDoc{}, false
			}
			if first {
				maxID = d.DocID
				first = false
				continue
			}
			if d.DocID != maxID {
				allSame = false
			}
			if d.DocID > maxID {
				maxID = d.DocID
			}
		}
		if allSame {
			merged := ExtDoc{DocID: maxID}
			for _, c := range n.cursors {
				d, _ := c.peek()
				merged.FieldMask |= d.FieldMask
				c.advance()
			}
			return merged, true
		}
		for _, c := range n.cursors {
			d, _ := c.peek()
			if d.DocID < maxID {
				c.hint(maxID)
			}
		}
	}
}

// fillPending pulls candidate docs until the pending buffer has at least one
// verified match or every cursor is exhausted.
func (n *PositionalNode) fillPending() {
	for len(n.pendingOrder) == 0 && !n.childEOF {
		doc, ok := n.intersectOne()
		if !ok {
			n.childEOF = true
			return
		}
		hits := n.collectMatchHits(doc.DocID)
		if len(hits) == 0 {
			continue
		}
		n.pendingOrder = append(n.pendingOrder, doc.DocID)
		n.pendingDocs[doc.DocID] = doc
		n.pendingHits[doc.DocID] = hits
	}
}

// collectMatchHits pulls every child's hits for doc, groups by field, and
// runs the appropriate FSM, returning the hits that form valid matches (or
// nil if no match exists, in which case doc is dropped from the stream).
func (n *PositionalNode) collectMatchHits(doc DocID) []ExtHit {
	byField := make(map[uint32][]ExtHit)
	for _, c := range n.children {
		for _, h := range c.GetHitsChunk() {
			if h.DocID != doc {
				continue
			}
			byField[h.Pos.Field()] = append(byField[h.Pos.Field()], h)
		}
	}
	var out []ExtHit
	for _, hits := range byField {
		sort.Slice(hits, func(i, j int) bool { return hits[i].Pos.Less(hits[j].Pos) })
		switch n.kind {
		case PositionalPhrase:
			out = append(out, matchPhrase(hits, len(n.children))...)
		default:
			out = append(out, matchWindow(hits, len(n.children), n.distance)...)
		}
	}
	return out
}

// matchPhrase finds runs where word i occurs at basePos+i for every i in
// [0, wordCount), i.e. the classic exact-adjacency phrase check.
func matchPhrase(hits []ExtHit, wordCount int) []ExtHit {
	byWord := make(map[int][]Hitpos)
	for _, h := range hits {
		byWord[h.QueryPos] = append(byWord[h.QueryPos], h.Pos)
	}
	first, ok := byWord[1]
	if !ok {
		return nil
	}
	var out []ExtHit
	for _, base := range first {
		matched := make([]ExtHit, 0, wordCount)
		ok := true
		for w := 1; w <= wordCount; w++ {
			want := base.Position() + uint32(w-1)
			found := false
			for _, p := range byWord[w] {
				if p.Field() == base.Field() && p.Position() == want {
					matched = append(matched, ExtHit{DocID: hits[0].DocID, Pos: p, QueryPos: w, Weight: 1})
					found = true
					break
				}
			}
			if !found {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, matched...)
		}
	}
	return out
}

// matchWindow implements proximity/multinear: a valid match is any set of
// wordCount distinct query positions whose hits all fall within a span of
// `distance` word positions of one another, order-independent. A simple
// sliding window over the field's merged, position-sorted hits suffices.
func matchWindow(hits []ExtHit, wordCount, distance int) []ExtHit {
	if distance <= 0 {
		distance = wordCount
	}
	var out []ExtHit
	lo := 0
	seen := make(map[int]int) // queryPos -> count in window
	for hi := 0; hi < len(hits); hi++ {
		seen[hits[hi].QueryPos]++
		for hits[hi].Pos.Position()-hits[lo].Pos.Position() > uint32(distance) {
			seen[hits[lo].QueryPos]--
			if seen[hits[lo].QueryPos] == 0 {
				delete(seen, hits[lo].QueryPos)
			}
			lo++
		}
		if len(seen) >= wordCount {
			out = append(out, hits[lo:hi+1]...)
		}
	}
	return out
}

// GetDocsChunk implements ExtNode.
func (n *PositionalNode) GetDocsChunk() []ExtDoc {
	n.fillPending()
	chunk := newDocsChunk()
	for !chunk.full() && n.drainIdx < len(n.pendingOrder) {
		id := n.pendingOrder[n.drainIdx]
		chunk.docs = append(chunk.docs, n.pendingDocs[id])
		n.drainIdx++
	}
	if n.drainIdx >= len(n.pendingOrder) && len(n.pendingOrder) > 0 {
		n.pendingOrder = nil
		n.drainIdx = 0
	}
	if len(chunk.docs) == 0 {
		if n.childEOF {
			return nil
		}
		n.fillPending()
		return n.GetDocsChunk()
	}
	return chunk.docs
}

// GetHitsChunk implements ExtNode, returning the FSM-verified hits buffered
// for the docs most recently returned by GetDocsChunk.
func (n *PositionalNode) GetHitsChunk() []ExtHit {
	var out []ExtHit
	for id, hits := range n.pendingHits {
		out = append(out, hits...)
		delete(n.pendingHits, id)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocID != out[j].DocID {
			return out[i].DocID < out[j].DocID
		}
		return out[i].Pos.Less(out[j].Pos)
	})
	return out
}

// Reset implements ExtNode.
func (n *PositionalNode) Reset() {
	for _, c := range n.cursors {
		c.reset()
	}
	n.pendingOrder = nil
	n.pendingDocs = make(map[DocID]ExtDoc)
	n.pendingHits = make(map[DocID][]ExtHit)
	n.drainIdx = 0
	n.childEOF = false
}

// HintDocID implements ExtNode.
func (n *PositionalNode) HintDocID(min DocID) {
	for _, c := range n.cursors {
		c.hint(min)
	}
}

// GetQwords implements ExtNode.
func (n *PositionalNode) GetQwords(reg *Registry) int {
	max := 0
	for _, c := range n.children {
		if m := c.GetQwords(reg); m > max {
			max = m
		}
	}
	return max
}

// SetQwordsIDF implements ExtNode.
func (n *PositionalNode) SetQwordsIDF(reg *Registry) {
	for _, c := range n.children {
		c.SetQwordsIDF(reg)
	}
}

// GotHitless implements ExtNode: positional operators always need real hit
// positions, so this is always false once there is at least one child.
func (n *PositionalNode) GotHitless() bool { return len(n.children) == 0 }

// DebugWordID implements ExtNode.
func (n *PositionalNode) DebugWordID() uint64 {
	if len(n.children) == 0 {
		return 0
	}
	return n.children[0].DebugWordID()
}
