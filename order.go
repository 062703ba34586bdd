package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: ORDER / BEFORE (spec.md §4.2.6)
// ═══════════════════════════════════════════════════════════════════════════════
// Requires child 0's hit to precede child 1's, which precedes child 2's, and
// so on within the same field - not necessarily adjacent, unlike phrase.
// Matching uses a greedy chain-extension sweep: longest[k] holds the most
// recently seen position completing a chain of length k+1; a hit belonging
// to child k+1 that lands after longest[k] extends the chain. Keeping the
// *most recent* qualifying position (rather than the first) maximizes the
// room left for extending further, which is what makes the single forward
// sweep correct without backtracking.
// ═══════════════════════════════════════════════════════════════════════════════

// OrderNode implements ORDER/BEFORE over an ordered list of children.
type OrderNode struct {
	children []ExtNode
	cursors  []*docCursor

	pendingOrder []DocID
	pendingDocs  map[DocID]ExtDoc
	pendingHits  map[DocID][]ExtHit
	drainIdx     int
	childEOF     bool
}

// NewOrderNode builds an ORDER node over children in the required left-to-
// right sequence.
func NewOrderNode(children ...ExtNode) *OrderNode {
	n := &OrderNode{children: children}
	n.cursors = make([]*docCursor, len(children))
	for i, c := range children {
		n.cursors[i] = newDocCursor(c)
	}
	n.pendingDocs = make(map[DocID]ExtDoc)
	n.pendingHits = make(map[DocID][]ExtHit)
	return n
}

func (n *OrderNode) intersectOne() (ExtDoc, bool) {
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
				maxID, first = d.DocID, false
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
			if d, _ := c.peek(); d.DocID < maxID {
				c.hint(maxID)
			}
		}
	}
}

// chainMatch runs the greedy chain-extension sweep per field, returning the
// hits forming the winning chain(s), or nil if no field completes the chain.
func chainMatch(hits []ExtHit, n int) []ExtHit {
	byField := make(map[uint32][]ExtHit)
	for _, h := range hits {
		byField[h.Pos.Field()] = append(byField[h.Pos.Field()], h)
	}
	var out []ExtHit
	for _, fh := range byField {
		sort.Slice(fh, func(i, j int) bool { return fh[i].Pos.Less(fh[j].Pos) })
		longest := make([]Hitpos, n)
		chainHits := make([][]ExtHit, n)
		have := make([]bool, n)
		for _, h := range fh {
			k := h.QueryPos - 1
			if k < 0 || k >= n {
				continue
			}
			if k == 0 {
				longest[0] = h.Pos
				chainHits[0] = []ExtHit{h}
				have[0] = true
				continue
			}
			if have[k-1] && longest[k-1].Less(h.Pos) {
				longest[k] = h.Pos
				chainHits[k] = append(append([]ExtHit{}, chainHits[k-1]...), h)
				have[k] = true
			}
		}
		if have[n-1] {
			out = append(out, chainHits[n-1]...)
		}
	}
	return out
}

func (n *OrderNode) fillPending() {
	for len(n.pendingOrder) == 0 && !n.childEOF {
		doc, ok := n.intersectOne()
		if !ok {
			n.childEOF = true
			return
		}
		var hits []ExtHit
		for _, c := range n.children {
			for _, h := range c.GetHitsChunk() {
				if h.DocID == doc.DocID {
					hits = append(hits, h)
				}
			}
		}
		matched := chainMatch(hits, len(n.children))
		if len(matched) == 0 {
			continue
		}
		n.pendingOrder = append(n.pendingOrder, doc.DocID)
		n.pendingDocs[doc.DocID] = doc
		n.pendingHits[doc.DocID] = matched
	}
}

// GetDocsChunk implements ExtNode.
func (n *OrderNode) GetDocsChunk() []ExtDoc {
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

// GetHitsChunk implements ExtNode.
func (n *OrderNode) GetHitsChunk() []ExtHit {
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
func (n *OrderNode) Reset() {
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
func (n *OrderNode) HintDocID(min DocID) {
	for _, c := range n.cursors {
		c.hint(min)
	}
}

// GetQwords implements ExtNode.
func (n *OrderNode) GetQwords(reg *Registry) int {
	max := 0
	for _, c := range n.children {
		if m := c.GetQwords(reg); m > max {
			max = m
		}
	}
	return max
}

// SetQwordsIDF implements ExtNode.
func (n *OrderNode) SetQwordsIDF(reg *Registry) {
	for _, c := range n.children {
		c.SetQwordsIDF(reg)
	}
}

// GotHitless implements ExtNode: ORDER always needs real positions.
func (n *OrderNode) GotHitless() bool { return false }

// DebugWordID implements ExtNode.
func (n *OrderNode) DebugWordID() uint64 {
	if len(n.children) == 0 {
		return 0
	}
	return n.children[0].DebugWordID()
}
