package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: UNIT (spec.md §4.2.7: sentence / paragraph)
// ═══════════════════════════════════════════════════════════════════════════════
// Requires every child's hit to fall within the same sentence or paragraph
// instance, where instances are delimited by boundary marker hits streamed
// from a dedicated cursor (the same shape as a zone's open/close markers,
// reused here as a single boundary-position stream rather than paired
// start/end tags - sentences and paragraphs don't nest, so one boundary
// position per "end of unit" suffices).
// ═══════════════════════════════════════════════════════════════════════════════

// UnitKind distinguishes sentence vs paragraph granularity.
type UnitKind int

const (
	UnitSentence UnitKind = iota
	UnitParagraph
)

// UnitNode implements the UNIT operator.
type UnitNode struct {
	kind     UnitKind
	children []ExtNode
	cursors  []*docCursor
	boundary ZoneCursor // streams ascending end-of-unit Hitpos markers

	pendingOrder []DocID
	pendingDocs  map[DocID]ExtDoc
	pendingHits  map[DocID][]ExtHit
	drainIdx     int
	childEOF     bool
}

// NewUnitNode builds a UNIT node. boundary supplies the sentence- or
// paragraph-end marker stream matching kind.
func NewUnitNode(kind UnitKind, boundary ZoneCursor, children ...ExtNode) *UnitNode {
	n := &UnitNode{kind: kind, boundary: boundary, children: children}
	n.cursors = make([]*docCursor, len(children))
	for i, c := range children {
		n.cursors[i] = newDocCursor(c)
	}
	n.pendingDocs = make(map[DocID]ExtDoc)
	n.pendingHits = make(map[DocID][]ExtHit)
	return n
}

func (n *UnitNode) intersectOne() (ExtDoc, bool) {
	for {
		var maxID DocID
		allSame, first := true, true
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

// unitBoundaries resolves every boundary marker position in doc, grouped by
// field, ascending.
func (n *UnitNode) unitBoundaries(doc DocID) map[uint32][]Hitpos {
	n.boundary.SeekHitlist(ExtDoc{DocID: doc})
	out := make(map[uint32][]Hitpos)
	for {
		p := n.boundary.NextHit()
		if p == EmptyHit {
			break
		}
		out[p.Field()] = append(out[p.Field()], p)
	}
	for f := range out {
		sort.Slice(out[f], func(i, j int) bool { return out[f][i].Less(out[f][j]) })
	}
	return out
}

// unitIndex returns the index of the unit instance containing pos within
// bounds (the boundaries for pos's field), i.e. the count of boundary
// markers strictly before pos.
func unitIndex(bounds []Hitpos, pos Hitpos) int {
	return sort.Search(len(bounds), func(i int) bool { return !bounds[i].Less(pos) })
}

func (n *UnitNode) collectMatchHits(doc DocID) []ExtHit {
	var hits []ExtHit
	for _, c := range n.children {
		for _, h := range c.GetHitsChunk() {
			if h.DocID == doc {
				hits = append(hits, h)
			}
		}
	}
	byField := make(map[uint32][]ExtHit)
	for _, h := range hits {
		byField[h.Pos.Field()] = append(byField[h.Pos.Field()], h)
	}
	bounds := n.unitBoundaries(doc)

	var out []ExtHit
	for field, fh := range byField {
		sort.Slice(fh, func(i, j int) bool { return fh[i].Pos.Less(fh[j].Pos) })
		byUnit := make(map[int][]ExtHit)
		for _, h := range fh {
			u := unitIndex(bounds[field], h.Pos)
			byUnit[u] = append(byUnit[u], h)
		}
		needed := map[int]bool{}
		for i := range n.children {
			needed[i+1] = true
		}
		for _, uh := range byUnit {
			got := map[int]bool{}
			for _, h := range uh {
				got[h.QueryPos] = true
			}
			complete := true
			for qp := range needed {
				if !got[qp] {
					complete = false
					break
				}
			}
			if complete {
				out = append(out, uh...)
			}
		}
	}
	return out
}

func (n *UnitNode) fillPending() {
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

// GetDocsChunk implements ExtNode.
func (n *UnitNode) GetDocsChunk() []ExtDoc {
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
func (n *UnitNode) GetHitsChunk() []ExtHit {
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
func (n *UnitNode) Reset() {
	for _, c := range n.cursors {
		c.reset()
	}
	n.boundary.Reset()
	n.pendingOrder = nil
	n.pendingDocs = make(map[DocID]ExtDoc)
	n.pendingHits = make(map[DocID][]ExtHit)
	n.drainIdx = 0
	n.childEOF = false
}

// HintDocID implements ExtNode.
func (n *UnitNode) HintDocID(min DocID) {
	for _, c := range n.cursors {
		c.hint(min)
	}
}

// GetQwords implements ExtNode.
func (n *UnitNode) GetQwords(reg *Registry) int {
	max := 0
	for _, c := range n.children {
		if m := c.GetQwords(reg); m > max {
			max = m
		}
	}
	return max
}

// SetQwordsIDF implements ExtNode.
func (n *UnitNode) SetQwordsIDF(reg *Registry) {
	for _, c := range n.children {
		c.SetQwordsIDF(reg)
	}
}

// GotHitless implements ExtNode: UNIT always needs real positions.
func (n *UnitNode) GotHitless() bool { return false }

// DebugWordID implements ExtNode.
func (n *UnitNode) DebugWordID() uint64 {
	if len(n.children) == 0 {
		return 0
	}
	return n.children[0].DebugWordID()
}
