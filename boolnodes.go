package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: TWO-ARGUMENT OPERATORS (spec.md §4.2.3)
// ═══════════════════════════════════════════════════════════════════════════════
// AND (intersection), OR (union), MAYBE (left-join), AND-NOT (set difference).
// Each wraps a docCursor per child so that a classic two-pointer merge can
// carry leftover elements across GetDocsChunk calls without re-deriving the
// whole stream - the streaming analogue of the teacher's roaring.And/Or/
// AndNot (query.go's Execute), just operating chunk-by-chunk over ExtNode
// streams instead of whole bitmaps in one shot.
// ═══════════════════════════════════════════════════════════════════════════════

// docCursor buffers one child's current docs chunk plus a read index, so a
// merge can carry over unconsumed elements between GetDocsChunk calls.
type docCursor struct {
	child ExtNode
	buf   []ExtDoc
	pos   int
	eof   bool
}

func newDocCursor(child ExtNode) *docCursor { return &docCursor{child: child} }

func (c *docCursor) peek() (ExtDoc, bool) {
	for c.pos >= len(c.buf) {
		if c.eof {
			return ExtDoc{}, false
		}
		chunk := c.child.GetDocsChunk()
		if chunk == nil {
			c.eof = true
			return ExtDoc{}, false
		}
		c.buf = chunk
		c.pos = 0
	}
	return c.buf[c.pos], true
}

func (c *docCursor) advance() { c.pos++ }

func (c *docCursor) hint(min DocID) {
	c.child.HintDocID(min)
	// Drop any buffered docs now stale relative to the hint.
	for c.pos < len(c.buf) && c.buf[c.pos].DocID < min {
		c.pos++
	}
}

func (c *docCursor) reset() {
	c.child.Reset()
	c.buf = nil
	c.pos = 0
	c.eof = false
}

// twoArgNode is the shared scaffolding for AND/OR/ANDNOT/MAYBE: it merges two
// docCursors doc-id-wise, remembers which child(ren) contributed each output
// doc (for hit merging), and on GetHitsChunk asks each child for the hits
// covering the docs it contributed, merging by (hitpos, querypos).
type twoArgNode struct {
	left, right *docCursor
	mode        twoArgMode

	lastOutputs []mergedDoc // parallel to the last GetDocsChunk's return
	qposReverse bool        // set by N-way spine construction (positional.go)
}

type twoArgMode int

const (
	modeAnd twoArgMode = iota
	modeOr
	modeAndNot
	modeMaybe
)

type mergedDoc struct {
	doc        ExtDoc
	fromLeft   bool
	fromRight  bool
}

func newTwoArgNode(left, right ExtNode, mode twoArgMode) *twoArgNode {
	return &twoArgNode{left: newDocCursor(left), right: newDocCursor(right), mode: mode}
}

func (n *twoArgNode) GetDocsChunk() []ExtDoc {
	chunk := newDocsChunk()
	n.lastOutputs = n.lastOutputs[:0]
	rightExhausted := false

	for !chunk.full() {
		ld, lok := n.left.peek()
		rd, rok := n.right.peek()

		switch n.mode {
		case modeAndNot:
			if !rok {
				rightExhausted = true
			}
			if !lok {
				goto done
			}
			if rightExhausted {
				// Passthrough mode: forward left unchanged (spec.md §4.2.3).
				chunk.docs = append(chunk.docs, ld)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: ld, fromLeft: true})
				n.left.advance()
				continue
			}
			switch {
			case ld.DocID < rd.DocID:
				chunk.docs = append(chunk.docs, ld)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: ld, fromLeft: true})
				n.left.advance()
			case ld.DocID > rd.DocID:
				n.right.advance()
			default:
				n.left.advance()
				n.right.advance()
			}
		case modeAnd:
			if !lok || !rok {
				goto done
			}
			switch {
			case ld.DocID < rd.DocID:
				n.left.advance()
			case ld.DocID > rd.DocID:
				n.right.advance()
			default:
				merged := ld
				merged.FieldMask |= rd.FieldMask
				chunk.docs = append(chunk.docs, merged)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: merged, fromLeft: true, fromRight: true})
				n.left.advance()
				n.right.advance()
			}
		case modeOr:
			if !lok && !rok {
				goto done
			}
			switch {
			case !rok || (lok && ld.DocID < rd.DocID):
				chunk.docs = append(chunk.docs, ld)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: ld, fromLeft: true})
				n.left.advance()
			case !lok || (rok && rd.DocID < ld.DocID):
				chunk.docs = append(chunk.docs, rd)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: rd, fromRight: true})
				n.right.advance()
			default:
				merged := ld
				merged.FieldMask |= rd.FieldMask
				merged.TFIDF += rd.TFIDF
				chunk.docs = append(chunk.docs, merged)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: merged, fromLeft: true, fromRight: true})
				n.left.advance()
				n.right.advance()
			}
		case modeMaybe:
			if !lok {
				goto done
			}
			switch {
			case !rok || ld.DocID < rd.DocID:
				chunk.docs = append(chunk.docs, ld)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: ld, fromLeft: true})
				n.left.advance()
			case rd.DocID < ld.DocID:
				n.right.advance()
			default:
				merged := ld
				merged.FieldMask |= rd.FieldMask
				chunk.docs = append(chunk.docs, merged)
				n.lastOutputs = append(n.lastOutputs, mergedDoc{doc: merged, fromLeft: true, fromRight: true})
				n.left.advance()
				n.right.advance()
			}
		}
	}
done:
	if len(chunk.docs) == 0 {
		return nil
	}
	return chunk.docs
}

// GetHitsChunk merges child hits in (hitpos, querypos) order for the docs
// produced by the last GetDocsChunk call, remapping NodePos to identify
// which child a hit came from. qposReverse (set by the AND-spine builder in
// positional.go) swaps the tie-break direction so a phrase/proximity FSM
// sees hits in query order, per spec.md §4.2.3's qpos-reverse note.
func (n *twoArgNode) GetHitsChunk() []ExtHit {
	needLeft, needRight := false, false
	for _, m := range n.lastOutputs {
		needLeft = needLeft || m.fromLeft
		needRight = needRight || m.fromRight
	}
	var leftHits, rightHits []ExtHit
	if needLeft {
		leftHits = n.left.child.GetHitsChunk()
	}
	if needRight {
		rightHits = n.right.child.GetHitsChunk()
	}
	if leftHits == nil && rightHits == nil {
		return nil
	}
	for i := range leftHits {
		leftHits[i].NodePos = 0
	}
	for i := range rightHits {
		rightHits[i].NodePos = 1
	}
	merged := append(append([]ExtHit{}, leftHits...), rightHits...)
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		if a.Pos != b.Pos {
			return a.Pos.Less(b.Pos)
		}
		if n.qposReverse {
			return a.QueryPos > b.QueryPos
		}
		return a.QueryPos < b.QueryPos
	})
	return merged
}

func (n *twoArgNode) Reset() {
	n.left.reset()
	n.right.reset()
	n.lastOutputs = nil
}

func (n *twoArgNode) HintDocID(min DocID) {
	n.left.hint(min)
	if n.mode != modeAndNot {
		n.right.hint(min)
	}
}

func (n *twoArgNode) GetQwords(reg *Registry) int {
	m := n.left.child.GetQwords(reg)
	if r := n.right.child.GetQwords(reg); r > m {
		m = r
	}
	return m
}

func (n *twoArgNode) SetQwordsIDF(reg *Registry) {
	n.left.child.SetQwordsIDF(reg)
	n.right.child.SetQwordsIDF(reg)
}

func (n *twoArgNode) GotHitless() bool {
	return n.left.child.GotHitless() && n.right.child.GotHitless()
}

func (n *twoArgNode) DebugWordID() uint64 { return n.left.child.DebugWordID() }

// NewAndNode builds an intersection node.
func NewAndNode(left, right ExtNode) ExtNode { return newTwoArgNode(left, right, modeAnd) }

// NewOrNode builds a union node.
func NewOrNode(left, right ExtNode) ExtNode { return newTwoArgNode(left, right, modeOr) }

// NewAndNotNode builds a set-difference node: {left} \ {right}.
func NewAndNotNode(left, right ExtNode) ExtNode { return newTwoArgNode(left, right, modeAndNot) }

// NewMaybeNode builds a left-join node.
func NewMaybeNode(left, right ExtNode) ExtNode { return newTwoArgNode(left, right, modeMaybe) }

// ═══════════════════════════════════════════════════════════════════════════════
// AND-ZONESPAN (spec.md §4.2.3)
// ═══════════════════════════════════════════════════════════════════════════════

// ZonespanNode wraps an AND node and keeps only the merged hits that lie
// inside an instance of one of its zones. It does not check that the hits
// from the two children lie in the same zone instance, and its documents are
// those of the plain AND whether or not any of their hits survive.
type ZonespanNode struct {
	*twoArgNode
	zones   *ZoneEngine
	zoneIDs []int
}

// NewZonespanNode builds an AND-zonespan node over left/right scoped to the
// given zone ids.
func NewZonespanNode(left, right ExtNode, zones *ZoneEngine, zoneIDs []int) *ZonespanNode {
	return &ZonespanNode{twoArgNode: newTwoArgNode(left, right, modeAnd), zones: zones, zoneIDs: zoneIDs}
}

// GetHitsChunk overrides the base AND merge to drop every hit that lies
// outside all of zoneIDs; hits are tested one by one, not in pairs.
func (z *ZonespanNode) GetHitsChunk() []ExtHit {
	merged := z.twoArgNode.GetHitsChunk()
	if merged == nil {
		return nil
	}
	var out []ExtHit
	for _, h := range merged {
		for _, zid := range z.zoneIDs {
			if found, _ := z.zones.IsInZone(zid, h); found {
				out = append(out, h)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
