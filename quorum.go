package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: QUORUM (spec.md §4.2.5)
// ═══════════════════════════════════════════════════════════════════════════════
// "N of M words match." Two degenerate rewrites happen at construction time,
// exactly mirroring the teacher's preference for specializing operators
// rather than carrying a general case through a slow path (query.go's
// QueryBuilder.push folds a trailing AND into AND-NOT the same way):
//
//	threshold >= childCount  -> plain AND
//	threshold == 1           -> plain OR
//
// Everything in between walks every child's current doc cursor each round
// (children counts are small - tens, not thousands - so a linear scan beats
// the bookkeeping of a real heap) and emits a doc once at least `threshold`
// children agree on it.
// ═══════════════════════════════════════════════════════════════════════════════

// QuorumNode implements the general N-of-M case.
type QuorumNode struct {
	children  []ExtNode
	cursors   []*docCursor
	threshold int

	lastMatched [][]int // per output doc, indices of children that matched it
	pendingHits map[DocID][]ExtHit
}

// NewQuorumNode builds a quorum node, or its AND/OR degenerate rewrite when
// threshold falls outside (1, len(children)). threshold is always an
// absolute child count: a percentage threshold must already have been
// resolved by the caller (coordinator.go) before calling this constructor.
func NewQuorumNode(children []ExtNode, threshold int) ExtNode {
	if threshold >= len(children) {
		return andAll(children)
	}
	if threshold <= 1 {
		return orAll(children)
	}
	n := &QuorumNode{children: children, threshold: threshold}
	n.cursors = make([]*docCursor, len(children))
	for i, c := range children {
		n.cursors[i] = newDocCursor(c)
	}
	n.pendingHits = make(map[DocID][]ExtHit)
	return n
}

func andAll(children []ExtNode) ExtNode {
	acc := children[0]
	for _, c := range children[1:] {
		acc = NewAndNode(acc, c)
	}
	return acc
}

func orAll(children []ExtNode) ExtNode {
	acc := children[0]
	for _, c := range children[1:] {
		acc = NewOrNode(acc, c)
	}
	return acc
}

// GetDocsChunk implements ExtNode.
func (n *QuorumNode) GetDocsChunk() []ExtDoc {
	chunk := newDocsChunk()
	n.lastMatched = n.lastMatched[:0]
	for k := range n.pendingHits {
		delete(n.pendingHits, k)
	}

	for !chunk.full() {
		minID := DocidMax
		any := false
		for _, c := range n.cursors {
			if d, ok := c.peek(); ok {
				any = true
				if d.DocID < minID {
					minID = d.DocID
				}
			}
		}
		if !any {
			break
		}
		var matched []int
		var merged ExtDoc
		merged.DocID = minID
		for i, c := range n.cursors {
			d, ok := c.peek()
			if ok && d.DocID == minID {
				matched = append(matched, i)
				merged.FieldMask |= d.FieldMask
				c.advance()
			}
		}
		if len(matched) >= n.threshold {
			chunk.docs = append(chunk.docs, merged)
			n.lastMatched = append(n.lastMatched, matched)
			n.pendingHits[minID] = n.collectHits(minID, matched)
		}
	}
	if len(chunk.docs) == 0 {
		return nil
	}
	return chunk.docs
}

func (n *QuorumNode) collectHits(doc DocID, matched []int) []ExtHit {
	var out []ExtHit
	for _, i := range matched {
		for _, h := range n.children[i].GetHitsChunk() {
			if h.DocID == doc {
				out = append(out, h)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos.Less(out[j].Pos) })
	return out
}

// GetHitsChunk implements ExtNode.
func (n *QuorumNode) GetHitsChunk() []ExtHit {
	var out []ExtHit
	for id, hits := range n.pendingHits {
		out = append(out, hits...)
		delete(n.pendingHits, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Reset implements ExtNode.
func (n *QuorumNode) Reset() {
	for _, c := range n.cursors {
		c.reset()
	}
	n.lastMatched = nil
	n.pendingHits = make(map[DocID][]ExtHit)
}

// HintDocID implements ExtNode.
func (n *QuorumNode) HintDocID(min DocID) {
	for _, c := range n.cursors {
		c.hint(min)
	}
}

// GetQwords implements ExtNode.
func (n *QuorumNode) GetQwords(reg *Registry) int {
	max := 0
	for _, c := range n.children {
		if m := c.GetQwords(reg); m > max {
			max = m
		}
	}
	return max
}

// SetQwordsIDF implements ExtNode.
func (n *QuorumNode) SetQwordsIDF(reg *Registry) {
	for _, c := range n.children {
		c.SetQwordsIDF(reg)
	}
}

// GotHitless implements ExtNode.
func (n *QuorumNode) GotHitless() bool {
	for _, c := range n.children {
		if !c.GotHitless() {
			return false
		}
	}
	return true
}

// DebugWordID implements ExtNode.
func (n *QuorumNode) DebugWordID() uint64 {
	if len(n.children) == 0 {
		return 0
	}
	return n.children[0].DebugWordID()
}
