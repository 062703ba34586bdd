package neo

// ═══════════════════════════════════════════════════════════════════════════════
// L2: CONDITIONAL FILTER (spec.md §4.2.2)
// ═══════════════════════════════════════════════════════════════════════════════
// A thin wrapper applying a hit predicate - field-limit(pos<=k), field-start,
// field-end, field-start-end, or zone(hit in {zone-ids}) - while preserving
// the streaming contract across chunk boundaries via a three-phase state
// machine: COPY_FILTERED (draining buffered accepted hits), COPY_TRAILING
// (the raw chunk's last doc spans into hits not yet pulled), COPY_DONE.
// ═══════════════════════════════════════════════════════════════════════════════

// HitPredicateKind enumerates the filter predicates spec.md §4.2.2 names.
type HitPredicateKind int

const (
	PredicateFieldLimit HitPredicateKind = iota
	PredicateFieldStart
	PredicateFieldEnd
	PredicateFieldStartEnd
	PredicateZone
)

// HitPredicate is a concrete filter configuration.
type HitPredicate struct {
	Kind    HitPredicateKind
	MaxPos  uint32 // for PredicateFieldLimit
	ZoneIDs []int  // for PredicateZone
	Zones   *ZoneEngine
}

func (p HitPredicate) accepts(h ExtHit) bool {
	switch p.Kind {
	case PredicateFieldLimit:
		return h.Pos.Position() <= p.MaxPos
	case PredicateFieldStart:
		return h.Pos.Position() == 1
	case PredicateFieldEnd:
		return h.Pos.FieldEnd()
	case PredicateFieldStartEnd:
		return h.Pos.Position() == 1 || h.Pos.FieldEnd()
	case PredicateZone:
		for _, z := range p.ZoneIDs {
			if found, _ := p.Zones.IsInZone(z, h); found {
				return true
			}
		}
		return false
	default:
		return true
	}
}

type filterPhase int

const (
	phaseFiltered filterPhase = iota
	phaseTrailing
	phaseDone
)

// FilterNode wraps a child ExtNode with a HitPredicate.
type FilterNode struct {
	child     ExtNode
	predicate HitPredicate

	phase   filterPhase
	buf     []ExtHit // accepted hits not yet delivered
	curDocs []ExtDoc
}

// NewFilterNode wraps child with predicate.
func NewFilterNode(child ExtNode, predicate HitPredicate) *FilterNode {
	return &FilterNode{child: child, predicate: predicate}
}

// GetDocsChunk implements ExtNode: docs pass through unfiltered (the filter
// only ever rejects *hits*, same as the spec's "rejected/accepted hits"
// framing - a document with zero accepted hits still legitimately matched if
// the child matched it purely on other criteria, e.g. hitless leaves).
func (n *FilterNode) GetDocsChunk() []ExtDoc {
	docs := n.child.GetDocsChunk()
	n.curDocs = docs
	n.phase = phaseFiltered
	return docs
}

// GetHitsChunk implements ExtNode's three-phase COPY_FILTERED / COPY_TRAILING
// / COPY_DONE contract.
func (n *FilterNode) GetHitsChunk() []ExtHit {
	var out []ExtHit
	for {
		switch n.phase {
		case phaseFiltered:
			if len(n.buf) > 0 {
				out = append(out, n.buf...)
				n.buf = nil
			}
			raw := n.child.GetHitsChunk()
			if raw == nil {
				n.phase = phaseDone
				if len(out) == 0 {
					return nil
				}
				return out
			}
			for _, h := range raw {
				if n.predicate.accepts(h) {
					out = append(out, h)
				}
			}
			n.phase = phaseTrailing
		case phaseTrailing:
			// The previous pull may not have exhausted this docs chunk's
			// hits yet; loop back to pull again until the child returns nil.
			n.phase = phaseFiltered
			if len(out) > 0 {
				return out
			}
		case phaseDone:
			return nil
		}
	}
}

// Reset implements ExtNode.
func (n *FilterNode) Reset() {
	n.child.Reset()
	n.phase = phaseFiltered
	n.buf = nil
	n.curDocs = nil
}

// HintDocID implements ExtNode.
func (n *FilterNode) HintDocID(min DocID) { n.child.HintDocID(min) }

// GetQwords implements ExtNode.
func (n *FilterNode) GetQwords(reg *Registry) int { return n.child.GetQwords(reg) }

// SetQwordsIDF implements ExtNode.
func (n *FilterNode) SetQwordsIDF(reg *Registry) { n.child.SetQwordsIDF(reg) }

// GotHitless implements ExtNode.
func (n *FilterNode) GotHitless() bool { return n.child.GotHitless() }

// DebugWordID implements ExtNode.
func (n *FilterNode) DebugWordID() uint64 { return n.child.DebugWordID() }
