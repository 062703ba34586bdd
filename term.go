package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: TERM LEAF (spec.md §4.2.1)
// ═══════════════════════════════════════════════════════════════════════════════
// Emits docs/hits directly from a Qword, applying the inherited field-mask
// filter. Two variants share this file: the hitless leaf synthesizes one hit
// per matched field instead of touching the hitlist, and the payload
// ("expanded") leaf pre-reads its entire doc/hit stream into a cache at
// construction time - grounded on the teacher's eager roaring-bitmap
// population in indexToken/Index (index.go), just replayed from a cache
// instead of a live map.
// ═══════════════════════════════════════════════════════════════════════════════

// TermNode is the term leaf ExtNode.
type TermNode struct {
	ctx     *SetupContext
	qword   Qword
	keyword Keyword
	entry   *QwordEntry

	curDocs []ExtDoc
	curHits []ExtHit
	atEOF   bool

	// cache backs the payload ("expanded") variant: the entire merged
	// doc/hit set is read once at construction and streamed from here.
	cache      []ExtDoc
	cacheHits  map[DocID][]ExtHit
	cachePos   int
	usesCache  bool
}

// NewTermNode builds a term leaf over qword, applying ctx.Limit's field mask.
func NewTermNode(ctx *SetupContext, qword Qword, kw Keyword) *TermNode {
	n := &TermNode{ctx: ctx, qword: qword, keyword: kw}
	if kw.Expanded {
		n.usesCache = true
		n.populateCache()
	}
	return n
}

// populateCache eagerly drains the qword once, grounded on the teacher's
// eager bitmap population (index.go's Index/indexToken), for the "expanded"
// payload variant (spec.md §4.2.1).
func (n *TermNode) populateCache() {
	n.cacheHits = make(map[DocID][]ExtHit)
	n.qword.Reset()
	for {
		doc := n.qword.NextDoc()
		if doc.DocID == 0 || doc.DocID == DocidMax {
			break
		}
		if !n.fieldMaskMatches(doc.FieldMask) {
			continue
		}
		n.cache = append(n.cache, doc)
		n.qword.SeekHitlist(doc)
		var hits []ExtHit
		for {
			h := n.qword.NextHit()
			if h == EmptyHit {
				break
			}
			hits = append(hits, ExtHit{DocID: doc.DocID, Pos: h, QueryPos: n.keyword.AtomPos, Weight: 1})
		}
		n.cacheHits[doc.DocID] = hits
	}
	sort.Slice(n.cache, func(i, j int) bool { return n.cache[i].DocID < n.cache[j].DocID })
	n.qword.Reset()
}

// fieldMaskMatches applies the field-limit filter: a single AND when the
// queried field set fits the lower 32 bits, matching spec.md §4.2.1's fast
// path, and collectHitMask otherwise. Both paths compute the same 64-bit AND.
func (n *TermNode) fieldMaskMatches(docMask uint64) bool {
	if n.ctx.Limit.FieldMask&0xFFFFFFFF == n.ctx.Limit.FieldMask {
		return docMask&n.ctx.Limit.FieldMask != 0
	}
	return collectHitMask(docMask, n.ctx.Limit.FieldMask) != 0
}

// collectHitMask returns the fields docMask and limitMask share, for
// wide-field (>32 fields) limits. It is a plain 64-bit AND, so fields above
// 63 cannot be represented.
func collectHitMask(docMask, limitMask uint64) uint64 {
	return docMask & limitMask
}

// GetDocsChunk implements ExtNode.
func (n *TermNode) GetDocsChunk() []ExtDoc {
	if n.usesCache {
		return n.cachedDocsChunk()
	}
	if n.atEOF {
		return nil
	}
	chunk := newDocsChunk()
	for !chunk.full() {
		if n.ctx.exceeded(costDoc) {
			n.atEOF = true
			break
		}
		doc := n.qword.NextDoc()
		if doc.DocID == 0 || doc.DocID == DocidMax {
			n.atEOF = true
			break
		}
		if !n.fieldMaskMatches(doc.FieldMask) {
			continue
		}
		if n.qword.Hitless() {
			doc.MatchHits = uint32(popcount64(doc.FieldMask))
		}
		chunk.docs = append(chunk.docs, doc)
	}
	n.curDocs = chunk.docs
	if len(chunk.docs) == 0 {
		return nil
	}
	return chunk.docs
}

func (n *TermNode) cachedDocsChunk() []ExtDoc {
	if n.cachePos >= len(n.cache) {
		return nil
	}
	end := n.cachePos + MaxDocsPerChunk
	if end > len(n.cache) {
		end = len(n.cache)
	}
	out := n.cache[n.cachePos:end]
	n.cachePos = end
	n.curDocs = out
	return out
}

// GetHitsChunk implements ExtNode. Hitless leaves synthesize one hit per
// matched field from FieldMask rather than touching the hitlist.
func (n *TermNode) GetHitsChunk() []ExtHit {
	if len(n.curDocs) == 0 {
		return nil
	}
	if n.usesCache {
		return n.cachedHitsChunk()
	}
	if n.qword.Hitless() {
		return n.hitlessHitsChunk()
	}
	chunk := newHitsChunk()
	for _, doc := range n.curDocs {
		n.qword.SeekHitlist(doc)
		for {
			if n.ctx.exceeded(costHit) {
				break
			}
			h := n.qword.NextHit()
			if h == EmptyHit {
				break
			}
			chunk.hits = append(chunk.hits, ExtHit{
				DocID:    doc.DocID,
				Pos:      h,
				QueryPos: n.keyword.AtomPos,
				Weight:   1,
			})
		}
	}
	n.curDocs = nil
	if len(chunk.hits) == 0 {
		return nil
	}
	return chunk.hits
}

func (n *TermNode) cachedHitsChunk() []ExtHit {
	var out []ExtHit
	for _, doc := range n.curDocs {
		out = append(out, n.cacheHits[doc.DocID]...)
	}
	n.curDocs = nil
	return out
}

func (n *TermNode) hitlessHitsChunk() []ExtHit {
	var out []ExtHit
	for _, doc := range n.curDocs {
		mask := doc.FieldMask
		for field := uint32(0); mask != 0; field++ {
			if mask&1 != 0 {
				out = append(out, ExtHit{
					DocID:    doc.DocID,
					Pos:      packHitpos(field, 0, false),
					QueryPos: n.keyword.AtomPos,
					Weight:   1,
				})
			}
			mask >>= 1
		}
	}
	n.curDocs = nil
	return out
}

// Reset implements ExtNode.
func (n *TermNode) Reset() {
	n.atEOF = false
	n.curDocs = nil
	n.curHits = nil
	n.cachePos = 0
	if !n.usesCache {
		n.qword.Reset()
	}
}

// HintDocID implements ExtNode.
func (n *TermNode) HintDocID(min DocID) {
	if n.usesCache {
		lo, hi := 0, len(n.cache)
		for lo < hi {
			mid := (lo + hi) / 2
			if n.cache[mid].DocID < min {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		n.cachePos = lo
		return
	}
	n.qword.HintDocID(min)
}

// GetQwords implements ExtNode.
func (n *TermNode) GetQwords(reg *Registry) int {
	n.entry = reg.Get(n.keyword.Word, n.qword, n.keyword)
	return reg.MaxAtomPos()
}

// SetQwordsIDF implements ExtNode. Idempotent: see registry.go's AssignIDF.
func (n *TermNode) SetQwordsIDF(reg *Registry) {
	if e, ok := reg.byWord[n.keyword.Word]; ok {
		n.entry = e
	}
}

// GotHitless implements ExtNode.
func (n *TermNode) GotHitless() bool { return n.qword.Hitless() }

// DebugWordID implements ExtNode.
func (n *TermNode) DebugWordID() uint64 { return n.qword.DebugWordID() }

func popcount64(x uint64) int {
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}
