package neo

import "math"

// ═══════════════════════════════════════════════════════════════════════════════
// L3: FACTOR POOL + PROXIMITY/EXPR RANKING (spec.md §4.3's factor pool)
// ═══════════════════════════════════════════════════════════════════════════════
// The factor pool accumulates the same per-document signals the teacher's
// ranking (if it ranked at the hit level) would need: LCS (longest run of
// consecutive query positions at consecutive hit positions), LCCS/WLCCS
// (weighted variants), minimum word-to-word gap, and ATC (a distance-
// weighted closeness measure across all hit pairs, computed with a small
// ring buffer instead of an O(n^2) pass). BM25A folds in via the existing
// BM25Ranker maths. Everything here is computed in a single forward sweep
// over a document's hits, mirroring the hit-chunk-at-a-time streaming
// contract the rest of L2 already established.
// ═══════════════════════════════════════════════════════════════════════════════

// Factors holds one document's resolved ranking signals.
type Factors struct {
	LCS      int
	LCCS     int
	WLCCS    float64
	MinGap   int
	ATC      float64
	BM25A    float64
	WordCnt  int
}

// FactorPool accumulates Factors for one document at a time across a hit
// sweep, then a caller (ExprRanker, ExportRanker) reduces them to a score.
type FactorPool struct {
	reg   *Registry
	bm25  *BM25Ranker
	atcK  float64 // ATC distance decay constant, spec default 10

	doc       ExtDoc
	lastQpos  int
	lastPos   Hitpos
	curLCS    int
	bestLCS   int
	minGap    int
	haveGap   bool
	wordSeen  map[int]bool
	atcSum    float64
	ring      []ExtHit // small ring buffer of recent hits for ATC's windowed pass
}

// NewFactorPool builds a factor pool sharing reg/bm25 for the BM25A
// component.
func NewFactorPool(reg *Registry, bm25 *BM25Ranker) *FactorPool {
	return &FactorPool{reg: reg, bm25: bm25, atcK: 10, wordSeen: make(map[int]bool)}
}

// BeginDoc resets all per-document accumulators.
func (p *FactorPool) BeginDoc(doc ExtDoc) {
	p.doc = doc
	p.lastQpos = 0
	p.curLCS = 0
	p.bestLCS = 0
	p.minGap = 0
	p.haveGap = false
	p.atcSum = 0
	p.ring = p.ring[:0]
	for k := range p.wordSeen {
		delete(p.wordSeen, k)
	}
	if p.bm25 != nil {
		p.bm25.BeginDoc(doc)
	}
}

// UpdateHit feeds one hit (in ascending Pos order within a document) into
// every accumulator.
func (p *FactorPool) UpdateHit(h ExtHit) {
	p.wordSeen[h.QueryPos] = true

	// LCS: longest run of consecutive query positions at consecutive hit
	// positions (a "the quick brown" phrase run).
	if p.lastQpos != 0 && h.QueryPos == p.lastQpos+1 && h.Pos.Field() == p.lastPos.Field() &&
		h.Pos.Position() == p.lastPos.Position()+1 {
		p.curLCS++
	} else {
		p.curLCS = 1
	}
	if p.curLCS > p.bestLCS {
		p.bestLCS = p.curLCS
	}

	// Min-gap: smallest position delta between any two hits of different
	// query positions in the same field.
	if p.lastQpos != 0 && h.Pos.Field() == p.lastPos.Field() && h.QueryPos != p.lastQpos {
		gap := int(h.Pos.Position()) - int(p.lastPos.Position())
		if gap < 0 {
			gap = -gap
		}
		if !p.haveGap || gap < p.minGap {
			p.minGap = gap
			p.haveGap = true
		}
	}

	// ATC: sum of exp(-dist/k) over hit pairs within a bounded trailing
	// window, approximating the all-pairs closeness sum without the
	// quadratic blowup of truly considering every pair in the document.
	const atcWindow = 16
	for _, prev := range p.ring {
		if prev.Pos.Field() != h.Pos.Field() || prev.QueryPos == h.QueryPos {
			continue
		}
		d := float64(int(h.Pos.Position()) - int(prev.Pos.Position()))
		if d < 0 {
			d = -d
		}
		p.atcSum += math.Exp(-d / p.atcK)
	}
	p.ring = append(p.ring, h)
	if len(p.ring) > atcWindow {
		p.ring = p.ring[1:]
	}

	p.lastQpos = h.QueryPos
	p.lastPos = h.Pos
	if p.bm25 != nil {
		p.bm25.UpdateHit(h)
	}
}

// Finalize computes WLCCS plus BM25A, returning the full Factors for doc.
// WLCCS here is the sum of IDF over every query word seen in the doc; it does
// not check that those words form a contiguous run. LCCS is reported as the
// same value as LCS.
func (p *FactorPool) Finalize(doc ExtDoc) Factors {
	wlccs := 0.0
	if p.reg != nil {
		for _, e := range p.reg.Entries() {
			if p.wordSeen[e.QueryPos] {
				wlccs += e.IDF
			}
		}
	}
	bm25a := 0.0
	if p.bm25 != nil {
		bm25a = float64(p.bm25.Finalize()) / SphBM25Scale
	}
	gap := p.minGap
	if !p.haveGap {
		gap = -1
	}
	return Factors{
		LCS:     p.bestLCS,
		LCCS:    p.bestLCS,
		WLCCS:   wlccs,
		MinGap:  gap,
		ATC:     p.atcSum,
		BM25A:   bm25a,
		WordCnt: len(p.wordSeen),
	}
}

// ProximityRanker scores on word closeness: LCS*1000 divided by (the
// smallest gap between distinct query-term hits + 1), so adjacent terms
// outrank distant ones; 0 when no such gap was seen.
type ProximityRanker struct {
	pool *FactorPool
}

// NewProximityRanker builds a ProximityRanker over a private factor pool
// (no BM25A component needed).
func NewProximityRanker() *ProximityRanker {
	return &ProximityRanker{pool: NewFactorPool(nil, nil)}
}

func (r *ProximityRanker) BeginDoc(doc ExtDoc) { r.pool.BeginDoc(doc) }
func (r *ProximityRanker) UpdateHit(h ExtHit)  { r.pool.UpdateHit(h) }

func (r *ProximityRanker) Finalize() uint32 {
	f := r.pool.Finalize(r.pool.doc)
	if f.MinGap < 0 {
		return 0
	}
	if f.MinGap == 0 {
		return uint32(f.LCS * 1000)
	}
	return uint32(f.LCS*1000) / uint32(f.MinGap+1)
}

// ExprRanker scores via an arbitrary Go closure over Factors, the analogue
// of the teacher's expression-ranker hook (SPH_RANK_EXPR): a caller plugs in
// a parsed/compiled formula instead of the engine hardcoding one.
type ExprRanker struct {
	pool *FactorPool
	expr func(Factors) float64
}

// NewExprRanker builds an ExprRanker evaluating expr over the factors
// accumulated by pool for each document.
func NewExprRanker(pool *FactorPool, expr func(Factors) float64) *ExprRanker {
	return &ExprRanker{pool: pool, expr: expr}
}

func (r *ExprRanker) BeginDoc(doc ExtDoc) { r.pool.BeginDoc(doc) }
func (r *ExprRanker) UpdateHit(h ExtHit)  { r.pool.UpdateHit(h) }

func (r *ExprRanker) Finalize() uint32 {
	f := r.pool.Finalize(r.pool.doc)
	return uint32(r.expr(f))
}
