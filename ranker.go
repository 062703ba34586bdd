package neo

// ═══════════════════════════════════════════════════════════════════════════════
// L3: RANKER DRIVER + SIMPLE VARIANTS (spec.md §4.3)
// ═══════════════════════════════════════════════════════════════════════════════
// A Ranker consumes one document's worth of hits (already delivered by the
// L2 root node in the doc/hits chunk pairing) and produces a single weight.
// RankerKind selects among the classic family; the driver loop itself
// (DrainRanked) is shared - same shape as the teacher's single Search
// function fanning out over NextPhrase/NextCover/RankBM25/RankProximity, just
// generalized so adding a ranker variant means adding a Ranker
// implementation instead of another branch in the driver.
// ═══════════════════════════════════════════════════════════════════════════════

// RankerKind enumerates the ranker families spec.md §4.3 names.
type RankerKind int

const (
	RankNone RankerKind = iota
	RankWeightSum
	RankBM25
	RankProximity
	RankWordCount
	RankFieldMask
	RankSPH04
	RankExpr
	RankExport
	RankPlugin
)

// Ranker scores one document given its matched hits.
type Ranker interface {
	BeginDoc(doc ExtDoc)
	UpdateHit(hit ExtHit)
	Finalize() uint32
}

// RankedMatch pairs a document with its final ranker weight.
type RankedMatch struct {
	Doc    ExtDoc
	Weight uint32
}

// FieldWeights maps field index to an integer weight, used by WeightSum,
// SPH04, and the factor pool.
type FieldWeights []int

func (w FieldWeights) of(field uint32) int {
	if int(field) < len(w) {
		return w[field]
	}
	return 1
}

// DrainRanked runs root to exhaustion, scoring each document with ranker and
// returning every match. Callers wanting streaming behavior (sorter feed)
// should instead call root.GetDocsChunk/GetHitsChunk directly and score
// inline; this helper exists for callers (tests, small result sets) that
// want the whole ranked set at once.
func DrainRanked(root ExtNode, ranker Ranker) []RankedMatch {
	var out []RankedMatch
	for {
		docs := root.GetDocsChunk()
		if docs == nil {
			break
		}
		hits := root.GetHitsChunk()
		byDoc := make(map[DocID][]ExtHit, len(docs))
		for _, h := range hits {
			byDoc[h.DocID] = append(byDoc[h.DocID], h)
		}
		for _, doc := range docs {
			ranker.BeginDoc(doc)
			for _, h := range byDoc[doc.DocID] {
				ranker.UpdateHit(h)
			}
			out = append(out, RankedMatch{Doc: doc, Weight: ranker.Finalize()})
		}
	}
	return out
}

// NoneRanker assigns every document weight 1, for unranked/"match only"
// queries.
type NoneRanker struct{}

func (NoneRanker) BeginDoc(ExtDoc)      {}
func (NoneRanker) UpdateHit(ExtHit)     {}
func (NoneRanker) Finalize() uint32     { return 1 }

// WeightSumRanker sums field weights for every distinct field a hit touched.
type WeightSumRanker struct {
	weights FieldWeights
	seen    map[uint32]bool
	sum     int
}

// NewWeightSumRanker builds a WeightSumRanker over the given per-field
// weights.
func NewWeightSumRanker(weights FieldWeights) *WeightSumRanker {
	return &WeightSumRanker{weights: weights, seen: make(map[uint32]bool)}
}

func (r *WeightSumRanker) BeginDoc(ExtDoc) {
	r.sum = 0
	for k := range r.seen {
		delete(r.seen, k)
	}
}

func (r *WeightSumRanker) UpdateHit(h ExtHit) {
	f := h.Pos.Field()
	if !r.seen[f] {
		r.seen[f] = true
		r.sum += r.weights.of(f)
	}
}

func (r *WeightSumRanker) Finalize() uint32 { return uint32(r.sum) }

// WordCountRanker counts the number of distinct query positions matched.
type WordCountRanker struct {
	seen map[int]bool
}

// NewWordCountRanker builds a fresh WordCountRanker.
func NewWordCountRanker() *WordCountRanker { return &WordCountRanker{seen: make(map[int]bool)} }

func (r *WordCountRanker) BeginDoc(ExtDoc) {
	for k := range r.seen {
		delete(r.seen, k)
	}
}

func (r *WordCountRanker) UpdateHit(h ExtHit) { r.seen[h.QueryPos] = true }

func (r *WordCountRanker) Finalize() uint32 { return uint32(len(r.seen)) }

// FieldMaskRanker returns the bitmask of fields a document matched in,
// useful for debugging and as a sort key rather than a relevance score.
type FieldMaskRanker struct {
	mask uint64
}

func (r *FieldMaskRanker) BeginDoc(doc ExtDoc) { r.mask = doc.FieldMask }
func (r *FieldMaskRanker) UpdateHit(ExtHit)    {}
func (r *FieldMaskRanker) Finalize() uint32    { return uint32(r.mask) }

// BM25Ranker implements the Okapi BM25 family using per-term IDF resolved by
// Registry.AssignIDF and per-document term frequency counted from hits.
type BM25Ranker struct {
	reg     *Registry
	k1, b   float64
	avgdl   float64
	doclen  func(DocID) int

	tf  map[int]int
	doc ExtDoc
}

// NewBM25Ranker builds a BM25 ranker. doclen supplies a document's total
// indexed token count (AttrTokenCnt), needed for the length-normalization
// term; avgdl is the corpus average.
func NewBM25Ranker(reg *Registry, k1, b, avgdl float64, doclen func(DocID) int) *BM25Ranker {
	return &BM25Ranker{reg: reg, k1: k1, b: b, avgdl: avgdl, doclen: doclen, tf: make(map[int]int)}
}

func (r *BM25Ranker) BeginDoc(doc ExtDoc) {
	r.doc = doc
	for k := range r.tf {
		delete(r.tf, k)
	}
}

func (r *BM25Ranker) UpdateHit(h ExtHit) { r.tf[h.QueryPos]++ }

func (r *BM25Ranker) Finalize() uint32 {
	dl := 1.0
	if r.doclen != nil {
		if n := r.doclen(r.doc.DocID); n > 0 {
			dl = float64(n)
		}
	}
	avgdl := r.avgdl
	if avgdl <= 0 {
		avgdl = 1
	}
	norm := 1 - r.b + r.b*dl/avgdl
	var score float64
	for _, e := range r.reg.Entries() {
		tf := float64(r.tf[e.QueryPos])
		if tf == 0 {
			continue
		}
		score += e.IDF * (tf * (r.k1 + 1)) / (tf + r.k1*norm)
	}
	return uint32(score * SphBM25Scale)
}

// SPH04Ranker combines BM25 with a proximity bonus, the classic sphinx04
// blend (spec.md §4.3).
type SPH04Ranker struct {
	bm25 *BM25Ranker
	prox *ProximityRanker
}

// NewSPH04Ranker builds the combined ranker.
func NewSPH04Ranker(bm25 *BM25Ranker, prox *ProximityRanker) *SPH04Ranker {
	return &SPH04Ranker{bm25: bm25, prox: prox}
}

func (r *SPH04Ranker) BeginDoc(doc ExtDoc) {
	r.bm25.BeginDoc(doc)
	r.prox.BeginDoc(doc)
}

func (r *SPH04Ranker) UpdateHit(h ExtHit) {
	r.bm25.UpdateHit(h)
	r.prox.UpdateHit(h)
}

func (r *SPH04Ranker) Finalize() uint32 {
	bm := r.bm25.Finalize()
	px := r.prox.Finalize()
	return bm*SphBM25Scale + px
}

// PluginRanker delegates scoring to a user-supplied function, the Go
// analogue of the teacher's plugin-ranker escape hatch.
type PluginRanker struct {
	Score func(doc ExtDoc, hits []ExtHit) uint32

	doc  ExtDoc
	hits []ExtHit
}

func (r *PluginRanker) BeginDoc(doc ExtDoc) { r.doc, r.hits = doc, r.hits[:0] }
func (r *PluginRanker) UpdateHit(h ExtHit)  { r.hits = append(r.hits, h) }
func (r *PluginRanker) Finalize() uint32    { return r.Score(r.doc, r.hits) }

// ExportRanker accumulates factors instead of collapsing them to a single
// weight, for SELECT-time factor export (the BM25F/expr debug path).
type ExportRanker struct {
	Pool *FactorPool

	doc ExtDoc
}

// NewExportRanker builds an ExportRanker backed by pool.
func NewExportRanker(pool *FactorPool) *ExportRanker { return &ExportRanker{Pool: pool} }

func (r *ExportRanker) BeginDoc(doc ExtDoc) { r.doc = doc; r.Pool.BeginDoc(doc) }
func (r *ExportRanker) UpdateHit(h ExtHit)  { r.Pool.UpdateHit(h) }
func (r *ExportRanker) Finalize() uint32    { return uint32(r.Pool.Finalize(r.doc).BM25A * SphBM25Scale) }
