package neo

// ═══════════════════════════════════════════════════════════════════════════════
// PROTOCOL CONSTANTS
// ═══════════════════════════════════════════════════════════════════════════════
// These numbers have compatibility impact: every ExtNode implementation agrees on
// chunk sizes and sentinel conventions. Changing MaxDocsPerChunk/MaxHitsPerChunk
// is a protocol break between node implementations, exactly as spec.md §6 warns.
// ═══════════════════════════════════════════════════════════════════════════════
const (
	// MaxDocsPerChunk bounds a single GetDocsChunk call (spec MAX_DOCS).
	MaxDocsPerChunk = 512

	// MaxHitsPerChunk bounds a single GetHitsChunk call (spec MAX_HITS). It is
	// also the ring size quorum uses when re-sorting hits across children.
	MaxHitsPerChunk = 512

	// DocInfoIndexFreq is the MinMax attribute block stripe granularity.
	DocInfoIndexFreq = 128

	// MaxSortFields is the maximum number of (keypart, locator, desc) triples a
	// sorter comparator accepts before the implicit "id ASC" tie-breaker.
	MaxSortFields = 5
)

// BM25Defaults holds the standard BM25/BM25A tuning constants, mirroring the
// teacher's DefaultBM25Parameters (index.go) but promoted to package constants
// since BM25A/BM25F here are computed inside the expression ranker's factor
// pool rather than a single InvertedIndex method.
const (
	BM25DefaultK1 = 1.2
	BM25DefaultB  = 0.75

	// SphBM25Scale rescales BM25 into the same integer weight space as the
	// other rankers so "+ bm25(7)*1000" style composition (spec §8 scenario 1)
	// is directly comparable to LCS-derived weight contributions.
	SphBM25Scale = 1000
)

// FNV64Seed is the offset basis for the FNV-1a recurrence used by every hash
// in this package (JSON grouper keys, multi-attr grouper keys, factor-pool
// slot selection). See fnv.go.
const FNV64Seed uint64 = 0xCBF29CE484222325

// AttrType is a persisted index-schema attribute type code. Values must never
// be reassigned once shipped (spec §6).
type AttrType uint32

const (
	AttrInteger   AttrType = 1
	AttrTimestamp AttrType = 2
	AttrBool      AttrType = 4
	AttrFloat     AttrType = 5
	AttrBigint    AttrType = 6
	AttrString    AttrType = 7
	AttrPoly2D    AttrType = 9
	AttrStringPtr AttrType = 10
	AttrTokenCnt  AttrType = 11
	AttrJSON      AttrType = 12
	AttrUint32Set AttrType = 0x40000001
	AttrInt64Set  AttrType = 0x40000002
)

// DefaultQueueBatchSize is the UPDATE/DELETE queue flush batch size, adopted
// from the original C++ source's queue_settings.cpp default (see SPEC_FULL.md
// §4 "supplemented features").
const DefaultQueueBatchSize = 4096
