package neo

// ═══════════════════════════════════════════════════════════════════════════════
// L1: QWORD CONTRACT (spec.md §4.1, §6) — external collaborator
// ═══════════════════════════════════════════════════════════════════════════════
// A Qword is a cursor over one keyword's postings: a coupled doclist/hitlist
// pair plus a skiplist for seeks. The query core only ever consumes this
// interface; on-disk layout, compression, and dictionary lookup are someone
// else's problem (spec.md §1). This repo ships no concrete implementation
// of the interface.
// ═══════════════════════════════════════════════════════════════════════════════

// Qword is the per-keyword posting-list cursor every term leaf wraps.
type Qword interface {
	// NextDoc returns the next document, or a zero DocID at end of stream.
	NextDoc() ExtDoc

	// SeekHitlist positions the hitlist cursor using the encoding documented
	// on ExtDoc.Inlined: an inlined one-shot hit is delivered without any
	// further I/O.
	SeekHitlist(doc ExtDoc)

	// NextHit returns the next hit in the current document, or EmptyHit at
	// document end.
	NextHit() Hitpos

	// HintDocID uses the skiplist to jump forward, skipping every block whose
	// upper bound is still below min; it never overshoots the block
	// containing min.
	HintDocID(min DocID)

	// Reset returns the cursor to the start of the stream.
	Reset()

	// Docs is this term's total document frequency (for IDF).
	Docs() int

	// Hits is this term's total hit count across all documents.
	Hits() int

	// Hitless reports whether this Qword can synthesize hits from the
	// field-mask alone (no hitlist I/O), spec.md §4.2.1's hitless variant.
	Hitless() bool

	// DebugWordID returns a stable identifier for dump/debug purposes.
	DebugWordID() uint64
}

// QwordSetup is the dictionary/Qword factory contract (spec.md §6): given a
// keyword, it spawns and wires a Qword, filling docs/hits/skiplist/IDF.
type QwordSetup interface {
	Spawn(keyword string) (Qword, error)
	Setup(q Qword) bool
}
