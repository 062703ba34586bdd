package neo

// ═══════════════════════════════════════════════════════════════════════════════
// FNV-64: hashing for JSON and multi-attribute group keys
// ═══════════════════════════════════════════════════════════════════════════════
// Grounded on original_source/neo/io/fnv64.h/.cpp (sphFNV64/sphFNV64cont): the
// distillation folded this into inline detail, but the JSON grouper and the
// multi-attr grouper (groupsorter.go) both need to agree on the exact
// recurrence to compute the same key for the same input, so it is promoted to
// a first-class exported helper here (SPEC_FULL.md §4).
// ═══════════════════════════════════════════════════════════════════════════════

// FNV64Cont continues an FNV-1a hash from a previous accumulator value,
// mirroring sphFNV64cont's "hash more bytes into an existing hash" role used
// when folding several attribute values into one multi-attr group key.
func FNV64Cont(data []byte, prev uint64) uint64 {
	hval := prev
	for _, b := range data {
		hval ^= uint64(b)
		hval += (hval << 1) + (hval << 4) + (hval << 5) + (hval << 7) + (hval << 8) + (hval << 40)
	}
	return hval
}

// FNV64 hashes data starting from the standard seed.
func FNV64(data []byte) uint64 {
	return FNV64Cont(data, FNV64Seed)
}

// FNV64String is a convenience wrapper for string-keyed groupers (STRING
// grouper, JSON string nodes).
func FNV64String(s string) uint64 {
	return FNV64Cont([]byte(s), FNV64Seed)
}
