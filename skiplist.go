package neo

import (
	"errors"
	"math"
	"math/rand"
)

// ═══════════════════════════════════════════════════════════════════════════════
// POSTING SKIP LIST (spec.md §4.1's hint_docid / seek_hitlist backing store)
// ═══════════════════════════════════════════════════════════════════════════════
// A probabilistic skip list keyed on (DocID, Hitpos) pairs, giving O(log n)
// expected seeks (SeekGE), the kind of lookup HintDocID and SeekHitlist need
// to avoid a linear scan; no Qword in this repository is built on it. Same "express
// lane" tower shape and coin-flip height generation as a classic skip list;
// the key type and sentinels are domain-specific (DocID/Hitpos, not generic
// floats) so comparisons never need a cast.
// ═══════════════════════════════════════════════════════════════════════════════

const maxHeight = 32

var (
	ErrKeyNotFound    = errors.New("neo: key not found")
	ErrNoElementFound = errors.New("neo: no element found")
)

// PostingKey orders postings first by document, then by hit position within
// that document.
type PostingKey struct {
	Doc DocID
	Pos Hitpos
}

// KeyMin and KeyMax bound every real key, so they can serve as BOF/EOF
// sentinels without a "is this the first call" special case.
var (
	KeyMin = PostingKey{Doc: 0, Pos: 0}
	KeyMax = PostingKey{Doc: DocidMax, Pos: Hitpos(math.MaxUint64)}
)

// Less reports whether a sorts strictly before b.
func (a PostingKey) Less(b PostingKey) bool {
	if a.Doc != b.Doc {
		return a.Doc < b.Doc
	}
	return a.Pos < b.Pos
}

func (a PostingKey) equals(b PostingKey) bool { return a.Doc == b.Doc && a.Pos == b.Pos }

// skipNode is one tower in the list: a key plus forward pointers per level.
type skipNode struct {
	key   PostingKey
	level int
	next  []*skipNode
}

// PostingSkipList is a sorted set of PostingKeys supporting O(log n)
// expected Insert/Search/seek-forward operations.
type PostingSkipList struct {
	head   *skipNode
	height int
	count  int
}

// NewPostingSkipList returns an empty skip list.
func NewPostingSkipList() *PostingSkipList {
	return &PostingSkipList{head: &skipNode{next: make([]*skipNode, maxHeight)}, height: 1}
}

// Len returns the number of keys currently stored.
func (sl *PostingSkipList) Len() int { return sl.count }

// search walks from the top level down, returning the node exactly matching
// key (or nil) and the per-level predecessor journey used by Insert.
func (sl *PostingSkipList) search(key PostingKey) (*skipNode, [maxHeight]*skipNode) {
	var journey [maxHeight]*skipNode
	cur := sl.head
	for level := sl.height - 1; level >= 0; level-- {
		for cur.next[level] != nil && cur.next[level].key.Less(key) {
			cur = cur.next[level]
		}
		journey[level] = cur
	}
	next := cur.next[0]
	if next != nil && next.key.equals(key) {
		return next, journey
	}
	return nil, journey
}

// Insert adds key if not already present (a no-op if it is - postings are a
// set, not a multimap).
func (sl *PostingSkipList) Insert(key PostingKey) {
	if found, _ := sl.search(key); found != nil {
		return
	}
	_, journey := sl.search(key)
	level := randomLevel()
	node := &skipNode{key: key, level: level, next: make([]*skipNode, level)}
	for l := 0; l < level; l++ {
		pred := journey[l]
		if pred == nil {
			pred = sl.head
		}
		node.next[l] = pred.next[l]
		pred.next[l] = node
	}
	if level > sl.height {
		sl.height = level
	}
	sl.count++
}

// SeekGE returns the smallest stored key >= target, or ok=false if none
// exists - the core of HintDocID and SeekHitlist.
func (sl *PostingSkipList) SeekGE(target PostingKey) (PostingKey, bool) {
	cur := sl.head
	for level := sl.height - 1; level >= 0; level-- {
		for cur.next[level] != nil && cur.next[level].key.Less(target) {
			cur = cur.next[level]
		}
	}
	next := cur.next[0]
	if next == nil {
		return PostingKey{}, false
	}
	return next.key, true
}

// Contains reports whether key is present.
func (sl *PostingSkipList) Contains(key PostingKey) bool {
	found, _ := sl.search(key)
	return found != nil
}

func randomLevel() int {
	level := 1
	for rand.Float64() < 0.5 && level < maxHeight {
		level++
	}
	return level
}

// PostingIterator walks every stored key in ascending order.
type PostingIterator struct {
	cur *skipNode
}

// Iterator returns a fresh forward iterator.
func (sl *PostingSkipList) Iterator() *PostingIterator {
	return &PostingIterator{cur: sl.head.next[0]}
}

// HasNext reports whether another key remains.
func (it *PostingIterator) HasNext() bool { return it.cur != nil }

// Next returns the current key and advances.
func (it *PostingIterator) Next() PostingKey {
	k := it.cur.key
	it.cur = it.cur.next[0]
	return k
}
