package neo

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ═══════════════════════════════════════════════════════════════════════════════
// L2: CACHE PROXY (spec.md §4.2.8)
// ═══════════════════════════════════════════════════════════════════════════════
// Wraps a subtree that multiple sibling branches reference (a shared term or
// expensive positional match), materializing its entire doc/hit stream once
// and replaying it from memory on subsequent passes. Bounded by an
// approximate byte budget rather than an entry count, evicting the oldest
// entry first (golang-lru/v2's ordinary least-recently-used eviction),
// because a handful of large cached subtrees can blow a byte budget long
// before they'd blow an entry-count one - grounded on the teacher's
// dependency-pack sibling amanmcp project, which uses the same library for
// bounded response caching.
// ═══════════════════════════════════════════════════════════════════════════════

type cacheEntry struct {
	docs  []ExtDoc
	hits  map[DocID][]ExtHit
	bytes int
}

func estimateBytes(docs []ExtDoc, hits map[DocID][]ExtHit) int {
	n := len(docs) * 48
	for _, hs := range hits {
		n += len(hs) * 40
	}
	return n
}

// SharedCache is a byte-budgeted LRU shared by every CacheProxyNode in a
// query plan (and, in a long-lived server, across queries).
type SharedCache struct {
	entries   *lru.Cache[string, *cacheEntry]
	maxBytes  int
	curBytes  int
}

// NewSharedCache builds a cache bounded by maxBytes, backed by an
// unbounded-count golang-lru/v2 cache (the byte budget is enforced
// separately by evicting the oldest entry whenever an insert would exceed
// it; golang-lru's own Add still needs *some* capacity ceiling, set high
// enough it never binds first).
func NewSharedCache(maxBytes int) *SharedCache {
	c, _ := lru.New[string, *cacheEntry](1 << 20)
	return &SharedCache{entries: c, maxBytes: maxBytes}
}

func (s *SharedCache) get(key string) (*cacheEntry, bool) {
	return s.entries.Get(key)
}

func (s *SharedCache) put(key string, e *cacheEntry) {
	s.curBytes += e.bytes
	s.entries.Add(key, e)
	for s.curBytes > s.maxBytes {
		_, v, ok := s.entries.RemoveOldest()
		if !ok {
			break
		}
		s.curBytes -= v.bytes
	}
}

// Invalidate drops a single key in O(1) - used when the underlying corpus
// changes in a way that makes a cached subtree stale (e.g. an UPDATE queue
// flush touching attributes the subtree filtered on).
func (s *SharedCache) Invalidate(key string) {
	if e, ok := s.entries.Peek(key); ok {
		s.curBytes -= e.bytes
		s.entries.Remove(key)
	}
}

// CacheProxyNode materializes child's full stream into a SharedCache entry
// keyed by key, replaying from the cache on Reset instead of re-draining
// child.
type CacheProxyNode struct {
	child ExtNode
	cache *SharedCache
	key   string

	docs    []ExtDoc
	hits    map[DocID][]ExtHit
	pos     int
	curDocs []ExtDoc
}

// NewCacheProxyNode wraps child behind cache, keyed by key (typically a
// stable serialization of the subtree's query text, assigned by the
// coordinator).
func NewCacheProxyNode(child ExtNode, cache *SharedCache, key string) *CacheProxyNode {
	n := &CacheProxyNode{child: child, cache: cache, key: key}
	n.materialize()
	return n
}

func (n *CacheProxyNode) materialize() {
	if e, ok := n.cache.get(n.key); ok {
		n.docs = e.docs
		n.hits = e.hits
		return
	}
	var docs []ExtDoc
	hits := make(map[DocID][]ExtHit)
	for {
		chunk := n.child.GetDocsChunk()
		if chunk == nil {
			break
		}
		docs = append(docs, chunk...)
		for _, h := range n.child.GetHitsChunk() {
			hits[h.DocID] = append(hits[h.DocID], h)
		}
	}
	n.docs = docs
	n.hits = hits
	n.cache.put(n.key, &cacheEntry{docs: docs, hits: hits, bytes: estimateBytes(docs, hits)})
}

// GetDocsChunk implements ExtNode.
func (n *CacheProxyNode) GetDocsChunk() []ExtDoc {
	if n.pos >= len(n.docs) {
		return nil
	}
	end := n.pos + MaxDocsPerChunk
	if end > len(n.docs) {
		end = len(n.docs)
	}
	out := n.docs[n.pos:end]
	n.pos = end
	n.curDocs = out
	return out
}

// GetHitsChunk implements ExtNode.
func (n *CacheProxyNode) GetHitsChunk() []ExtHit {
	if len(n.curDocs) == 0 {
		return nil
	}
	var out []ExtHit
	for _, d := range n.curDocs {
		out = append(out, n.hits[d.DocID]...)
	}
	n.curDocs = nil
	return out
}

// Reset implements ExtNode: replays from the materialized cache, never
// re-draining child.
func (n *CacheProxyNode) Reset() {
	n.pos = 0
	n.curDocs = nil
}

// HintDocID implements ExtNode via binary search over the materialized docs.
func (n *CacheProxyNode) HintDocID(min DocID) {
	lo, hi := 0, len(n.docs)
	for lo < hi {
		mid := (lo + hi) / 2
		if n.docs[mid].DocID < min {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	n.pos = lo
}

// GetQwords implements ExtNode.
func (n *CacheProxyNode) GetQwords(reg *Registry) int { return n.child.GetQwords(reg) }

// SetQwordsIDF implements ExtNode.
func (n *CacheProxyNode) SetQwordsIDF(reg *Registry) { n.child.SetQwordsIDF(reg) }

// GotHitless implements ExtNode.
func (n *CacheProxyNode) GotHitless() bool { return n.child.GotHitless() }

// DebugWordID implements ExtNode.
func (n *CacheProxyNode) DebugWordID() uint64 { return n.child.DebugWordID() }
