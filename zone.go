package neo

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// ZONE ENGINE (spec.md §4.2.2's zone predicate, §6 zone/field distinction)
// ═══════════════════════════════════════════════════════════════════════════════
// Zones are named positional spans (e.g. <h1>...</h1>) marked in the hitlist
// by dedicated open/close tag hits, exactly like the teacher's field-mask hits
// but one level finer-grained. The engine exposes IsInZone(zone, hit), used by
// the conditional filter (filter.go) and AND-zonespan (boolnodes.go). Spans
// are resolved lazily per document and cached; a housekeeping watermark drops
// cache entries for documents no longer reachable (DocID strictly below the
// watermark), so a long-running drain doesn't retain spans for the entire
// corpus - grounded on the teacher's Qword streaming model (index.go), reused
// here one layer up the stack.
// ═══════════════════════════════════════════════════════════════════════════════

type zoneSpanState int

const (
	spanOutside zoneSpanState = iota
	spanOpenMarker
	spanInside
	spanCloseMarker
)

// zoneSpan is one resolved [start, end) interval of a zone within a document.
type zoneSpan struct {
	start, end Hitpos
}

// ZoneCursor supplies the raw open/close tag hitstream for a single zone,
// one ExtHit per tag occurrence, in ascending Pos order per document. Term
// leaves over synthetic "zone marker" keywords satisfy this trivially.
type ZoneCursor interface {
	NextDoc() ExtDoc
	SeekHitlist(doc ExtDoc)
	NextHit() Hitpos
	Reset()
}

// ZoneSpec names one zone and its open/close marker cursors.
type ZoneSpec struct {
	Name  string
	Open  ZoneCursor
	Close ZoneCursor
}

// ZoneEngine resolves "is hit h inside zone z" queries, lazily materializing
// and caching per-document span lists.
type ZoneEngine struct {
	zones     []ZoneSpec
	byName    map[string]int
	cache     map[DocID][][]zoneSpan // cache[doc][zoneID] = spans
	watermark DocID
}

// NewZoneEngine builds an engine over the given named zones.
func NewZoneEngine(zones []ZoneSpec) *ZoneEngine {
	e := &ZoneEngine{
		zones:  zones,
		byName: make(map[string]int, len(zones)),
		cache:  make(map[DocID][][]zoneSpan),
	}
	for i, z := range zones {
		e.byName[z.Name] = i
	}
	return e
}

// ZoneID resolves a zone name to its integer id, or -1 if unknown.
func (e *ZoneEngine) ZoneID(name string) int {
	if id, ok := e.byName[name]; ok {
		return id
	}
	return -1
}

// IsInZone reports whether hit h (belonging to some currently-iterated
// document) falls within an instance of zone zoneID, and if so, the index of
// the matched span within that document (used by ORDER/spanspan rematching;
// callers that don't care pass it through with _).
func (e *ZoneEngine) IsInZone(zoneID int, h ExtHit) (bool, int) {
	if zoneID < 0 || zoneID >= len(e.zones) {
		return false, -1
	}
	spans := e.spansFor(h.DocID, zoneID)
	// Spans are sorted by start; binary search for the first span whose
	// start is >= h.Pos, then check it and the span before it for containment.
	idx := sort.Search(len(spans), func(i int) bool { return !spans[i].start.Less(h.Pos) })
	if idx < len(spans) && spans[idx].start == h.Pos {
		return true, idx
	}
	if idx > 0 {
		idx--
		if !h.Pos.Less(spans[idx].start) && h.Pos.Less(spans[idx].end) {
			return true, idx
		}
	}
	return false, -1
}

// spansFor resolves (and caches) zoneID's spans within doc, driving the
// open/close marker cursors with the span FSM below.
func (e *ZoneEngine) spansFor(doc DocID, zoneID int) []zoneSpan {
	perDoc, ok := e.cache[doc]
	if !ok {
		perDoc = make([][]zoneSpan, len(e.zones))
		e.cache[doc] = perDoc
	} else if perDoc[zoneID] != nil {
		return perDoc[zoneID]
	}

	z := e.zones[zoneID]
	fake := ExtDoc{DocID: doc}
	z.Open.SeekHitlist(fake)
	z.Close.SeekHitlist(fake)

	var spans []zoneSpan
	state := spanOutside
	var cur zoneSpan
	openPos := z.Open.NextHit()
	closePos := z.Close.NextHit()
	for openPos != EmptyHit || closePos != EmptyHit {
		switch state {
		case spanOutside:
			if openPos == EmptyHit {
				closePos = z.Close.NextHit()
				continue
			}
			cur.start = openPos
			state = spanOpenMarker
			openPos = z.Open.NextHit()
		case spanOpenMarker, spanInside:
			if closePos == EmptyHit || (openPos != EmptyHit && openPos.Less(closePos)) {
				// Nested re-open with no intervening close: extend current span.
				if openPos == EmptyHit {
					state = spanOutside
					continue
				}
				openPos = z.Open.NextHit()
				state = spanInside
				continue
			}
			cur.end = closePos
			spans = append(spans, cur)
			state = spanCloseMarker
			closePos = z.Close.NextHit()
		case spanCloseMarker:
			state = spanOutside
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Less(spans[j].start) })
	perDoc[zoneID] = spans
	return spans
}

// Housekeep drops cached span lists for every document strictly below
// watermark, bounding memory during a long forward-only drain (spec.md §5's
// "bounded resource use" property applied one layer above the chunk
// contract).
func (e *ZoneEngine) Housekeep(watermark DocID) {
	e.watermark = watermark
	for doc := range e.cache {
		if doc < watermark {
			delete(e.cache, doc)
		}
	}
}

// Reset rewinds every zone's marker cursors and drops all cached spans.
func (e *ZoneEngine) Reset() {
	for _, z := range e.zones {
		z.Open.Reset()
		z.Close.Reset()
	}
	e.cache = make(map[DocID][][]zoneSpan)
}
