package neo

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// L5: SORTER FACTORY (spec.md §4.7)
// ═══════════════════════════════════════════════════════════════════════════════
// Builds a Sorter (or GroupSorter) from a parsed sort schema: one or more
// ORDER BY clauses recognizing the usual synonyms (@weight/@relevance,
// @id/id), resolved against an AttrResolver the caller supplies (real
// schemas vary per index), plus an optional GROUP BY/aggregate/HAVING
// configuration. Clause evaluation is staged the way the teacher stages
// analysis -> indexing (analyzer.go -> index.go): PREFILTER narrows the
// candidate doc stream before ranking even runs, PRESORT/SORTER/FINAL select
// and order matches, POSTLIMIT applies OFFSET/LIMIT last.
// ═══════════════════════════════════════════════════════════════════════════════

// SortStage names where in the pipeline a clause applies.
type SortStage int

const (
	StagePrefilter SortStage = iota
	StagePresort
	StageSorter
	StageFinal
	StagePostLimit
)

// SortClause is one parsed ORDER BY entry.
type SortClause struct {
	Field string
	Desc  bool
}

// sortSynonyms maps the common aliases spec.md §4.7 calls out to their
// canonical attribute name.
var sortSynonyms = map[string]string{
	"@weight":    "weight",
	"@relevance": "weight",
	"@rank":      "weight",
	"@id":        "docid",
	"id":         "docid",
}

// ParseSortClauses parses a comma-separated "field ASC|DESC" list, resolving
// synonyms. Defaults to ascending when no direction is given, per SQL
// convention.
func ParseSortClauses(expr string) ([]SortClause, error) {
	parts := strings.Split(expr, ",")
	out := make([]SortClause, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields := strings.Fields(p)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("neo: malformed sort clause %q", p)
		}
		name := strings.ToLower(fields[0])
		if canon, ok := sortSynonyms[name]; ok {
			name = canon
		}
		desc := false
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "DESC":
				desc = true
			case "ASC":
				desc = false
			default:
				return nil, fmt.Errorf("neo: unknown sort direction %q", fields[1])
			}
		}
		out = append(out, SortClause{Field: name, Desc: desc})
	}
	return out, nil
}

// AttrResolver resolves a canonical attribute name into a SortValue
// extractor, or ok=false if the schema has no such attribute.
type AttrResolver func(name string) (func(RankedMatch) SortValue, bool)

// BuildComparator resolves parsed clauses into a Comparator via resolve,
// synthesizing the weight/docid extractors directly since every schema has
// them regardless of what resolve knows about.
func BuildComparator(clauses []SortClause, resolve AttrResolver) (Comparator, error) {
	if len(clauses) > MaxSortFields {
		return Comparator{}, fmt.Errorf("neo: sort expression exceeds %d fields", MaxSortFields)
	}
	var cmp Comparator
	for _, c := range clauses {
		var extract func(RankedMatch) SortValue
		switch c.Field {
		case "weight":
			extract = func(m RankedMatch) SortValue { return SortValue{Num: float64(m.Weight)} }
		case "docid":
			extract = func(m RankedMatch) SortValue { return SortValue{Num: float64(m.Doc.DocID)} }
		default:
			fn, ok := resolve(c.Field)
			if !ok {
				return Comparator{}, fmt.Errorf("neo: unknown sort attribute %q", c.Field)
			}
			extract = fn
		}
		cmp.Fields = append(cmp.Fields, SortField{Desc: c.Desc, Extract: extract})
	}
	return cmp, nil
}

// SorterSchema is the fully resolved plan a query coordinator hands to
// DrainRanked/Sorter construction.
type SorterSchema struct {
	Comparator Comparator
	Limit      int
	Offset     int
	GroupBy    string // canonical attribute name, "" if no GROUP BY
	AggKind    AggKind
	NBest      int
	Having     func(*GroupAccumulator) bool
	KBuffer    bool // true selects KBufferSorter over HeapSorter
}

// NewSorter builds the concrete Sorter implementation the schema calls for.
// It chooses only between HeapSorter and KBufferSorter (by schema.KBuffer);
// GroupBy, AggKind, NBest and Having are not consulted here, so a grouped
// query gets a plain top-K sorter from it and GroupSorter is built directly
// with NewGroupSorter. This is a deliberately small selector rather than the ~40 specialized C++ template instantiations the
// original engine generates at compile time for every (has-group, has-mva,
// has-json, needs-string-sort, ...) combination - Go's Comparator/extractor
// closures already cover that cross product at runtime, so one
// HeapSorter/KBufferSorter pair plus GroupSorter suffices (documented as a
// deliberate simplification, not an omission).
func NewSorter(schema SorterSchema) Sorter {
	if schema.KBuffer {
		return NewKBufferSorter(schema.Limit+schema.Offset, 4, schema.Comparator)
	}
	return NewHeapSorter(schema.Limit+schema.Offset, schema.Comparator)
}

// Sorter is the minimal contract the coordinator drives: push candidates,
// read back the retained set.
type Sorter interface {
	Push(m RankedMatch)
	Len() int
	Results() []RankedMatch
}

// ApplyPostLimit slices a sorted result set to [offset, offset+limit), the
// StagePostLimit step.
func ApplyPostLimit(sorted []RankedMatch, offset, limit int) []RankedMatch {
	if offset >= len(sorted) {
		return nil
	}
	end := offset + limit
	if end > len(sorted) || limit <= 0 {
		end = len(sorted)
	}
	return sorted[offset:end]
}
