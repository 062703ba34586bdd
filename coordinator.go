package neo

import (
	"errors"
	"fmt"
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════════
// L5: QUERY COORDINATOR (spec.md §4.5)
// ═══════════════════════════════════════════════════════════════════════════════
// Turns a QueryNode tree (built by QueryBuilder, query.go) into an ExtNode
// tree, wires up the registry/IDF pass, drives the drain-and-rank loop, and
// feeds results into the sorter the factory built. Search is the single
// public entry point, recovering ErrInternalInvariant panics raised deep in
// the tree the same way the teacher's top-level Execute insulates callers
// from a malformed bitmap operation (query.go's QueryBuilder.Execute).
// ═══════════════════════════════════════════════════════════════════════════════

// BoundarySource optionally supplies sentence/paragraph marker cursors for
// UNIT operators. A QwordSetup that doesn't implement it simply can't build
// SENTENCE/PARAGRAPH nodes (BuildExtNode returns an error for those).
type BoundarySource interface {
	SentenceBoundary() ZoneCursor
	ParagraphBoundary() ZoneCursor
}

// ZoneSource optionally supplies a shared ZoneEngine for zone predicates and
// AND-zonespan nodes.
type ZoneSource interface {
	Zones() *ZoneEngine
}

// BuildExtNode recursively lowers a QueryNode tree into an ExtNode tree,
// spawning one Qword per distinct term leaf via qs.
func BuildExtNode(ctx *SetupContext, qs QwordSetup, node *QueryNode) (ExtNode, error) {
	if node == nil {
		return nil, errors.New("neo: nil query node")
	}
	nodeCtx := ctx
	if node.Limit.FieldMask != 0 {
		nodeCtx = ctx.WithLimit(node.Limit)
	}

	switch node.Kind {
	case NodeTerm:
		qword, err := qs.Spawn(node.Keyword.Word)
		if err != nil {
			return nil, fmt.Errorf("neo: spawning qword %q: %w", node.Keyword.Word, err)
		}
		qs.Setup(qword)
		leaf := ExtNode(NewTermNode(nodeCtx, qword, node.Keyword))
		if len(node.Limit.ZoneIDs) > 0 {
			zs, ok := qs.(ZoneSource)
			if !ok {
				return nil, errors.New("neo: zone predicate requires a ZoneSource QwordSetup")
			}
			leaf = NewFilterNode(leaf, HitPredicate{Kind: PredicateZone, ZoneIDs: node.Limit.ZoneIDs, Zones: zs.Zones()})
		}
		return leaf, nil

	case NodeAnd:
		return buildChain(nodeCtx, qs, node.Children, NewAndNode)
	case NodeOr:
		return buildChain(nodeCtx, qs, node.Children, NewOrNode)
	case NodeMaybe:
		return buildBinary(nodeCtx, qs, node.Children, NewMaybeNode)
	case NodeAndNot:
		return buildBinary(nodeCtx, qs, node.Children, NewAndNotNode)
	case NodeNot:
		return nil, errors.New("neo: standalone NOT requires a left operand; use AND-NOT")

	case NodePhrase:
		children, err := buildChildren(nodeCtx, qs, node.Children)
		if err != nil {
			return nil, err
		}
		return NewPositionalNode(PositionalPhrase, 0, children...), nil
	case NodeProximity:
		children, err := buildChildren(nodeCtx, qs, node.Children)
		if err != nil {
			return nil, err
		}
		return NewPositionalNode(PositionalProximity, node.Distance, children...), nil
	case NodeNear:
		children, err := buildChildren(nodeCtx, qs, node.Children)
		if err != nil {
			return nil, err
		}
		return NewPositionalNode(PositionalMultinear, node.Distance, children...), nil

	case NodeQuorum:
		children, err := buildChildren(nodeCtx, qs, node.Children)
		if err != nil {
			return nil, err
		}
		threshold := node.Threshold
		if node.Percent {
			threshold = int(math.Ceil(float64(node.Threshold) / 100.0 * float64(len(children))))
		}
		return NewQuorumNode(children, threshold), nil

	case NodeBefore:
		children, err := buildChildren(nodeCtx, qs, node.Children)
		if err != nil {
			return nil, err
		}
		return NewOrderNode(children...), nil

	case NodeSentence, NodeParagraph:
		bs, ok := qs.(BoundarySource)
		if !ok {
			return nil, errors.New("neo: UNIT predicate requires a BoundarySource QwordSetup")
		}
		children, err := buildChildren(nodeCtx, qs, node.Children)
		if err != nil {
			return nil, err
		}
		if node.Kind == NodeSentence {
			return NewUnitNode(UnitSentence, bs.SentenceBoundary(), children...), nil
		}
		return NewUnitNode(UnitParagraph, bs.ParagraphBoundary(), children...), nil

	default:
		return nil, fmt.Errorf("neo: unhandled query node kind %v", node.Kind)
	}
}

func buildChildren(ctx *SetupContext, qs QwordSetup, nodes []*QueryNode) ([]ExtNode, error) {
	out := make([]ExtNode, 0, len(nodes))
	for _, c := range nodes {
		built, err := BuildExtNode(ctx, qs, c)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

func buildChain(ctx *SetupContext, qs QwordSetup, nodes []*QueryNode, combine func(a, b ExtNode) ExtNode) (ExtNode, error) {
	children, err := buildChildren(ctx, qs, nodes)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, errors.New("neo: empty operator has no children")
	}
	acc := children[0]
	for _, c := range children[1:] {
		acc = combine(acc, c)
	}
	return acc, nil
}

func buildBinary(ctx *SetupContext, qs QwordSetup, nodes []*QueryNode, combine func(a, b ExtNode) ExtNode) (ExtNode, error) {
	if len(nodes) != 2 {
		return nil, fmt.Errorf("neo: binary operator requires exactly 2 children, got %d", len(nodes))
	}
	children, err := buildChildren(ctx, qs, nodes)
	if err != nil {
		return nil, err
	}
	return combine(children[0], children[1]), nil
}

// SearchOptions configures the ranker and sorter the coordinator wires up
// around a built ExtNode tree.
type SearchOptions struct {
	Ranker       RankerKind
	RankerFn     func(doc ExtDoc, hits []ExtHit) uint32 // for RankPlugin
	Expr         func(Factors) float64                  // for RankExpr
	FieldWeights FieldWeights
	BM25K1, BM25B float64
	AvgDocLen    float64
	DocLen       func(DocID) int
	Sort         SorterSchema
}

// SearchResult is the coordinator's output.
type SearchResult struct {
	Matches    []RankedMatch
	TotalFound int
	Warnings   string
}

func buildRanker(opts SearchOptions, reg *Registry) Ranker {
	k1, b := opts.BM25K1, opts.BM25B
	if k1 == 0 {
		k1 = BM25DefaultK1
	}
	if b == 0 {
		b = BM25DefaultB
	}
	switch opts.Ranker {
	case RankWeightSum:
		return NewWeightSumRanker(opts.FieldWeights)
	case RankBM25:
		return NewBM25Ranker(reg, k1, b, opts.AvgDocLen, opts.DocLen)
	case RankProximity:
		return NewProximityRanker()
	case RankWordCount:
		return NewWordCountRanker()
	case RankFieldMask:
		return &FieldMaskRanker{}
	case RankSPH04:
		bm := NewBM25Ranker(reg, k1, b, opts.AvgDocLen, opts.DocLen)
		return NewSPH04Ranker(bm, NewProximityRanker())
	case RankExpr:
		bm := NewBM25Ranker(reg, k1, b, opts.AvgDocLen, opts.DocLen)
		pool := NewFactorPool(reg, bm)
		expr := opts.Expr
		if expr == nil {
			expr = func(f Factors) float64 { return f.BM25A * SphBM25Scale }
		}
		return NewExprRanker(pool, expr)
	case RankExport:
		bm := NewBM25Ranker(reg, k1, b, opts.AvgDocLen, opts.DocLen)
		return NewExportRanker(NewFactorPool(reg, bm))
	case RankPlugin:
		return &PluginRanker{Score: opts.RankerFn}
	default:
		return NoneRanker{}
	}
}

// Search builds, drains, ranks, and sorts tree against totalDocs worth of
// corpus statistics, recovering any ErrInternalInvariant panic raised by the
// operator tree into a returned error instead of crashing the caller.
func Search(ctx *SetupContext, qs QwordSetup, tree *QueryNode, totalDocs int, opts SearchOptions) (result *SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, ErrInternalInvariant) {
				err = e
				return
			}
			panic(r)
		}
	}()

	root, buildErr := BuildExtNode(ctx, qs, tree)
	if buildErr != nil {
		return nil, buildErr
	}

	reg := NewRegistry(totalDocs)
	root.GetQwords(reg)
	reg.AssignIDF()
	root.SetQwordsIDF(reg)

	ranker := buildRanker(opts, reg)
	sorter := NewSorter(opts.Sort)

	total := 0
	for {
		if ctx.exceeded(costMatch) {
			break
		}
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
			sorter.Push(RankedMatch{Doc: doc, Weight: ranker.Finalize()})
			total++
		}
	}

	sorted := sorter.Results()
	final := ApplyPostLimit(sorted, opts.Sort.Offset, opts.Sort.Limit)
	return &SearchResult{Matches: final, TotalFound: total, Warnings: ctx.Warnings.String()}, nil
}
