package neo

// ═══════════════════════════════════════════════════════════════════════════════
// INBOUND QUERY TREE (spec.md §6)
// ═══════════════════════════════════════════════════════════════════════════════
// The query core receives an already-parsed, already-tokenized query tree. It
// never parses query strings or applies stemming/wordforms itself - that is
// explicitly out of scope (spec.md §1). QueryBuilder (query.go) is a test and
// embedding convenience that builds this tree from Go call chains, the same
// role the teacher's fluent QueryBuilder played, just targeting an AST instead
// of directly executing bitmap operations.
// ═══════════════════════════════════════════════════════════════════════════════

// NodeKind enumerates the closed set of operators spec.md §6 lists.
type NodeKind int

const (
	NodeTerm NodeKind = iota
	NodeAnd
	NodeOr
	NodeAndNot
	NodeMaybe
	NodeNot
	NodeBefore
	NodePhrase
	NodeProximity
	NodeQuorum
	NodeNear
	NodeSentence
	NodeParagraph
)

func (k NodeKind) String() string {
	switch k {
	case NodeTerm:
		return "TERM"
	case NodeAnd:
		return "AND"
	case NodeOr:
		return "OR"
	case NodeAndNot:
		return "ANDNOT"
	case NodeMaybe:
		return "MAYBE"
	case NodeNot:
		return "NOT"
	case NodeBefore:
		return "BEFORE"
	case NodePhrase:
		return "PHRASE"
	case NodeProximity:
		return "PROXIMITY"
	case NodeQuorum:
		return "QUORUM"
	case NodeNear:
		return "NEAR"
	case NodeSentence:
		return "SENTENCE"
	case NodeParagraph:
		return "PARAGRAPH"
	default:
		return "UNKNOWN"
	}
}

// Keyword is a single keyword leaf inside the query tree.
type Keyword struct {
	Word       string
	AtomPos    int  // 1-based position in the original query text
	FieldStart bool // must match at field.position == 1
	FieldEnd   bool // must match at the field's final token
	Boost      float32
	Expanded   bool // "payload" keyword: pre-merged doc/hit cache at construction
	Excluded   bool // matched but excluded from scoring/qword registry IDF
	Morphed    bool
	PayloadPtr any // opaque per-field payload weight source for proximity-payload ranker
}

// LimitSpec is the field/zone scope a node inherits top-down during
// construction (spec.md §4.2.9): a spec travels with a term into its
// conditional-filter wrapper so field/zone scoping happens at the leaves.
type LimitSpec struct {
	FieldMask   uint64
	MaxFieldPos int // 0 means unbounded
	ZoneIDs     []int
	Zonespan    bool
}

// Unbounded is the unrestricted LimitSpec: all fields, no position cap, no zone.
var Unbounded = LimitSpec{FieldMask: ^uint64(0)}

// QueryNode is the tagged-union query tree node (spec.md §9 calls for tagged
// enums over virtual-inheritance hierarchies; this is that rendering).
type QueryNode struct {
	Kind     NodeKind
	Children []*QueryNode
	Keyword  Keyword // valid when Kind == NodeTerm

	// NodeProximity / NodeNear distance parameter.
	Distance int

	// NodeQuorum threshold: either an absolute count (Percent == false) or a
	// percentage of len(Children) (Percent == true).
	Threshold int
	Percent   bool

	Limit LimitSpec
}

// Term builds a term leaf.
func Term(word string) *QueryNode {
	return &QueryNode{Kind: NodeTerm, Keyword: Keyword{Word: word}, Limit: Unbounded}
}

// And builds an AND node over children.
func And(children ...*QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeAnd, Children: children, Limit: Unbounded}
}

// Or builds an OR node over children.
func Or(children ...*QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeOr, Children: children, Limit: Unbounded}
}

// AndNot builds a set-difference node: left \ right.
func AndNot(left, right *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeAndNot, Children: []*QueryNode{left, right}, Limit: Unbounded}
}

// Maybe builds a left-join node.
func Maybe(left, right *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeMaybe, Children: []*QueryNode{left, right}, Limit: Unbounded}
}

// Phrase builds an exact-sequence positional node over keyword leaves.
func Phrase(words ...string) *QueryNode {
	children := make([]*QueryNode, len(words))
	for i, w := range words {
		children[i] = Term(w)
		children[i].Keyword.AtomPos = i + 1
	}
	return &QueryNode{Kind: NodePhrase, Children: children, Limit: Unbounded}
}

// Proximity builds a distance-bounded unordered positional node.
func Proximity(distance int, words ...string) *QueryNode {
	children := make([]*QueryNode, len(words))
	for i, w := range words {
		children[i] = Term(w)
		children[i].Keyword.AtomPos = i + 1
	}
	return &QueryNode{Kind: NodeProximity, Children: children, Distance: distance, Limit: Unbounded}
}

// Quorum builds a "T of len(children)" threshold node. When percent is true,
// threshold is interpreted as a percentage of the child count.
func Quorum(threshold int, percent bool, children ...*QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeQuorum, Children: children, Threshold: threshold, Percent: percent, Limit: Unbounded}
}

// Near builds a keyword-level NEAR/k node.
func Near(distance int, children ...*QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeNear, Children: children, Distance: distance, Limit: Unbounded}
}

// Before builds an ORDER node: children must match in strictly increasing
// hit-position order within one field.
func Before(children ...*QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeBefore, Children: children, Limit: Unbounded}
}

// Sentence/Paragraph build UNIT nodes over exactly two children.
func Sentence(a, b *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeSentence, Children: []*QueryNode{a, b}, Limit: Unbounded}
}
func Paragraph(a, b *QueryNode) *QueryNode {
	return &QueryNode{Kind: NodeParagraph, Children: []*QueryNode{a, b}, Limit: Unbounded}
}

// WithLimit returns a copy of n scoped to the given field/zone spec, which is
// then inherited by every descendant during ExtNode construction.
func (n *QueryNode) WithLimit(l LimitSpec) *QueryNode {
	cp := *n
	cp.Limit = l
	return &cp
}

// Walk calls fn on every node in the tree, pre-order. Iterative, not
// recursive, per spec.md §9's "explicit iterative traversal" guidance for
// deeply nested boolean trees.
func (n *QueryNode) Walk(fn func(*QueryNode)) {
	stack := []*QueryNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		fn(cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}
