package neo

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY BUILDER: fluent construction of parsed query trees
// ═══════════════════════════════════════════════════════════════════════════════
// Adapted from the teacher's QueryBuilder (originally in query.go), which built
// and immediately *executed* roaring-bitmap boolean expressions against an
// InvertedIndex. That execution model doesn't fit this spec: the query core
// receives an already-parsed tree (spec.md §6) and the coordinator (not the
// builder) is responsible for compiling it into an operator tree and draining
// it. So the builder keeps its fluent ergonomics - Term/And/Or/Not/Group,
// left-to-right chaining - but now emits a *QueryNode AST instead of directly
// touching any index.
//
//	tree := NewQueryBuilder().
//	    Term("quick").And().Term("brown").And().Term("fox").
//	    Build()
//
//	tree := NewQueryBuilder().
//	    Group(func(q *QueryBuilder) { q.Term("cat").Or().Term("dog") }).
//	    And().Not().Term("snake").
//	    Build()
// ═══════════════════════════════════════════════════════════════════════════════

// QueryOp is a pending boolean operation between two built sub-expressions.
type QueryOp int

const (
	OpNone QueryOp = iota
	OpAnd
	OpOr
)

// QueryBuilder accumulates a stack of sub-trees and pending operators, the
// same stack-machine shape as the teacher's bitmap-stack builder.
type QueryBuilder struct {
	stack  []*QueryNode
	ops    []QueryOp
	negate bool
}

// NewQueryBuilder creates an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Term pushes a keyword leaf, applying any pending Not().
func (qb *QueryBuilder) Term(word string) *QueryBuilder {
	node := Term(word)
	qb.push(node)
	return qb
}

// Phrase pushes an exact-sequence positional node.
func (qb *QueryBuilder) Phrase(words ...string) *QueryBuilder {
	qb.push(Phrase(words...))
	return qb
}

// Proximity pushes a distance-bounded unordered positional node.
func (qb *QueryBuilder) Proximity(distance int, words ...string) *QueryBuilder {
	qb.push(Proximity(distance, words...))
	return qb
}

// And queues an AND between the current top and the next pushed node.
func (qb *QueryBuilder) And() *QueryBuilder {
	qb.ops = append(qb.ops, OpAnd)
	return qb
}

// Or queues an OR between the current top and the next pushed node.
func (qb *QueryBuilder) Or() *QueryBuilder {
	qb.ops = append(qb.ops, OpOr)
	return qb
}

// Not negates the next pushed node: And().Not().Term(x) becomes ANDNOT.
func (qb *QueryBuilder) Not() *QueryBuilder {
	qb.negate = true
	return qb
}

// Group builds a sub-query in its own builder scope and pushes its result,
// the same precedence-control device the teacher's Group offered.
func (qb *QueryBuilder) Group(fn func(*QueryBuilder)) *QueryBuilder {
	sub := NewQueryBuilder()
	fn(sub)
	qb.push(sub.Build())
	return qb
}

// push appends node to the stack, honoring a pending negation by rewriting
// the preceding AND into an ANDNOT (the teacher negated the bitmap directly;
// here negation is a tree shape since ANDNOT needs an explicit right child).
func (qb *QueryBuilder) push(node *QueryNode) {
	if qb.negate {
		qb.negate = false
		if len(qb.stack) > 0 && len(qb.ops) >= len(qb.stack) {
			last := qb.ops[len(qb.ops)-1]
			if last == OpAnd {
				left := qb.stack[len(qb.stack)-1]
				qb.stack = qb.stack[:len(qb.stack)-1]
				qb.ops = qb.ops[:len(qb.ops)-1]
				qb.stack = append(qb.stack, AndNot(left, node))
				return
			}
		}
	}
	qb.stack = append(qb.stack, node)
}

// Build folds the stack/ops pair left-to-right into a single tree, the
// builder-pattern analogue of the teacher's Execute().
func (qb *QueryBuilder) Build() *QueryNode {
	if len(qb.stack) == 0 {
		return nil
	}
	result := qb.stack[0]
	for i := 1; i < len(qb.stack); i++ {
		op := OpAnd
		if i-1 < len(qb.ops) {
			op = qb.ops[i-1]
		}
		switch op {
		case OpAnd:
			result = And(result, qb.stack[i])
		case OpOr:
			result = Or(result, qb.stack[i])
		}
	}
	return result
}

// AllOf builds an AND over every given term, the AST analogue of the
// teacher's AllOf convenience helper.
func AllOf(terms ...string) *QueryNode {
	if len(terms) == 0 {
		return nil
	}
	qb := NewQueryBuilder().Term(terms[0])
	for _, t := range terms[1:] {
		qb.And().Term(t)
	}
	return qb.Build()
}

// AnyOf builds an OR over every given term.
func AnyOf(terms ...string) *QueryNode {
	if len(terms) == 0 {
		return nil
	}
	qb := NewQueryBuilder().Term(terms[0])
	for _, t := range terms[1:] {
		qb.Or().Term(t)
	}
	return qb.Build()
}

// TermExcluding builds "include AND NOT exclude".
func TermExcluding(include, exclude string) *QueryNode {
	return NewQueryBuilder().Term(include).And().Not().Term(exclude).Build()
}
