package neo

import "time"

// ═══════════════════════════════════════════════════════════════════════════════
// L2: OPERATOR TREE CONTRACT (spec.md §4.2)
// ═══════════════════════════════════════════════════════════════════════════════
// Every node - term, boolean, positional, quorum, order, unit, filter, cache -
// implements ExtNode. Global invariants (doc order, hit order, chunk coupling,
// interruption/budget) are enforced uniformly by having every leaf consult the
// shared *SetupContext before doing I/O (spec.md §4.2's "Interruption &
// budget" bullet), rather than each node re-implementing the checks.
// ═══════════════════════════════════════════════════════════════════════════════

// ExtNode is the streaming contract every operator-tree node satisfies.
type ExtNode interface {
	// GetDocsChunk returns up to MaxDocsPerChunk documents in strictly
	// ascending DocID order, or nil at EOF.
	GetDocsChunk() []ExtDoc

	// GetHitsChunk returns hits covering ids in the most recently returned
	// docs chunk, or nil once that chunk's hits are exhausted.
	GetHitsChunk() []ExtHit

	// Reset returns the node (and, transitively, its children) to the start
	// of the stream.
	Reset()

	// HintDocID propagates a seek hint down to every leaf.
	HintDocID(min DocID)

	// GetQwords walks the subtree registering every keyword leaf's Qword into
	// reg, returning the maximum atom position seen.
	GetQwords(reg *Registry) int

	// SetQwordsIDF pushes resolved IDF values back down into leaves that
	// need them for ranking (e.g. BM25-family rankers).
	SetQwordsIDF(reg *Registry)

	// GotHitless reports whether every leaf in this subtree synthesizes hits
	// from field-mask alone rather than streaming a hitlist.
	GotHitless() bool

	// DebugWordID returns a representative word id for debug dumps.
	DebugWordID() uint64
}

// SetupContext carries construction-time and drain-time cross-cutting state:
// the cancellation token, deadline, budget, limit spec inheritance, and the
// shared warnings collector. Passed explicitly instead of via cyclic parent
// pointers, per spec.md §9's guidance.
type SetupContext struct {
	Deadline  time.Time // zero value means "no deadline"
	Cancelled *bool     // process-wide shutdown flag, shared by pointer
	Budget    *Budget   // optional nanosecond + per-op cost budget
	Warnings  *Warnings
	Limit     LimitSpec
}

// NewSetupContext returns a context with no deadline/budget/cancellation.
func NewSetupContext() *SetupContext {
	cancelled := false
	return &SetupContext{Cancelled: &cancelled, Warnings: NewWarnings(), Limit: Unbounded}
}

// WithLimit returns a shallow copy of ctx scoped to a new LimitSpec, used when
// descending into a subtree that narrows field/zone scope.
func (ctx *SetupContext) WithLimit(l LimitSpec) *SetupContext {
	cp := *ctx
	cp.Limit = l
	return &cp
}

// exceeded reports whether the query should stop doing work: deadline passed,
// shutdown flag raised, or budget exhausted. It is the single check every
// leaf makes before I/O (spec.md §4.2's interruption bullet and §5's
// "suspension points" / "cancellation & deadlines").
func (ctx *SetupContext) exceeded(cost opCost) bool {
	if ctx.Cancelled != nil && *ctx.Cancelled {
		ctx.Warnings.Add("query cancelled: shutdown in progress")
		return true
	}
	if !ctx.Deadline.IsZero() && time.Now().After(ctx.Deadline) {
		ctx.Warnings.Add("query cancelled: deadline exceeded")
		return true
	}
	if ctx.Budget != nil && !ctx.Budget.charge(cost) {
		ctx.Warnings.Add("query cancelled: budget exhausted")
		return true
	}
	return false
}

// opCost names the per-operation costs a Budget decrements, spec.md §5.
type opCost int

const (
	costDoc opCost = iota
	costHit
	costSkip
	costMatch
)

// Budget is an optional nanosecond budget plus per-operation unit costs.
// Exhaustion behaves exactly like a deadline (spec.md §5).
type Budget struct {
	NanosRemaining int64
	CostDoc        int64
	CostHit        int64
	CostSkip       int64
	CostMatch      int64
}

func (b *Budget) charge(cost opCost) bool {
	var c int64
	switch cost {
	case costDoc:
		c = b.CostDoc
	case costHit:
		c = b.CostHit
	case costSkip:
		c = b.CostSkip
	case costMatch:
		c = b.CostMatch
	}
	if b.NanosRemaining <= 0 {
		return false
	}
	b.NanosRemaining -= c
	return b.NanosRemaining > 0 || c == 0
}
