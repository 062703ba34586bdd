package neo

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ERROR TAXONOMY
// ═══════════════════════════════════════════════════════════════════════════════
// Following the teacher's package-level sentinel style (index.go's
// ErrNoPostingList, skiplist.go's ErrKeyNotFound), extended to the five error
// kinds spec.md §7 names. Broken-index and parse/semantic errors are returned;
// resource-exhaustion and degraded-plan conditions are warnings carried on a
// shared *Warnings collector instead of propagated as errors, matching the
// spec's "stream terminates cleanly" policy.
// ═══════════════════════════════════════════════════════════════════════════════

var (
	// ErrBrokenIndex covers MVA offsets out of bounds, zone start without end,
	// and doclist bounds violations. Not recoverable for the current operation.
	ErrBrokenIndex = errors.New("broken index")

	// ErrUnknownAttribute is returned when a sort/group/HAVING clause names an
	// attribute absent from the sorter schema.
	ErrUnknownAttribute = errors.New("unknown attribute in clause")

	// ErrMVAInOrderBy is returned when an MVA attribute is used as a sort key.
	ErrMVAInOrderBy = errors.New("MVA attribute cannot be used in ORDER BY")

	// ErrHavingWithoutGroupBy is returned when HAVING is set without GROUP BY.
	ErrHavingWithoutGroupBy = errors.New("HAVING requires GROUP BY")

	// ErrInternalInvariant marks an impossible state-machine transition. The
	// coordinator recovers a panic carrying this error and reports it as the
	// "INTERNAL ERROR" result (spec.md §7).
	ErrInternalInvariant = errors.New("INTERNAL ERROR")
)

// internalInvariant panics with a site-naming message; only the coordinator's
// top-level Search entry point recovers it, per spec.md §7.
func internalInvariant(site string, detail string) {
	panic(fmt.Errorf("%w: %s: %s", ErrInternalInvariant, site, detail))
}

// Warnings is the Go rendering of spec.md's "shared warning string": leaves
// write to it and return an empty chunk; parents observe the empty chunk and
// terminate their own streams in order, same as the spec's propagation rule.
// It is safe for concurrent use only insofar as a single query uses a single
// goroutine (spec.md §5) — the mutex exists to let cache-proxy nodes and the
// coordinator both append without ordering assumptions.
type Warnings struct {
	mu   sync.Mutex
	msgs []string
}

// NewWarnings returns an empty warnings collector.
func NewWarnings() *Warnings { return &Warnings{} }

// Add appends a warning message, logging it at Warn level the way the
// coordinator logs milestones at Info (SPEC_FULL.md §2.1).
func (w *Warnings) Add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.mu.Lock()
	w.msgs = append(w.msgs, msg)
	w.mu.Unlock()
	slog.Warn("query warning", slog.String("message", msg))
}

// Any reports whether at least one warning was recorded.
func (w *Warnings) Any() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs) > 0
}

// String joins all recorded warnings with "; ", the shape the coordinator
// attaches to the user-visible (matches, total_found, warning?, error?) tuple.
func (w *Warnings) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) == 0 {
		return ""
	}
	out := w.msgs[0]
	for _, m := range w.msgs[1:] {
		out += "; " + m
	}
	return out
}
