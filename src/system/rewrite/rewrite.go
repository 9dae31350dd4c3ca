// Package rewrite defines the consumer side of a successful pm.Match: the
// matcher itself never mutates the operator graph, so something has to
// decide what a match means once one is found.
package rewrite

import (
	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/pm"
)

// Rewriter consumes a successful match, typically replacing the matched
// operators with a fused equivalent and marking every matched operator so
// later scans skip it.
type Rewriter interface {
	Rewrite(m *pm.Match) error
}

// Markable is satisfied by operator wrappers (gitsbacked.Op) that can
// record having been consumed by a rewrite.
type Markable interface {
	MarkMatched()
}

// MarkMatchedRewriter marks every operator bound by a match as consumed
// without otherwise mutating the graph. It is the terminal Rewriter for a
// dry-run scan that only wants to avoid rematching the same operators, and
// the natural tail of any real fusion Rewriter's Next chain.
type MarkMatchedRewriter struct{}

func (MarkMatchedRewriter) Rewrite(m *pm.Match) error {
	for op := range m.Bindings {
		if mm, ok := op.(Markable); ok {
			mm.MarkMatched()
		}
	}
	return nil
}

// LoggingRewriter wraps another Rewriter and logs each attempt, the way
// the teacher's scheduler logs every job dispatch and its outcome.
type LoggingRewriter struct {
	Next Rewriter
	Log  *archivist.Archivist
}

func (r *LoggingRewriter) Rewrite(m *pm.Match) error {
	if r.Log != nil {
		r.Log.DebugF(archivist.DEBUG_LEVEL_INFO, "rewrite: dispatching match covering %d ops", len(m.Bindings))
	}
	if err := r.Next.Rewrite(m); err != nil {
		if r.Log != nil {
			r.Log.ErrorF("rewrite: failed: %v", err)
		}
		return err
	}
	if r.Log != nil {
		r.Log.DebugF(archivist.DEBUG_LEVEL_INFO, "rewrite: committed match covering %d ops", len(m.Bindings))
	}
	return nil
}
