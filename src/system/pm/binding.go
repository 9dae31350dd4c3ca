// Package pm is the nested pattern matcher: it binds a pattern.Graph against
// a live opgraph.Op graph, producing a Match on success. The algorithm and
// its terminology (bindings, node trackers, match contexts) are carried over
// from the reference nested_matcher implementation this package generalizes.
package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// bindKind classifies how a binding request was seeded.
type bindKind int

const (
	// bindNone is a ROOT binding: the caller picked op as a starting point
	// with no incoming edge constraint.
	bindNone bindKind = iota
	// bindIn means op was reached through its input port port, as the
	// consumer of an already-bound producer; op itself resolves node.
	bindIn
	// bindOut means op was reached through its output port port, from the
	// userIdx'th consumer of that output; op itself resolves node.
	bindOut
)

// binding is a request to resolve pattern node against a specific point in
// the operator graph.
type binding struct {
	kind bindKind
	node pattern.Node

	op opgraph.Op
	// port is the real operator port this binding concerns: for bindOut,
	// the producer's own output port; for bindIn, the operator's actual
	// receiving input port.
	port int
	// patternPort is, for bindIn only, the input port the pattern's own
	// edge declared for this consumer. It usually equals port, but a
	// commutative consumer may receive the edge on either of its paired
	// ports regardless of which one the pattern happened to declare —
	// applyInBinding reconciles the two rather than rejecting the bind
	// outright, mirroring nested_matcher.cpp's bind_port/bind_op_port
	// split in register_node_tracker.
	patternPort int
	userIdx     int
}
