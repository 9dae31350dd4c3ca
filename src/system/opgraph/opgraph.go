// Package opgraph defines the read-only operator-graph query surface the
// matcher consumes. It has no concrete implementation of its own; see
// package gitsbacked for one backed by a real graph datastore.
package opgraph

// Op is an opaque node in the input graph. An operator may carry a matched
// marker that excludes it from further matching; the marker is written only
// by whatever rewriter consumes a successful match, never by the matcher.
type Op interface {
	// Name is used for diagnostics only, never for matching decisions.
	Name() string
	NumInputs() int
	NumOutputs() int
	NumOutputConsumers(port int) int
	InputValue(port int) (Value, bool)
	OutputValue(port int) (Value, bool)
	OutputValues() []Value
	HasMatchedMarker() bool
}

// Value is a directed edge carrier: it has at most one producer and an
// ordered list of consumers. A consumer's position in that list is its
// stable consumer index, used by package pm's OUT-kind bindings.
type Value interface {
	// Producer reports the (op, port) that produces this value. ok is false
	// for graph-external inputs with no known producer.
	Producer() (op Op, port int, ok bool)
	// Consumers is order-stable across calls for a given Value instance.
	Consumers() []Consumer
}

// Consumer names a single (op, input port) pair drawing from a Value.
type Consumer struct {
	Op   Op
	Port int
}
