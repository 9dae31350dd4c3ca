package pm

import "github.com/voodooEntity/nestmatch/src/system/opgraph"

// fakeValue and fakeOp give the pm test suite a minimal, hand-wired
// implementation of opgraph.Op/opgraph.Value, the way a pure-algorithm
// package tests against its interface rather than a concrete backing
// store — gitsbacked is exercised separately, against real gits usage
// patterns.
type fakeValue struct {
	hasProducer  bool
	producerOp   *fakeOp
	producerPort int
	consumers    []opgraph.Consumer
}

func (v *fakeValue) Producer() (opgraph.Op, int, bool) {
	if !v.hasProducer {
		return nil, 0, false
	}
	return v.producerOp, v.producerPort, true
}

func (v *fakeValue) Consumers() []opgraph.Consumer { return v.consumers }

type fakeOp struct {
	name    string
	matched bool
	inputs  []*fakeValue
	outputs []*fakeValue
}

func newFakeOp(name string, numIn, numOut int) *fakeOp {
	return &fakeOp{
		name:    name,
		inputs:  make([]*fakeValue, numIn),
		outputs: make([]*fakeValue, numOut),
	}
}

func (o *fakeOp) Name() string           { return o.name }
func (o *fakeOp) NumInputs() int         { return len(o.inputs) }
func (o *fakeOp) NumOutputs() int        { return len(o.outputs) }
func (o *fakeOp) HasMatchedMarker() bool { return o.matched }

func (o *fakeOp) NumOutputConsumers(port int) int {
	if port >= len(o.outputs) || o.outputs[port] == nil {
		return 0
	}
	return len(o.outputs[port].Consumers())
}

func (o *fakeOp) InputValue(port int) (opgraph.Value, bool) {
	if port >= len(o.inputs) || o.inputs[port] == nil {
		return nil, false
	}
	return o.inputs[port], true
}

func (o *fakeOp) OutputValue(port int) (opgraph.Value, bool) {
	if port >= len(o.outputs) || o.outputs[port] == nil {
		return nil, false
	}
	return o.outputs[port], true
}

func (o *fakeOp) OutputValues() []opgraph.Value {
	vals := make([]opgraph.Value, 0, len(o.outputs))
	for _, v := range o.outputs {
		if v != nil {
			vals = append(vals, v)
		}
	}
	return vals
}

// connect wires from's output port fromPort as the producer of to's input
// port toPort, appending to whatever else already consumes that output.
func connect(from *fakeOp, fromPort int, to *fakeOp, toPort int) {
	v := from.outputs[fromPort]
	if v == nil {
		v = &fakeValue{hasProducer: true, producerOp: from, producerPort: fromPort}
		from.outputs[fromPort] = v
	}
	v.consumers = append(v.consumers, opgraph.Consumer{Op: to, Port: toPort})
	to.inputs[toPort] = v
}

// externalInput gives op's input port a value with no known producer, the
// way a graph-boundary operand (a weight, a constant, a captured input)
// looks from the inside.
func externalInput(op *fakeOp, port int) {
	op.inputs[port] = &fakeValue{hasProducer: false}
}

func nameIs(name string) func(op opgraph.Op) bool {
	return func(op opgraph.Op) bool { return op.Name() == name }
}
