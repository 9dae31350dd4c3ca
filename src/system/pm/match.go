package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// Match is a successful pattern match: every operator bound during the
// search, along with the resolved exterior port maps of the top-level
// pattern graph, ready for a rewrite.Rewriter to consume.
type Match struct {
	Bindings map[opgraph.Op]pattern.Node

	Inputs     map[int]opgraph.Op
	InputPorts map[int]int

	Outputs     map[int]opgraph.Op
	OutputPorts map[int]int
}

func newMatch(ctx *matchContext) *Match {
	m := &Match{
		Bindings:    make(map[opgraph.Op]pattern.Node, len(ctx.trackers)),
		Inputs:      make(map[int]opgraph.Op, len(ctx.inPortMap)),
		InputPorts:  make(map[int]int, len(ctx.inPortMap)),
		Outputs:     make(map[int]opgraph.Op, len(ctx.outPortMap)),
		OutputPorts: make(map[int]int, len(ctx.outPortMap)),
	}
	for op, nt := range ctx.trackers {
		m.Bindings[op] = nt.getNode()
	}
	for port, e := range ctx.inPortMap {
		m.Inputs[port] = e.Op
		m.InputPorts[port] = e.Port
	}
	for port, e := range ctx.outPortMap {
		m.Outputs[port] = e.Op
		m.OutputPorts[port] = e.Port
	}
	return m
}

// Ops returns every operator participating in the match, in no particular
// order.
func (m *Match) Ops() []opgraph.Op {
	ops := make([]opgraph.Op, 0, len(m.Bindings))
	for op := range m.Bindings {
		ops = append(ops, op)
	}
	return ops
}
