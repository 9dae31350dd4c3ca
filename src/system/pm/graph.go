package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// edgeSource is satisfied by any composite pattern node kind — Graph,
// Alternation, Repetition all embed pattern's shared edge-wiring struct —
// letting the graph-level reconciliation below treat all three uniformly.
type edgeSource interface {
	Producer(port int) (pattern.Endpoint, bool)
	Consumers(port int) []pattern.Endpoint
}

// ioMaps captures a matched sub-graph's exterior port maps for a caller
// (alternation) that needs to reconcile them against its own edges rather
// than the ones already merged into a local scope.
type ioMaps struct {
	in  map[int]portMapEntry
	out map[int]portMapEntry
}

// resolveNode dispatches a binding to whichever match routine its pattern
// node kind requires, clearing the node from the enclosing scope's
// unhandled set on success.
func resolveNode(b binding, ctx *matchContext) bool {
	var ok bool
	switch b.node.(type) {
	case *pattern.Leaf:
		ok = registerNodeTracker(b, ctx)
	case *pattern.Graph:
		ok = matchGraph(b, ctx, nil)
	case *pattern.Alternation:
		ok = matchAlternation(b, ctx)
	case *pattern.Repetition:
		ok = matchRepetition(b, ctx)
	default:
		return false
	}
	if ok {
		delete(ctx.unhandled, b.node)
	}
	return ok
}

// matchGraph matches the interior of a Graph pattern node, opening a scope
// of its own (local) and, on success, folding its trackers and exterior
// port maps back into parentCtx. When outMaps is non-nil the caller (an
// Alternation trying this graph as a candidate) receives the port maps
// directly instead of relying on the fillParentIOMap propagation rule,
// which only forwards ports the immediate parent's own graph names.
func matchGraph(b binding, parentCtx *matchContext, outMaps *ioMaps) bool {
	g, ok := b.node.(*pattern.Graph)
	if !ok {
		return false
	}
	if len(g.Nodes) == 0 {
		return false
	}
	if parentCtx.log != nil {
		parentCtx.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "pm matchGraph alias=", g.Alias())
	}
	local := newMatchContext(parentCtx, g)
	for _, n := range g.Nodes {
		local.unhandled[n] = struct{}{}
	}

	localBind := b
	switch b.kind {
	case bindNone:
		localBind.node = g.Nodes[0]
	case bindIn:
		ep, ok := g.InnerConsumer(b.port)
		if !ok {
			return false
		}
		localBind.node = ep.Node
		localBind.port = ep.Port
	case bindOut:
		ep, ok := g.InnerProducer(b.port)
		if !ok {
			return false
		}
		localBind.node = ep.Node
		localBind.port = ep.Port
	}

	if !resolveNode(localBind, local) {
		return false
	}

	for len(local.opsToVisit) > 0 {
		op := local.opsToVisit[0]
		local.opsToVisit = local.opsToVisit[1:]
		if !matchNode(op, local) {
			return false
		}
	}

	for n := range local.unhandled {
		rep, ok := n.(*pattern.Repetition)
		if !ok || rep.MinRep != 0 {
			return false
		}
	}

	if parentCtx != nil {
		for _, op := range local.discovered {
			parentCtx.trackers[op] = local.trackers[op]
			parentCtx.discovered = append(parentCtx.discovered, op)
		}
	}

	if !matchGraphInputs(local, g, b, local.inPortMap) {
		return false
	}
	if !matchGraphOutputs(local, g, local.outPortMap) {
		return false
	}

	fillParentIOMap(local)

	if outMaps != nil {
		outMaps.in = local.inPortMap
		outMaps.out = local.outPortMap
	}
	return true
}

// fillParentIOMap propagates local's exterior port maps to its parent
// scope. A parent with no graph of its own (a Repetition staging context)
// takes everything verbatim; a real graph-scoped parent takes only the
// ports it names local's own composite node as the interior endpoint for.
func fillParentIOMap(local *matchContext) {
	parent := local.parent
	if parent == nil {
		return
	}
	if parent.graph == nil {
		for k, v := range local.inPortMap {
			parent.inPortMap[k] = v
		}
		for k, v := range local.outPortMap {
			parent.outPortMap[k] = v
		}
		return
	}
	for i, ep := range parent.graph.InnerConsumers() {
		if ep.Node == local.selfNode {
			if v, ok := local.inPortMap[i]; ok {
				parent.inPortMap[i] = v
			}
		}
	}
	for i, ep := range parent.graph.InnerProducers() {
		if ep.Node == local.selfNode {
			if v, ok := local.outPortMap[i]; ok {
				parent.outPortMap[i] = v
			}
		}
	}
}

// matchGraphInputs reconciles self's own declared producers (self being the
// composite pattern node — Graph, Alternation, or Repetition — that owns
// portMap) against the interior operators recorded in portMap. graphPort
// indexes self's exterior ports and is used purely to look up self's
// declared producer; entry.Port is the interior operator's real input port
// and is what gets bound.
func matchGraphInputs(ctx *matchContext, self edgeSource, b binding, portMap map[int]portMapEntry) bool {
	for graphPort, entry := range portMap {
		nt, ok := ctx.trackers[entry.Op]
		if !ok {
			continue
		}
		prod, ok := self.Producer(graphPort)
		if !ok {
			continue
		}
		if b.kind == bindIn && b.port == graphPort {
			if entry.Port >= 0 && entry.Port < len(nt.opUnhandledInput) {
				nt.opUnhandledInput[entry.Port] = false
			}
			continue
		}
		task := inputMatchTask{kind: inputNormal, port: entry.Port, additionalPort: -1}
		if leaf, ok := prod.Node.(*pattern.Leaf); ok {
			if _, second, ok := leaf.CommutativePair(); ok {
				task = inputMatchTask{kind: inputCommutativeOneConstraint, port: entry.Port, additionalPort: second}
			}
		}
		if !matchInput(entry.Op, ctx, nt, task, prod, pattern.Endpoint{}, false) {
			return false
		}
	}
	return true
}

// matchGraphOutputs reconciles self's own declared consumers against the
// interior operators recorded in portMap.
func matchGraphOutputs(ctx *matchContext, self edgeSource, portMap map[int]portMapEntry) bool {
	for graphPort, entry := range portMap {
		nt, ok := ctx.trackers[entry.Op]
		if !ok {
			continue
		}
		consumers := self.Consumers(graphPort)
		if len(consumers) == 0 {
			continue
		}
		if !matchOutput(entry.Op, ctx, nt, entry.Port, consumers) {
			return false
		}
	}
	return true
}
