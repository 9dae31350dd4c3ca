package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// matchNode drains a tracked operator's remaining input and output tasks,
// then records any exterior port entries the enclosing graph exposes
// through it.
func matchNode(op opgraph.Op, ctx *matchContext) bool {
	if ctx.log != nil {
		ctx.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "pm matchNode op=", op.Name())
	}
	nt, ok := ctx.trackers[op]
	if !ok {
		return false
	}
	leaf, ok := nt.getNode().(*pattern.Leaf)
	if !ok {
		return false
	}
	if !matchNodeInputs(op, ctx, nt, leaf) {
		return false
	}
	if !matchNodeOutputs(op, ctx, nt, leaf) {
		return false
	}
	updateInnerPortMaps(op, ctx, leaf)
	return true
}

func matchNodeInputs(op opgraph.Op, ctx *matchContext, nt *nodeTracker, leaf *pattern.Leaf) bool {
	for len(nt.srcToVisit) > 0 {
		t := nt.srcToVisit[0]
		nt.srcToVisit = nt.srcToVisit[1:]
		prod, ok := leaf.Producer(t.port)
		if !ok {
			continue
		}
		var alt pattern.Endpoint
		hasAlt := false
		if t.additionalPort >= 0 {
			alt, hasAlt = leaf.Producer(t.additionalPort)
		}
		if !matchInput(op, ctx, nt, t, prod, alt, hasAlt) {
			return false
		}
	}
	return true
}

// matchInput resolves one declared producer edge against op's real inputs.
// PINNED tasks arrive with port and additionalPort already aliased to the
// single remaining commutative slot by edgebinder.applyInBinding, so they
// resolve exactly like NORMAL. ONE_CONSTRAINT tries both candidate ports
// against the one producer pattern knows about. TWO_CONSTRAINT covers a
// commutative pair whose both operands have their own declared producer —
// see nested_matcher.cpp's match_input, ~line 478 — and needs the
// three-way dispatch below since either operator port may satisfy either
// pattern node.
func matchInput(op opgraph.Op, ctx *matchContext, nt *nodeTracker, t inputMatchTask, prod, alt pattern.Endpoint, hasAlt bool) bool {
	switch t.kind {
	case inputNormal, inputCommutativePinned:
		return bindNodeInput(op, ctx, nt, t.port, prod.Node)
	case inputCommutativeOneConstraint:
		if bindNodeInput(op, ctx, nt, t.port, prod.Node) {
			return true
		}
		return bindNodeInput(op, ctx, nt, t.additionalPort, prod.Node)
	case inputCommutativeTwoConstraint:
		if !hasAlt {
			return false
		}
		return matchCommutativeTwoConstraint(op, ctx, nt, t, prod, alt)
	}
	return false
}

// matchCommutativeTwoConstraint disambiguates a commutative pair whose two
// ports both carry a declared pattern producer. It follows
// nested_matcher.cpp's three sub-cases: if one of the two operator ports
// was already claimed by another task (unusual, since construction folds
// both ports into this single task, but possible if the tracker itself was
// discovered through one of these ports), the opposite port must take
// whichever pattern node the claimed one didn't; otherwise neither side is
// decided yet, so both permutations are tried and the first one whose
// attribute predicates pass on both sides wins.
func matchCommutativeTwoConstraint(op opgraph.Op, ctx *matchContext, nt *nodeTracker, t inputMatchTask, prod, alt pattern.Endpoint) bool {
	portOp, portOK := producerOpAt(op, t.port)
	altOp, altOK := producerOpAt(op, t.additionalPort)
	if !portOK || !altOK {
		return false
	}

	portHandled := t.port >= 0 && t.port < len(nt.opUnhandledInput) && !nt.opUnhandledInput[t.port]
	altHandled := t.additionalPort >= 0 && t.additionalPort < len(nt.opUnhandledInput) && !nt.opUnhandledInput[t.additionalPort]

	switch {
	case portHandled:
		claimed, ok := ctx.findTracker(portOp)
		if !ok {
			return false
		}
		if claimed.getNode() == prod.Node {
			return bindNodeInput(op, ctx, nt, t.additionalPort, alt.Node)
		}
		return bindNodeInput(op, ctx, nt, t.additionalPort, prod.Node)
	case altHandled:
		claimed, ok := ctx.findTracker(altOp)
		if !ok {
			return false
		}
		if claimed.getNode() == prod.Node {
			return bindNodeInput(op, ctx, nt, t.port, alt.Node)
		}
		return bindNodeInput(op, ctx, nt, t.port, prod.Node)
	default:
		if matchAttributesForNode(portOp, prod.Node) && matchAttributesForNode(altOp, alt.Node) {
			if !bindNodeInput(op, ctx, nt, t.port, prod.Node) {
				return false
			}
			return bindNodeInput(op, ctx, nt, t.additionalPort, alt.Node)
		}
		if matchAttributesForNode(altOp, prod.Node) && matchAttributesForNode(portOp, alt.Node) {
			if !bindNodeInput(op, ctx, nt, t.additionalPort, prod.Node) {
				return false
			}
			return bindNodeInput(op, ctx, nt, t.port, alt.Node)
		}
		return false
	}
}

func matchAttributesForNode(op opgraph.Op, node pattern.Node) bool {
	leaf, ok := node.(*pattern.Leaf)
	if !ok {
		return false
	}
	return matchAttributes(op, leaf)
}

func producerOpAt(op opgraph.Op, port int) (opgraph.Op, bool) {
	val, ok := op.InputValue(port)
	if !ok {
		return nil, false
	}
	prodOp, _, ok := val.Producer()
	if !ok {
		return nil, false
	}
	return prodOp, true
}

// bindNodeInput resolves op's real input port against a specific pattern
// node and, on success, clears the tracker's own opUnhandledInput bit for
// that port — mirroring nested_matcher.cpp's match_input/bind_node_input,
// which clear op_unhandled_input[itask.port] inline once the edge is
// confirmed. Without this, every declared input port beyond the one that
// created the tracker would stay marked unhandled forever, even though the
// pattern matched it.
func bindNodeInput(op opgraph.Op, ctx *matchContext, nt *nodeTracker, port int, patNode pattern.Node) bool {
	val, ok := op.InputValue(port)
	if !ok {
		return false
	}
	prodOp, prodPort, ok := val.Producer()
	if !ok {
		return false
	}
	idx := consumerIndexOf(prodOp, prodPort, op, port)
	if idx < 0 {
		return false
	}
	if !resolveOrBindProducer(patNode, prodOp, prodPort, idx, ctx) {
		return false
	}
	if port >= 0 && port < len(nt.opUnhandledInput) {
		nt.opUnhandledInput[port] = false
	}
	return true
}

func resolveOrBindProducer(node pattern.Node, op opgraph.Op, port, userIdx int, ctx *matchContext) bool {
	if nt, ok := ctx.findTracker(op); ok {
		return nt.getNode() == node
	}
	return resolveNode(binding{kind: bindOut, node: node, op: op, port: port, userIdx: userIdx}, ctx)
}

func consumerIndexOf(prodOp opgraph.Op, prodPort int, consumerOp opgraph.Op, consumerPort int) int {
	val, ok := prodOp.OutputValue(prodPort)
	if !ok {
		return -1
	}
	for i, c := range val.Consumers() {
		if c.Op == consumerOp && c.Port == consumerPort {
			return i
		}
	}
	return -1
}

func matchNodeOutputs(op opgraph.Op, ctx *matchContext, nt *nodeTracker, leaf *pattern.Leaf) bool {
	for len(nt.dstToVisit) > 0 {
		t := nt.dstToVisit[0]
		nt.dstToVisit = nt.dstToVisit[1:]
		consumers := leaf.Consumers(t.port)
		if len(consumers) == 0 {
			continue
		}
		if !matchOutput(op, ctx, nt, t.port, consumers) {
			return false
		}
	}
	return true
}

// matchOutput resolves the declared pattern consumers of one output port
// against op's real consumers. Neither the fast path nor the general path
// reject on a bare port disagreement between the pattern's declared consumer
// port and the real consumer's port — a commutative consumer may legitimately
// receive this edge on either of its paired ports. That reconciliation is
// deferred to applyInBinding, which knows the consumer's own pending task
// kinds; matchOutput only picks candidates and lets registerNodeTracker
// reject the ones that don't actually work out.
func matchOutput(op opgraph.Op, ctx *matchContext, nt *nodeTracker, port int, patternConsumers []pattern.Endpoint) bool {
	val, ok := op.OutputValue(port)
	if !ok {
		return false
	}
	actual := val.Consumers()
	handled := nt.opUnhandledOutput[port]

	if len(patternConsumers) == 1 && len(actual) == 1 {
		return resolveOrBindConsumer(patternConsumers[0].Node, actual[0].Op, actual[0].Port, patternConsumers[0].Port, ctx, handled, 0)
	}

	for _, pc := range patternConsumers {
		matched := false
		for i, ac := range actual {
			if i < len(handled) && !handled[i] {
				continue
			}
			if resolveOrBindConsumer(pc.Node, ac.Op, ac.Port, pc.Port, ctx, handled, i) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func resolveOrBindConsumer(node pattern.Node, op opgraph.Op, realPort, patternPort int, ctx *matchContext, handled []bool, idx int) bool {
	if nt, ok := ctx.findTracker(op); ok {
		if nt.getNode() != node {
			return false
		}
		if idx >= 0 && idx < len(handled) {
			handled[idx] = false
		}
		return true
	}
	if !resolveNode(binding{kind: bindIn, node: node, op: op, port: realPort, patternPort: patternPort}, ctx) {
		return false
	}
	if idx >= 0 && idx < len(handled) {
		handled[idx] = false
	}
	return true
}

// updateInnerPortMaps records op against every exterior port of the
// enclosing graph scope that names this leaf as its interior endpoint.
func updateInnerPortMaps(op opgraph.Op, ctx *matchContext, leaf *pattern.Leaf) {
	if ctx.graph == nil {
		return
	}
	for i, ep := range ctx.graph.InnerConsumers() {
		if ep.Node == leaf {
			ctx.inPortMap[i] = portMapEntry{Op: op, Port: ep.Port}
		}
	}
	for i, ep := range ctx.graph.InnerProducers() {
		if ep.Node == leaf {
			ctx.outPortMap[i] = portMapEntry{Op: op, Port: ep.Port}
		}
	}
}
