package pm

import "github.com/voodooEntity/nestmatch/src/system/pattern"

// registerNodeTracker creates a nodeTracker for b.op against the leaf b.node
// and folds in whatever incoming binding constraint produced this request.
func registerNodeTracker(b binding, ctx *matchContext) bool {
	leaf, ok := b.node.(*pattern.Leaf)
	if !ok {
		return false
	}
	if !matchAttributes(b.op, leaf) {
		return false
	}
	nt := newNodeTracker(b.op, leaf)
	switch b.kind {
	case bindIn:
		if !applyInBinding(nt, b.port, b.patternPort) {
			return false
		}
	case bindOut:
		if !applyOutBinding(nt, b.port, b.userIdx) {
			return false
		}
	}
	ctx.trackers[b.op] = nt
	ctx.discovered = append(ctx.discovered, b.op)
	ctx.opsToVisit = append(ctx.opsToVisit, b.op)
	return true
}

// applyInBinding marks the operator's real input port as pattern-accounted-
// for and, if a pending srcToVisit task named the pattern's declared port,
// reconciles realPort against it. Mirrors nested_matcher.cpp's
// register_node_tracker BIND_IN switch, which keeps bind_port (the pattern's
// declared port) and bind_op_port (the real operator port) as distinct
// fields rather than assuming they coincide:
//   - NORMAL requires exact equality between the two and fails the whole
//     registration if they disagree — this is the only task kind for which a
//     port mismatch is ever a hard error.
//   - ONE_CONSTRAINT accepts realPort landing on either its own port or its
//     paired additionalPort, since only one of the pair was ever declared as
//     a producer and either operator slot may be the one that carries it.
//   - TWO_CONSTRAINT accepts realPort landing on either paired port too, but
//     rather than being satisfied outright it PINS: the still-unresolved
//     side becomes the task's sole remaining port (aliasing port and
//     additionalPort to it) so matchInput can later resolve it as an
//     ordinary lookup of the pattern's declared producer at that index.
//   - PINNED already has both fields aliased to the single remaining slot,
//     so it behaves like NORMAL against that slot.
func applyInBinding(nt *nodeTracker, realPort, patternPort int) bool {
	if realPort < 0 || realPort >= len(nt.opUnhandledInput) {
		return false
	}
	nt.opUnhandledInput[realPort] = false
	for i, t := range nt.srcToVisit {
		switch t.kind {
		case inputNormal:
			if t.port != patternPort {
				continue
			}
			if realPort != patternPort {
				return false
			}
			nt.srcToVisit = append(nt.srcToVisit[:i:i], nt.srcToVisit[i+1:]...)
			return true
		case inputCommutativeOneConstraint:
			if t.port != patternPort && t.additionalPort != patternPort {
				continue
			}
			if realPort != t.port && realPort != t.additionalPort {
				return false
			}
			nt.srcToVisit = append(nt.srcToVisit[:i:i], nt.srcToVisit[i+1:]...)
			return true
		case inputCommutativeTwoConstraint:
			if t.port != patternPort && t.additionalPort != patternPort {
				continue
			}
			switch realPort {
			case t.port:
				remaining := t.additionalPort
				nt.srcToVisit[i] = inputMatchTask{kind: inputCommutativePinned, port: remaining, additionalPort: remaining}
				return true
			case t.additionalPort:
				remaining := t.port
				nt.srcToVisit[i] = inputMatchTask{kind: inputCommutativePinned, port: remaining, additionalPort: remaining}
				return true
			default:
				return false
			}
		case inputCommutativePinned:
			if t.port != patternPort {
				continue
			}
			if realPort != t.additionalPort {
				return false
			}
			nt.srcToVisit = append(nt.srcToVisit[:i:i], nt.srcToVisit[i+1:]...)
			return true
		}
	}
	return true
}

// applyOutBinding marks the userIdx'th consumer of output port as
// pattern-accounted-for.
func applyOutBinding(nt *nodeTracker, port, userIdx int) bool {
	handled, ok := nt.opUnhandledOutput[port]
	if !ok || userIdx < 0 || userIdx >= len(handled) {
		return false
	}
	handled[userIdx] = false
	return true
}
