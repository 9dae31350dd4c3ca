package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// matchRepetition matches rep.Body between MinRep and MaxRep times.
// Matching proceeds speculatively: each iteration's trackers accumulate in
// confirmed only after the iteration itself succeeds and, from the second
// iteration on, its stitching edge to the previous iteration checks out.
// Iteration direction depends on which side of the repetition the caller
// bound from: a BIND_IN caller walks forward along body-out -> next
// body-in edges; a BIND_OUT caller walks backward along body-in -> previous
// body-out edges.
func matchRepetition(b binding, parentCtx *matchContext) bool {
	rep, ok := b.node.(*pattern.Repetition)
	if !ok {
		return false
	}
	pmaps := rep.PortMaps

	forwardMatch := (b.kind == bindNone && b.port == 0) || b.kind == bindIn

	confirmed := newMatchContext(parentCtx, rep)
	speculative := newMatchContext(parentCtx, rep)

	tempBind := b
	tempBind.node = rep.Body

	i := 0
	for ; i < rep.MaxRep; i++ {
		if parentCtx.log != nil {
			parentCtx.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "pm matchRepetition alias=", rep.Alias(), " iteration=", i)
		}
		temp := newMatchContext(speculative, nil)
		if !matchGraph(tempBind, temp, nil) {
			break
		}

		if i < rep.MaxRep-1 && len(pmaps) > 0 {
			nextOp, ok := nextIterationOp(rep, temp, forwardMatch)
			if !ok {
				break
			}
			tempBind.op = nextOp
		}

		if i > 0 {
			outCtx, inCtx := confirmed, temp
			if !forwardMatch {
				outCtx, inCtx = temp, confirmed
			}
			if !stitchIteration(outCtx, inCtx, pmaps) {
				return false
			}
		}

		for _, op := range temp.discovered {
			confirmed.trackers[op] = temp.trackers[op]
			confirmed.discovered = append(confirmed.discovered, op)
		}
		if forwardMatch {
			if i == 0 {
				for k, v := range temp.inPortMap {
					confirmed.inPortMap[k] = v
				}
			}
			confirmed.outPortMap = make(map[int]portMapEntry, len(temp.outPortMap))
			for k, v := range temp.outPortMap {
				confirmed.outPortMap[k] = v
			}
		} else {
			if i == 0 {
				for k, v := range temp.outPortMap {
					confirmed.outPortMap[k] = v
				}
			}
			confirmed.inPortMap = make(map[int]portMapEntry, len(temp.inPortMap))
			for k, v := range temp.inPortMap {
				confirmed.inPortMap[k] = v
			}
		}
	}

	if i < rep.MinRep {
		return false
	}

	if i == rep.MinRep && i == 0 {
		return matchZeroTripRepetition(rep, b, parentCtx, forwardMatch)
	}

	for _, op := range confirmed.discovered {
		parentCtx.trackers[op] = confirmed.trackers[op]
		parentCtx.discovered = append(parentCtx.discovered, op)
	}
	if !matchGraphInputs(parentCtx, rep, b, confirmed.inPortMap) {
		return false
	}
	if !matchGraphOutputs(parentCtx, rep, confirmed.outPortMap) {
		return false
	}
	fillParentIOMap(confirmed)
	delete(parentCtx.unhandled, rep)
	return true
}

// nextIterationOp picks the operator the next iteration's body should be
// bound against, walking one hop past the last iteration's stitching port.
// When more than one runtime consumer/producer exists at that hop (the
// value has side effects beyond the chain being matched), the entry whose
// attributes match the body's declared entry leaf is preferred.
func nextIterationOp(rep *pattern.Repetition, temp *matchContext, forwardMatch bool) (opgraph.Op, bool) {
	pmaps := rep.PortMaps
	if forwardMatch {
		oport := pmaps[0].BodyOutPort
		entry, ok := temp.outPortMap[oport]
		if !ok {
			return nil, false
		}
		val, ok := entry.Op.OutputValue(entry.Port)
		if !ok {
			return nil, false
		}
		cons := val.Consumers()
		if len(cons) == 0 {
			return nil, false
		}
		if len(cons) == 1 {
			return cons[0].Op, true
		}
		if leaf := repetitionEntryLeaf(rep, true); leaf != nil {
			for _, c := range cons {
				if matchAttributes(c.Op, leaf) {
					return c.Op, true
				}
			}
		}
		return cons[0].Op, true
	}

	iport := pmaps[0].BodyInPort
	entry, ok := temp.inPortMap[iport]
	if !ok {
		return nil, false
	}
	val, ok := entry.Op.InputValue(entry.Port)
	if !ok {
		return nil, false
	}
	prodOp, _, ok := val.Producer()
	if !ok {
		return nil, false
	}
	return prodOp, true
}

// repetitionEntryLeaf resolves the body's declared interior node at the
// chaining port, if it is a plain leaf.
func repetitionEntryLeaf(rep *pattern.Repetition, out bool) *pattern.Leaf {
	if len(rep.PortMaps) == 0 {
		return nil
	}
	var ep pattern.Endpoint
	var ok bool
	if out {
		ep, ok = rep.Body.InnerConsumer(rep.PortMaps[0].BodyInPort)
	} else {
		ep, ok = rep.Body.InnerProducer(rep.PortMaps[0].BodyOutPort)
	}
	if !ok {
		return nil
	}
	leaf, _ := ep.Node.(*pattern.Leaf)
	return leaf
}

// stitchIteration verifies that the producer edge recorded at outCtx's
// stitching output port genuinely feeds inCtx's stitching input port at
// runtime, and marks both sides' node trackers as accounting for that edge.
func stitchIteration(outCtx, inCtx *matchContext, pmaps []pattern.PortMap) bool {
	for _, pm := range pmaps {
		outEntry, ok := outCtx.outPortMap[pm.BodyOutPort]
		if !ok {
			return false
		}
		inEntry, ok := inCtx.inPortMap[pm.BodyInPort]
		if !ok {
			return false
		}
		val, ok := inEntry.Op.InputValue(inEntry.Port)
		if !ok {
			return false
		}
		prodOp, prodPort, ok := val.Producer()
		if !ok || prodOp != outEntry.Op || prodPort != outEntry.Port {
			return false
		}
		idx := consumerIndexOf(prodOp, prodPort, inEntry.Op, inEntry.Port)
		if idx < 0 {
			return false
		}
		if nt, ok := outCtx.trackers[prodOp]; ok {
			if handled, ok2 := nt.opUnhandledOutput[prodPort]; ok2 && idx < len(handled) {
				handled[idx] = false
			}
		}
		if nt, ok := inCtx.trackers[inEntry.Op]; ok {
			if inEntry.Port >= 0 && inEntry.Port < len(nt.opUnhandledInput) {
				nt.opUnhandledInput[inEntry.Port] = false
			}
		}
	}
	return true
}

// matchZeroTripRepetition handles the MinRep==0, zero-matched-iterations
// case: the repetition contributes no operators of its own, but any
// declared edge on either side of it must still be forwarded to whichever
// neighboring pattern node is on the other end.
func matchZeroTripRepetition(rep *pattern.Repetition, b binding, parentCtx *matchContext, forwardMatch bool) bool {
	if forwardMatch {
		consumers := rep.Consumers(0)
		if len(consumers) == 0 {
			delete(parentCtx.unhandled, rep)
			return true
		}
		if b.kind == bindNone {
			if len(consumers) != 1 {
				return false
			}
			optionalBind := b
			optionalBind.node = consumers[0].Node
			if !resolveNode(optionalBind, parentCtx) {
				return false
			}
		} else {
			val, ok := b.op.InputValue(b.port)
			if !ok {
				return false
			}
			prodOp, prodPort, ok := val.Producer()
			if !ok {
				return false
			}
			nt, ok := parentCtx.findTracker(prodOp)
			if !ok {
				return false
			}
			if !matchOutput(prodOp, parentCtx, nt, prodPort, consumers) {
				return false
			}
		}
	} else {
		prod, ok := rep.Producer(0)
		if !ok {
			delete(parentCtx.unhandled, rep)
			return true
		}
		if b.kind == bindNone {
			optionalBind := b
			optionalBind.node = prod.Node
			if !resolveNode(optionalBind, parentCtx) {
				return false
			}
		} else {
			val, ok := b.op.OutputValue(b.port)
			if !ok {
				return false
			}
			cons := val.Consumers()
			if b.userIdx < 0 || b.userIdx >= len(cons) {
				return false
			}
			nt, ok := parentCtx.findTracker(cons[b.userIdx].Op)
			if !ok {
				return false
			}
			task := inputMatchTask{kind: inputNormal, port: 0, additionalPort: -1}
			if !matchInput(cons[b.userIdx].Op, parentCtx, nt, task, prod, pattern.Endpoint{}, false) {
				return false
			}
		}
	}
	delete(parentCtx.unhandled, rep)
	return true
}
