package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// inputMatchKind tags the four states an input match task moves through
// while a commutative operand pair is being disambiguated.
type inputMatchKind int

const (
	inputNormal inputMatchKind = iota
	// inputCommutativeOneConstraint: only one side of the pair has its own
	// declared producer (port); additionalPort is the other operand port,
	// free to claim the same producer if port itself doesn't accept it.
	inputCommutativeOneConstraint
	// inputCommutativeTwoConstraint: both operand ports (port,
	// additionalPort) carry their own declared producer and neither has
	// been resolved yet — either operator port may satisfy either pattern
	// producer, so matching tries both permutations.
	inputCommutativeTwoConstraint
	// inputCommutativePinned: an incoming bind already claimed one side of
	// a TWO_CONSTRAINT pair; port and additionalPort are both aliased to
	// the single remaining operand port, still to resolve.
	inputCommutativePinned
)

type inputMatchTask struct {
	kind           inputMatchKind
	port           int
	additionalPort int
}

type outputMatchTask struct {
	port int
}

// nodeTracker is the per-operator bookkeeping created the moment an op is
// bound to a pattern leaf: which of its declared edges still need chasing,
// and which of its runtime input/output slots the pattern has already
// accounted for.
type nodeTracker struct {
	node pattern.Node

	srcToVisit []inputMatchTask
	dstToVisit []outputMatchTask

	opUnhandledInput  []bool
	opUnhandledOutput map[int][]bool
}

func newNodeTracker(op opgraph.Op, leaf *pattern.Leaf) *nodeTracker {
	nt := &nodeTracker{
		node:              leaf,
		opUnhandledInput:  make([]bool, op.NumInputs()),
		opUnhandledOutput: make(map[int][]bool),
	}
	for i := range nt.opUnhandledInput {
		nt.opUnhandledInput[i] = true
	}

	pairFirst, pairSecond, hasPair := 0, 0, false
	if a, b, ok := leaf.CommutativePair(); ok {
		pairFirst, pairSecond, hasPair = a, b, true
	}

	// nested_matcher.cpp's constructor walks a deque of declared input
	// ports and, on reaching pairFirst, looks ahead for pairSecond among
	// the remaining entries: if pairSecond also has its own declared
	// producer, both ports are popped together into a single
	// COMMUTATIVE_TWO_CONSTRAINT task (deferring which pattern node binds
	// to which operator port until match time, since either permutation
	// may be valid); if pairSecond never shows up as its own producer,
	// pairFirst alone becomes COMMUTATIVE_ONE_CONSTRAINT, free to land on
	// either operator port. Every other port is NORMAL.
	ports := leaf.InputPorts()
	pairSecondDeclared := false
	if hasPair {
		for _, p := range ports {
			if p == pairSecond {
				pairSecondDeclared = true
				break
			}
		}
	}
	for _, p := range ports {
		switch {
		case hasPair && p == pairFirst && pairSecondDeclared:
			nt.srcToVisit = append(nt.srcToVisit, inputMatchTask{
				kind:           inputCommutativeTwoConstraint,
				port:           pairFirst,
				additionalPort: pairSecond,
			})
		case hasPair && p == pairFirst:
			nt.srcToVisit = append(nt.srcToVisit, inputMatchTask{
				kind:           inputCommutativeOneConstraint,
				port:           p,
				additionalPort: pairSecond,
			})
		case hasPair && p == pairSecond && pairSecondDeclared:
			// Folded into the TWO_CONSTRAINT task emitted above; the
			// reference constructor erases this port from its deque
			// rather than visiting it a second time.
		default:
			nt.srcToVisit = append(nt.srcToVisit, inputMatchTask{kind: inputNormal, port: p, additionalPort: -1})
		}
	}

	// opUnhandledOutput is sized against every real output port the operator
	// has, not just the ones the pattern declares an edge for, mirroring
	// opUnhandledInput above: classifyBoundaryPorts needs to see a leaf's
	// undeclared outputs too, to decide whether they dangle (no consumer at
	// all) or escape to an operator outside the matched set.
	for p := 0; p < op.NumOutputs(); p++ {
		n := op.NumOutputConsumers(p)
		handled := make([]bool, n)
		for i := range handled {
			handled[i] = true
		}
		nt.opUnhandledOutput[p] = handled
	}
	for _, p := range leaf.OutputPorts() {
		nt.dstToVisit = append(nt.dstToVisit, outputMatchTask{port: p})
	}
	return nt
}

func (nt *nodeTracker) getNode() pattern.Node { return nt.node }
