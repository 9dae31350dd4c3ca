package pm

import (
	"sort"

	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// MatchOptions configures a MatchPattern call, mirroring the reference
// entry function's auto_export_externals and match_forward parameters.
type MatchOptions struct {
	// AutoExportExternals relaxes the boundary-edge policy: when true, any
	// unhandled edge crossing the matched set's boundary is accepted,
	// whether it lands on an internal operator the pattern never declared
	// an edge to, or a genuinely external one. When false, an
	// internal-but-unhandled input needs the leaf's AllowedInternalInput,
	// and an externally-consumed output needs either AllowedExternalOutput
	// or the leaf to be a direct member of the top-level pattern.
	AutoExportExternals bool
	// MatchForward seeds the root pattern's first node against the
	// candidate operator; false seeds the last node instead, for callers
	// walking the operator graph tail-to-head.
	MatchForward bool
}

// DefaultOptions returns the reference matcher's defaults: externals
// auto-exported, matching seeded forward.
func DefaultOptions() MatchOptions {
	return MatchOptions{AutoExportExternals: true, MatchForward: true}
}

// MatchPattern tries root against each of candidates in order, returning
// the first successful Match. Operators already carrying the matched
// marker are skipped without attempting attribute evaluation. log may be
// nil.
func MatchPattern(root *pattern.Graph, candidates []opgraph.Op, opts MatchOptions, log *archivist.Archivist) (*Match, bool) {
	for _, op := range candidates {
		if m, ok := tryMatchRoot(root, op, opts, log); ok {
			return m, true
		}
	}
	return nil, false
}

func tryMatchRoot(root *pattern.Graph, op opgraph.Op, opts MatchOptions, log *archivist.Archivist) (*Match, bool) {
	if op.HasMatchedMarker() {
		return nil, false
	}
	if len(root.Nodes) == 0 {
		return nil, false
	}
	seed := root.Nodes[0]
	if !opts.MatchForward {
		seed = root.Nodes[len(root.Nodes)-1]
	}
	ctx := newMatchContext(nil, root)
	ctx.log = log
	for _, n := range root.Nodes {
		ctx.unhandled[n] = struct{}{}
	}
	if !resolveNode(binding{kind: bindNone, node: seed, op: op}, ctx) {
		return nil, false
	}
	for len(ctx.opsToVisit) > 0 {
		cur := ctx.opsToVisit[0]
		ctx.opsToVisit = ctx.opsToVisit[1:]
		if !matchNode(cur, ctx) {
			return nil, false
		}
	}
	for n := range ctx.unhandled {
		rep, isRep := n.(*pattern.Repetition)
		if !isRep || rep.MinRep != 0 {
			return nil, false
		}
	}
	if !classifyBoundaryPorts(ctx, opts) {
		return nil, false
	}
	if log != nil {
		log.DebugF(archivist.DEBUG_LEVEL_INFO, "MatchPattern: matched root op %s", op.Name())
	}
	return newMatch(ctx), true
}

// classifyBoundaryPorts walks every residual unhandled edge left on the
// matched operators, deciding for each whether it may cross the matched
// set's boundary and, if so, recording it into the top-level ctx.inPortMap
// / ctx.outPortMap. These maps are populated here rather than by
// updateInnerPortMaps, since the top-level pattern graph has no
// caller-declared exterior ports to reconcile against — exterior port
// numbers are simply assigned in discovery order. Iteration walks
// ctx.discovered (the order operators were bound in) rather than ranging
// ctx.trackers directly, and each operator's own output ports are visited in
// sorted order, so that matching the same pattern against the same graph
// always assigns the same port numbers — spec.md's ordering guarantee would
// otherwise depend on Go's randomized map iteration order.
func classifyBoundaryPorts(ctx *matchContext, opts MatchOptions) bool {
	rootLeaves := make(map[*pattern.Leaf]struct{})
	if ctx.graph != nil {
		for _, n := range ctx.graph.Nodes {
			if l, ok := n.(*pattern.Leaf); ok {
				rootLeaves[l] = struct{}{}
			}
		}
	}

	nextIn, nextOut := 0, 0
	for _, op := range ctx.discovered {
		nt := ctx.trackers[op]
		leaf, ok := nt.getNode().(*pattern.Leaf)
		if !ok {
			continue
		}
		for port, unhandled := range nt.opUnhandledInput {
			if !unhandled {
				continue
			}
			val, ok := op.InputValue(port)
			if !ok {
				continue
			}
			prodOp, _, hasProducer := val.Producer()
			internal := false
			if hasProducer {
				_, internal = ctx.trackers[prodOp]
			}
			if internal {
				if !opts.AutoExportExternals && !leaf.AllowedInternalInput(port) {
					return false
				}
				continue
			}
			// No producer, or a producer outside the matched set: always a
			// legal external input.
			ctx.inPortMap[nextIn] = portMapEntry{Op: op, Port: port}
			nextIn++
		}

		outPorts := make([]int, 0, len(nt.opUnhandledOutput))
		for port := range nt.opUnhandledOutput {
			outPorts = append(outPorts, port)
		}
		sort.Ints(outPorts)
		for _, port := range outPorts {
			handled := nt.opUnhandledOutput[port]
			val, ok := op.OutputValue(port)
			// A port with no Value at all has zero consumers and is always
			// exported, per the reference matcher's boundary rule.
			hasExternalConsumer := !ok
			if ok {
				for i, c := range val.Consumers() {
					if i < len(handled) && !handled[i] {
						continue // this consumer slot was already claimed by the pattern
					}
					if _, tracked := ctx.trackers[c.Op]; !tracked {
						hasExternalConsumer = true
					}
				}
			}
			if !hasExternalConsumer {
				continue
			}
			_, isRootLeaf := rootLeaves[leaf]
			if !opts.AutoExportExternals && !isRootLeaf && !leaf.AllowedExternalOutput(port) {
				return false
			}
			ctx.outPortMap[nextOut] = portMapEntry{Op: op, Port: port}
			nextOut++
		}
	}
	return true
}
