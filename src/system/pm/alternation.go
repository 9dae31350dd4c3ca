package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// matchAlternation tries each alternative in declaration order and commits
// to the first that matches; there is no backtracking once a later step
// fails; the whole alternation simply fails.
//
// Each candidate is matched with parentCtx as its real parent (not a fake
// scope) since we settle for the first success and never need to roll one
// back. Because the alternative body itself is not wired to the outside
// world — only the Alternation node is — its captured port maps are
// reconciled separately against the Alternation's own declared edges.
func matchAlternation(b binding, parentCtx *matchContext) bool {
	alt, ok := b.node.(*pattern.Alternation)
	if !ok {
		return false
	}
	if parentCtx.log != nil {
		parentCtx.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "pm matchAlternation alias=", alt.Alias(), " alternatives=", len(alt.Alternatives))
	}
	var maps ioMaps
	matched := false
	for _, g := range alt.Alternatives {
		candidateBind := b
		candidateBind.node = g
		var candidate ioMaps
		if matchGraph(candidateBind, parentCtx, &candidate) {
			maps = candidate
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if !matchGraphInputs(parentCtx, alt, b, maps.in) {
		return false
	}
	if !matchGraphOutputs(parentCtx, alt, maps.out) {
		return false
	}
	delete(parentCtx.unhandled, alt)
	return true
}
