package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// matchAttributes runs a leaf's predicates against a candidate operator. An
// operator already claimed by a prior rewrite is never eligible.
func matchAttributes(op opgraph.Op, leaf *pattern.Leaf) bool {
	if op.HasMatchedMarker() {
		return false
	}
	for _, pred := range leaf.Predicates {
		if !pred(op) {
			return false
		}
	}
	return true
}
