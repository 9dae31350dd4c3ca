package pm

import (
	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// portMapEntry records which live (op, port) answers for one exterior port
// of a composite pattern node.
type portMapEntry struct {
	Op   opgraph.Op
	Port int
}

// matchContext is the scope a single Graph/Alternation/Repetition match
// runs in: its own work queue, its own tracked operators, and the port maps
// it accumulates for its enclosing scope to pick up.
type matchContext struct {
	parent *matchContext

	// graph is non-nil only when selfNode is a *pattern.Graph — a plain
	// staging context (used by Repetition's confirmed/speculative/per-
	// iteration scopes) has no graph scope of its own.
	graph    *pattern.Graph
	selfNode pattern.Node

	opsToVisit []opgraph.Op

	trackers map[opgraph.Op]*nodeTracker
	// discovered records the order operators were bound in, since Go map
	// iteration over trackers is randomized and downstream port-numbering
	// (classifyBoundaryPorts) must be deterministic across repeated matches
	// of the same pattern/graph.
	discovered []opgraph.Op

	unhandled map[pattern.Node]struct{}

	inPortMap  map[int]portMapEntry
	outPortMap map[int]portMapEntry

	// log is inherited from parent at construction time; the top-level
	// call in toplevel.go seeds it on the root context, since that is the
	// only place a caller ever supplies one. May be nil.
	log *archivist.Archivist
}

func newMatchContext(parent *matchContext, self pattern.Node) *matchContext {
	ctx := &matchContext{
		parent:     parent,
		selfNode:   self,
		trackers:   make(map[opgraph.Op]*nodeTracker),
		unhandled:  make(map[pattern.Node]struct{}),
		inPortMap:  make(map[int]portMapEntry),
		outPortMap: make(map[int]portMapEntry),
	}
	if parent != nil {
		ctx.log = parent.log
	}
	if g, ok := self.(*pattern.Graph); ok {
		ctx.graph = g
	}
	return ctx
}

// findTracker walks the context chain outward, since a match may reference
// an operator already bound by an enclosing scope.
func (ctx *matchContext) findTracker(op opgraph.Op) (*nodeTracker, bool) {
	for c := ctx; c != nil; c = c.parent {
		if nt, ok := c.trackers[op]; ok {
			return nt, true
		}
	}
	return nil, false
}
