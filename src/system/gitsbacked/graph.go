// Package gitsbacked implements opgraph.Op/opgraph.Value on top of a
// github.com/voodooEntity/gits entity store: operators are "Op" entities,
// their outputs are "Value" entities reached by a child relation whose
// "port" property is the producing port, and a Value's consumers are "Op"
// entities reached by the Value's own child relations, each carrying the
// consuming port. Relations are told apart by their endpoint entity types
// and port property, not by a relation name. Arity is
// read from the Op entity's own Properties rather than derived from
// however many edges happen to be wired, since arity is intrinsic to the
// operator kind.
package gitsbacked

import (
	"strconv"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/gits/src/transport"

	"github.com/voodooEntity/nestmatch/src/system/opgraph"
)

const (
	typeOp      = "Op"
	typeValue   = "Value"
	relOutput   = "output"
	relConsumes = "consumes"

	propName     = "name"
	propMatched  = "matched"
	propNumIn    = "inputs"
	propNumOut   = "outputs"
	propPort     = "port"
)

// Graph is a live view over a gits store, memoizing wrapped operators and
// values by their entity ID so the same underlying entity always resolves
// to the same *Op / *Value regardless of which edge reached it.
type Graph struct {
	store *gits.Gits

	ops     map[int]*Op
	values  map[int]*Value
	matched map[int]struct{}
}

func NewGraph(store *gits.Gits) *Graph {
	return &Graph{
		store:   store,
		ops:     make(map[int]*Op),
		values:  make(map[int]*Value),
		matched: make(map[int]struct{}),
	}
}

// Roots queries every entity of typeName and returns them wrapped as Ops,
// suitable as pm.MatchPattern candidates.
func (g *Graph) Roots(typeName string) []opgraph.Op {
	qry := query.New().Read(typeName)
	result := g.store.Query().Execute(qry)
	ops := make([]opgraph.Op, 0, len(result.Entities))
	for _, e := range result.Entities {
		ops = append(ops, g.wrapOp(e))
	}
	return ops
}

func (g *Graph) wrapOp(e transport.TransportEntity) *Op {
	if existing, ok := g.ops[e.ID]; ok {
		return existing
	}
	op := &Op{graph: g, id: e.ID}
	op.refresh(e)
	g.ops[e.ID] = op
	return op
}

func (g *Graph) wrapValue(e transport.TransportEntity) *Value {
	if existing, ok := g.values[e.ID]; ok {
		return existing
	}
	v := &Value{graph: g, id: e.ID}
	g.values[e.ID] = v
	return v
}

// UnmatchedCount counts entities of typeName that neither carry a
// "matched" property nor have had MarkMatched called on their in-process
// wrapper this run, giving scanprogress.Reporter a CountFunc for the
// remaining scan work. Op.MarkMatched writes the property back to the store
// and also records the ID in the in-process g.matched set; the count checks
// both, so anything matched since this Graph was constructed is excluded
// without depending on when the store's write becomes visible to a query.
func (g *Graph) UnmatchedCount(typeName string) int {
	qry := query.New().Read(typeName)
	result := g.store.Query().Execute(qry)
	remaining := 0
	for _, e := range result.Entities {
		if e.Properties[propMatched] == "true" {
			continue
		}
		if _, done := g.matched[e.ID]; done {
			continue
		}
		remaining++
	}
	return remaining
}

func (g *Graph) markMatched(id int) {
	g.matched[id] = struct{}{}
}

// OpByID fetches (or returns the cached wrapper for) the Op entity with id.
func (g *Graph) OpByID(id int) (*Op, bool) {
	if op, ok := g.ops[id]; ok {
		return op, true
	}
	qry := query.New().Read(typeOp).Match("ID", "==", strconv.Itoa(id))
	result := g.store.Query().Execute(qry)
	if len(result.Entities) == 0 {
		return nil, false
	}
	return g.wrapOp(result.Entities[0]), true
}
