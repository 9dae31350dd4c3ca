package gitsbacked

import (
	"strconv"

	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/gits/src/transport"

	"github.com/voodooEntity/nestmatch/src/system/opgraph"
)

// Op wraps a gits "Op" entity. Arity is cached at wrap time; edges are
// resolved from the store on every call so a rewrite committed between
// scans is always visible.
type Op struct {
	graph *Graph
	id    int

	name    string
	matched bool
	numIn   int
	numOut  int
}

func (o *Op) refresh(e transport.TransportEntity) {
	o.name = e.Properties[propName]
	if o.name == "" {
		o.name = e.Value
	}
	o.matched = e.Properties[propMatched] == "true"
	o.numIn, _ = strconv.Atoi(e.Properties[propNumIn])
	o.numOut, _ = strconv.Atoi(e.Properties[propNumOut])
}

func (o *Op) Name() string           { return o.name }
func (o *Op) NumInputs() int         { return o.numIn }
func (o *Op) NumOutputs() int        { return o.numOut }
func (o *Op) HasMatchedMarker() bool { return o.matched }

// MarkMatched writes the matched property back to the store entity by ID
// (an update, not a MAP_FORCE_CREATE insert) and flips the in-process
// marker so the graph's identity registry reflects it immediately, without
// waiting on a re-query.
func (o *Op) MarkMatched() {
	o.matched = true
	o.graph.markMatched(o.id)
	o.graph.store.MapData(transport.TransportEntity{
		ID:         o.id,
		Type:       typeOp,
		Properties: map[string]string{propMatched: "true"},
	})
}

func (o *Op) NumOutputConsumers(port int) int {
	v, ok := o.OutputValue(port)
	if !ok {
		return 0
	}
	return len(v.Consumers())
}

// InputValue resolves the Value feeding operand port, following the Op's
// parent relations to the Value whose relation carries that port.
func (o *Op) InputValue(port int) (opgraph.Value, bool) {
	qry := query.New().Read(typeOp).Match("ID", "==", strconv.Itoa(o.id)).From(
		query.New().Read(typeValue),
	)
	result := o.graph.store.Query().Execute(qry)
	if len(result.Entities) == 0 {
		return nil, false
	}
	want := strconv.Itoa(port)
	for _, pr := range result.Entities[0].ParentRelations {
		if pr.Properties[propPort] == want {
			return o.graph.wrapValue(pr.Target), true
		}
	}
	return nil, false
}

// OutputValue resolves the Value produced at output port, following the
// Op's child relation that carries that port.
func (o *Op) OutputValue(port int) (opgraph.Value, bool) {
	qry := query.New().Read(typeOp).Match("ID", "==", strconv.Itoa(o.id)).To(
		query.New().Read(typeValue),
	)
	result := o.graph.store.Query().Execute(qry)
	if len(result.Entities) == 0 {
		return nil, false
	}
	want := strconv.Itoa(port)
	for _, cr := range result.Entities[0].ChildRelations {
		if cr.Properties[propPort] == want {
			return o.graph.wrapValue(cr.Target), true
		}
	}
	return nil, false
}

func (o *Op) OutputValues() []opgraph.Value {
	vals := make([]opgraph.Value, 0, o.numOut)
	for p := 0; p < o.numOut; p++ {
		if v, ok := o.OutputValue(p); ok {
			vals = append(vals, v)
		}
	}
	return vals
}
