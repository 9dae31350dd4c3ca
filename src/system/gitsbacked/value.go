package gitsbacked

import (
	"strconv"

	"github.com/voodooEntity/gits/src/query"

	"github.com/voodooEntity/nestmatch/src/system/opgraph"
)

// Value wraps a gits "Value" entity: at most one producer, an ordered list
// of consumers, both resolved from the store's parent/child relations.
type Value struct {
	graph *Graph
	id    int
}

func (v *Value) Producer() (opgraph.Op, int, bool) {
	qry := query.New().Read(typeValue).Match("ID", "==", strconv.Itoa(v.id)).From(
		query.New().Read(typeOp),
	)
	result := v.graph.store.Query().Execute(qry)
	if len(result.Entities) == 0 || len(result.Entities[0].ParentRelations) == 0 {
		return nil, 0, false
	}
	pr := result.Entities[0].ParentRelations[0]
	port, _ := strconv.Atoi(pr.Properties[propPort])
	return v.graph.wrapOp(pr.Target), port, true
}

func (v *Value) Consumers() []opgraph.Consumer {
	qry := query.New().Read(typeValue).Match("ID", "==", strconv.Itoa(v.id)).To(
		query.New().Read(typeOp),
	)
	result := v.graph.store.Query().Execute(qry)
	if len(result.Entities) == 0 {
		return nil
	}
	cons := make([]opgraph.Consumer, 0, len(result.Entities[0].ChildRelations))
	for _, cr := range result.Entities[0].ChildRelations {
		port, _ := strconv.Atoi(cr.Properties[propPort])
		cons = append(cons, opgraph.Consumer{Op: v.graph.wrapOp(cr.Target), Port: port})
	}
	return cons
}
