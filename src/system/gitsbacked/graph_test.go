package gitsbacked

import (
	"testing"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/transport"
)

// seedGraph wires a fresh gits instance the way scheduler_test_utils.go
// seeds fixtures: each test passes its own instance name so tests never
// share a store.
func seedGraph(t *testing.T, instanceName string) *gits.Gits {
	t.Helper()
	store := gits.NewInstance(instanceName)
	gits.SetDefault(instanceName)
	return store
}

func TestRootsAndArity(t *testing.T) {
	store := seedGraph(t, "gitsbacked-roots")
	store.MapData(transport.TransportEntity{
		Type:       typeOp,
		Value:      "add",
		Properties: map[string]string{propName: "add", propNumIn: "2", propNumOut: "1"},
	})
	store.MapData(transport.TransportEntity{
		Type:       typeOp,
		Value:      "relu",
		Properties: map[string]string{propName: "relu", propNumIn: "1", propNumOut: "1"},
	})

	g := NewGraph(store)
	ops := g.Roots(typeOp)
	if len(ops) != 2 {
		t.Fatalf("expected 2 root ops, got %d", len(ops))
	}
	names := map[string]bool{}
	for _, op := range ops {
		names[op.Name()] = true
		if op.HasMatchedMarker() {
			t.Fatalf("freshly seeded op %s should not carry the matched marker", op.Name())
		}
	}
	if !names["add"] || !names["relu"] {
		t.Fatalf("expected add and relu among roots, got %v", names)
	}
}

func TestOutputValueAndConsumers(t *testing.T) {
	store := seedGraph(t, "gitsbacked-edges")
	store.MapData(transport.TransportEntity{
		Type:       typeOp,
		Value:      "add",
		Properties: map[string]string{propName: "add", propNumIn: "2", propNumOut: "1"},
		ChildRelations: []transport.TransportRelation{
			{Properties: map[string]string{propPort: "0"}, Target: transport.TransportEntity{
				Type: typeValue,
				ChildRelations: []transport.TransportRelation{
					{Properties: map[string]string{propPort: "0"}, Target: transport.TransportEntity{
						Type: typeOp, Value: "relu", Properties: map[string]string{propName: "relu", propNumIn: "1", propNumOut: "1"},
					}},
				},
			}},
		},
	})

	g := NewGraph(store)
	var add *Op
	for _, op := range g.Roots(typeOp) {
		if op.Name() == "add" {
			add = op.(*Op)
		}
	}
	if add == nil {
		t.Fatal("expected to find add op")
	}
	if add.NumOutputConsumers(0) != 1 {
		t.Fatalf("expected add's output 0 to have 1 consumer, got %d", add.NumOutputConsumers(0))
	}
	val, ok := add.OutputValue(0)
	if !ok {
		t.Fatal("expected add to have an output value at port 0")
	}
	consumers := val.Consumers()
	if len(consumers) != 1 || consumers[0].Op.Name() != "relu" || consumers[0].Port != 0 {
		t.Fatalf("unexpected consumers: %+v", consumers)
	}
}

func TestMarkMatchedUpdatesUnmatchedCount(t *testing.T) {
	store := seedGraph(t, "gitsbacked-mark")
	store.MapData(transport.TransportEntity{
		Type:       typeOp,
		Value:      "add",
		Properties: map[string]string{propName: "add", propNumIn: "2", propNumOut: "1"},
	})

	g := NewGraph(store)
	if got := g.UnmatchedCount(typeOp); got != 1 {
		t.Fatalf("expected 1 unmatched op before marking, got %d", got)
	}
	ops := g.Roots(typeOp)
	ops[0].(*Op).MarkMatched()
	if got := g.UnmatchedCount(typeOp); got != 0 {
		t.Fatalf("expected 0 unmatched ops after marking, got %d", got)
	}
	if !ops[0].HasMatchedMarker() {
		t.Fatal("expected HasMatchedMarker to reflect MarkMatched immediately")
	}
}
