package main

import (
	"fmt"
	"log"
	"os"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/gits/src/transport"

	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/gitsbacked"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
	"github.com/voodooEntity/nestmatch/src/system/pm"
	"github.com/voodooEntity/nestmatch/src/system/rewrite"
	"github.com/voodooEntity/nestmatch/src/system/scanprogress"
)

func main() {
	logger := archivist.New(&archivist.Config{
		Logger:   log.New(os.Stdout, "", 0),
		LogLevel: archivist.LEVEL_INFO,
	})

	// bring up a fresh gits instance and seed it with a tiny add(mul(x, y), z)
	// operator graph: a mul Op feeding an add Op through one Value entity.
	store := gits.NewInstance("nestmatch-example")
	gits.SetDefault("nestmatch-example")

	store.MapData(transport.TransportEntity{
		Type:       "Op",
		Value:      "mul",
		Properties: map[string]string{"name": "mul", "inputs": "2", "outputs": "1"},
		ChildRelations: []transport.TransportRelation{
			{Properties: map[string]string{"port": "0"}, Target: transport.TransportEntity{
				Type: "Value",
				ChildRelations: []transport.TransportRelation{
					{Properties: map[string]string{"port": "0"}, Target: transport.TransportEntity{
						Type: "Op", Value: "add", Properties: map[string]string{"name": "add", "inputs": "2", "outputs": "1"},
					}},
				},
			}},
		},
	})

	// build the pattern: mul feeding add's first input, add's second input
	// left as an external operand.
	nameIs := func(name string) pattern.Predicate {
		return func(op opgraph.Op) bool { return op.Name() == name }
	}
	b := pattern.NewBuilder()
	b.Leaf("mul", nameIs("mul")).
		Leaf("add", nameIs("add")).
		Connect("mul", 0, "add", 0).
		AllowInternalInput("add", 1)
	root, err := b.Build("mul", "add")
	if err != nil {
		log.Fatalf("pattern build failed: %v", err)
	}

	graph := gitsbacked.NewGraph(store)
	rewriter := &rewrite.LoggingRewriter{Next: rewrite.MarkMatchedRewriter{}, Log: logger}

	scan := func() {
		candidates := graph.Roots("Op")
		m, ok := pm.MatchPattern(root, candidates, pm.DefaultOptions(), logger)
		if !ok {
			return
		}
		if err := rewriter.Rewrite(m); err != nil {
			logger.ErrorF("rewrite failed: %v", err)
		}
	}

	reporter := scanprogress.New(func() int {
		return graph.UnmatchedCount("Op")
	}, func() {
		logger.Info("scan complete")
	}, logger)
	reporter.RegisterTickFunction(scan)
	reporter.SetTickRate(1)
	reporter.Loop()

	res := store.Query().Execute(query.New().Read("Op"))
	fmt.Printf("%+v\n", res)
}
