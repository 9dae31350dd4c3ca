package pm

import (
	"testing"

	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// Scenario 1: linear pass-through. Pattern add -> relu; graph x -> add ->
// relu -> (unclaimed). Both operands of add come from outside the match.
func TestLinearPassThrough(t *testing.T) {
	b := pattern.NewBuilder()
	b.Leaf("add", nameIs("add")).
		Leaf("relu", nameIs("relu")).
		Connect("add", 0, "relu", 0)
	root, err := b.Build("add", "relu")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	add := newFakeOp("add", 2, 1)
	relu := newFakeOp("relu", 1, 1)
	externalInput(add, 0)
	externalInput(add, 1)
	connect(add, 0, relu, 0)

	m, ok := MatchPattern(root, []opgraph.Op{add}, DefaultOptions(), nil)
	if !ok {
		t.Fatal("expected match")
	}
	if len(m.Bindings) != 2 {
		t.Fatalf("expected 2 bound ops, got %d", len(m.Bindings))
	}
	if len(m.Inputs) != 2 {
		t.Fatalf("expected 2 external inputs, got %d", len(m.Inputs))
	}
	if len(m.Outputs) != 1 {
		t.Fatalf("expected 1 external output (relu has no consumer at all, so it's external), got %d", len(m.Outputs))
	}
}

// Scenario 2: commutative disambiguation. add's commutative pair (0,1)
// carries P_conv on port 0 and P_bias on port 1; the graph wires them in
// the opposite order, and the match must still succeed by swapping. The
// pattern is seeded at add itself: both operands carry their own declared
// producer, so tracker construction folds them into a single two-constraint
// task and match-time attribute checks decide which real operand lands on
// which pattern port. conv's and bias's own declared output edges still
// name add's original (pre-swap) port, which now disagrees with where the
// real edge actually lands — output matching accepts that once add's
// tracker already confirms which pattern leaf owns the other end.
func TestCommutativeDisambiguation(t *testing.T) {
	isConvOut := func(op opgraph.Op) bool { return op.Name() == "conv" }
	isBias := func(op opgraph.Op) bool { return op.Name() == "bias" }

	b := pattern.NewBuilder()
	b.Leaf("convSrc", isConvOut).
		Leaf("biasSrc", isBias).
		Leaf("add", nameIs("add")).
		Connect("convSrc", 0, "add", 0).
		Connect("biasSrc", 0, "add", 1).
		CommutativePair("add", 0, 1)
	root, err := b.Build("add")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	conv := newFakeOp("conv", 1, 1)
	bias := newFakeOp("bias", 1, 1)
	add := newFakeOp("add", 2, 1)
	externalInput(conv, 0)
	externalInput(bias, 0)
	// wire in the mirrored order: bias feeds port 0, conv feeds port 1.
	connect(bias, 0, add, 0)
	connect(conv, 0, add, 1)

	m, ok := MatchPattern(root, []opgraph.Op{add}, DefaultOptions(), nil)
	if !ok {
		t.Fatal("expected commutative match to succeed regardless of operand order")
	}
	if len(m.Bindings) != 3 {
		t.Fatalf("expected 3 bound ops, got %d", len(m.Bindings))
	}
	if m.Bindings[conv] == m.Bindings[bias] {
		t.Fatal("expected conv and bias to bind to distinct pattern leaves")
	}
}

// Scenario 3: alternation commit. Alt[relu, gelu] after conv; the graph
// uses gelu, so only gelu may appear in the bindings.
func TestAlternationCommit(t *testing.T) {
	b := pattern.NewBuilder()
	b.Leaf("conv", nameIs("conv")).
		Leaf("relu", nameIs("relu")).
		Leaf("gelu", nameIs("gelu")).
		Graph("reluBranch", []string{"relu"}, map[int]pattern.AliasEndpoint{0: {Alias: "relu", Port: 0}}, map[int]pattern.AliasEndpoint{0: {Alias: "relu", Port: 0}}).
		Graph("geluBranch", []string{"gelu"}, map[int]pattern.AliasEndpoint{0: {Alias: "gelu", Port: 0}}, map[int]pattern.AliasEndpoint{0: {Alias: "gelu", Port: 0}}).
		Alternation("act", "reluBranch", "geluBranch").
		Connect("conv", 0, "act", 0)

	root, err := b.Build("conv", "act")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	conv := newFakeOp("conv", 1, 1)
	gelu := newFakeOp("gelu", 1, 1)
	externalInput(conv, 0)
	connect(conv, 0, gelu, 0)

	m, ok := MatchPattern(root, []opgraph.Op{conv}, DefaultOptions(), nil)
	if !ok {
		t.Fatal("expected alternation match via gelu branch")
	}
	sawGelu := false
	for op := range m.Bindings {
		if op.Name() == "relu" {
			t.Fatal("relu branch must not appear in a match committed to gelu")
		}
		if op.Name() == "gelu" {
			sawGelu = true
		}
	}
	if !sawGelu {
		t.Fatal("expected gelu operator in bindings")
	}
}

// Scenario 4: repetition exact-two. Rep(Body=add, min=2, max=2). A chain
// of exactly two adds must match; one or three must not.
func TestRepetitionExactTwo(t *testing.T) {
	buildPattern := func() *pattern.Graph {
		b := pattern.NewBuilder()
		b.Leaf("addBody", nameIs("add")).
			Graph("body", []string{"addBody"},
				map[int]pattern.AliasEndpoint{0: {Alias: "addBody", Port: 0}},
				map[int]pattern.AliasEndpoint{0: {Alias: "addBody", Port: 0}}).
			Repetition("rep", "body", []pattern.PortMap{{BodyOutPort: 0, BodyInPort: 0}}, 2, 2)
		root, err := b.Build("rep")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return root
	}

	twoAdds := func() *fakeOp {
		a1 := newFakeOp("add", 2, 1)
		a2 := newFakeOp("add", 2, 1)
		externalInput(a1, 0)
		externalInput(a1, 1)
		connect(a1, 0, a2, 0)
		externalInput(a2, 1)
		return a1
	}

	root := buildPattern()
	seed := twoAdds()
	if _, ok := MatchPattern(root, []opgraph.Op{seed}, DefaultOptions(), nil); !ok {
		t.Fatal("expected exactly-two-adds chain to match Rep(2,2)")
	}

	root = buildPattern()
	one := newFakeOp("add", 2, 1)
	externalInput(one, 0)
	externalInput(one, 1)
	if _, ok := MatchPattern(root, []opgraph.Op{one}, DefaultOptions(), nil); ok {
		t.Fatal("expected single add to fail Rep(2,2)")
	}
}

// Scenario 5: zero-trip optional. matmul -> Rep(bias_add, 0, 1) -> relu.
func TestZeroTripOptional(t *testing.T) {
	buildPattern := func() *pattern.Graph {
		b := pattern.NewBuilder()
		b.Leaf("matmul", nameIs("matmul")).
			Leaf("biasBody", nameIs("bias_add")).
			Leaf("relu", nameIs("relu")).
			Graph("body", []string{"biasBody"},
				map[int]pattern.AliasEndpoint{0: {Alias: "biasBody", Port: 0}},
				map[int]pattern.AliasEndpoint{0: {Alias: "biasBody", Port: 0}}).
			Repetition("rep", "body", []pattern.PortMap{{BodyOutPort: 0, BodyInPort: 0}}, 0, 1).
			Connect("matmul", 0, "rep", 0).
			Connect("rep", 0, "relu", 0)
		root, err := b.Build("matmul", "rep", "relu")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return root
	}

	// matmul -> relu directly (zero trips).
	mm := newFakeOp("matmul", 2, 1)
	relu := newFakeOp("relu", 1, 1)
	externalInput(mm, 0)
	externalInput(mm, 1)
	connect(mm, 0, relu, 0)
	if _, ok := MatchPattern(buildPattern(), []opgraph.Op{mm}, DefaultOptions(), nil); !ok {
		t.Fatal("expected matmul->relu with zero repetitions to match")
	}

	// matmul -> bias_add -> relu (one trip).
	mm2 := newFakeOp("matmul", 2, 1)
	bias := newFakeOp("bias_add", 1, 1)
	relu2 := newFakeOp("relu", 1, 1)
	externalInput(mm2, 0)
	externalInput(mm2, 1)
	connect(mm2, 0, bias, 0)
	connect(bias, 0, relu2, 0)
	if _, ok := MatchPattern(buildPattern(), []opgraph.Op{mm2}, DefaultOptions(), nil); !ok {
		t.Fatal("expected matmul->bias_add->relu with one repetition to match")
	}
}

// Scenario 7: cache transparency. Matching with a PatternCache produces
// the same outcome as matching directly.
func TestCacheTransparency(t *testing.T) {
	b := pattern.NewBuilder()
	b.Leaf("add", nameIs("add")).
		Leaf("relu", nameIs("relu")).
		Connect("add", 0, "relu", 0)
	root, err := b.Build("add", "relu")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	add := newFakeOp("add", 2, 1)
	relu := newFakeOp("relu", 1, 1)
	externalInput(add, 0)
	externalInput(add, 1)
	connect(add, 0, relu, 0)

	direct, directOK := MatchPattern(root, []opgraph.Op{add}, DefaultOptions(), nil)

	cache := NewPatternCache(nil)
	cached, cachedOK := cache.MatchPattern(add, root, true, true)
	if directOK != cachedOK {
		t.Fatalf("cache changed match outcome: direct=%v cached=%v", directOK, cachedOK)
	}
	if len(direct.Bindings) != len(cached.Bindings) {
		t.Fatalf("cache changed binding count: direct=%d cached=%d", len(direct.Bindings), len(cached.Bindings))
	}

	// A second call against the same pattern shape must hit the
	// signature-validation cache (observable via the hit counter), even
	// though the recursive match against add itself always re-runs.
	cache.MatchPattern(add, root, true, true)
	hits, _ := cache.Stats()
	if hits == 0 {
		t.Fatal("expected at least one cache hit on repeated lookup")
	}
}

// Scenario 8: backward equivalence. Seeding at the chain's tail with
// MatchForward=false matches the same operator set as seeding at the head
// with MatchForward=true.
func TestBackwardEquivalence(t *testing.T) {
	build := func() *pattern.Graph {
		b := pattern.NewBuilder()
		b.Leaf("add", nameIs("add")).
			Leaf("relu", nameIs("relu")).
			Connect("add", 0, "relu", 0)
		root, err := b.Build("add", "relu")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return root
	}

	add := newFakeOp("add", 2, 1)
	relu := newFakeOp("relu", 1, 1)
	externalInput(add, 0)
	externalInput(add, 1)
	connect(add, 0, relu, 0)

	forward := DefaultOptions()
	backward := DefaultOptions()
	backward.MatchForward = false

	fwd, fwdOK := MatchPattern(build(), []opgraph.Op{add}, forward, nil)
	bwd, bwdOK := MatchPattern(build(), []opgraph.Op{relu}, backward, nil)
	if !fwdOK || !bwdOK {
		t.Fatalf("expected both directions to match: fwd=%v bwd=%v", fwdOK, bwdOK)
	}
	if len(fwd.Bindings) != len(bwd.Bindings) {
		t.Fatalf("forward and backward matched different operator counts: %d vs %d", len(fwd.Bindings), len(bwd.Bindings))
	}
}

// Scenario 6: external-input gating. conv's weight input, when its
// producer sits outside the matched set, is always accepted as external —
// regardless of AutoExportExternals.
func TestExternalInputGating(t *testing.T) {
	b := pattern.NewBuilder()
	b.Leaf("conv", nameIs("conv")).
		AllowInternalInput("conv", 99) // never used; conv has no internal-input port declared here
	root, err := b.Build("conv")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	conv := newFakeOp("conv", 2, 1)
	externalInput(conv, 0) // data
	externalInput(conv, 1) // weight, produced entirely outside the match

	opts := DefaultOptions()
	opts.AutoExportExternals = false
	m, ok := MatchPattern(root, []opgraph.Op{conv}, opts, nil)
	if !ok {
		t.Fatal("expected external weight producer to always be accepted as an input")
	}
	if len(m.Inputs) != 2 {
		t.Fatalf("expected both conv inputs to be recorded as external, got %d", len(m.Inputs))
	}
}
