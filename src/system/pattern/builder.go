package pattern

import "fmt"

// Builder is a fluent constructor for pattern trees, the pattern-side
// analogue of configBuilder's Structure chain: nodes are declared by alias,
// wired by alias, and validated only once at Build().
//
// Builder is NOT safe for concurrent use.
type Builder struct {
	leaves map[string]*Leaf
	graphs map[string]*Graph
	alts   map[string]*Alternation
	reps   map[string]*Repetition
	order  []string
	errs   []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		leaves: make(map[string]*Leaf),
		graphs: make(map[string]*Graph),
		alts:   make(map[string]*Alternation),
		reps:   make(map[string]*Repetition),
	}
}

func (b *Builder) taken(alias string) bool {
	_, ok1 := b.leaves[alias]
	_, ok2 := b.graphs[alias]
	_, ok3 := b.alts[alias]
	_, ok4 := b.reps[alias]
	return ok1 || ok2 || ok3 || ok4
}

// Leaf declares a new leaf position under alias, matched by preds.
func (b *Builder) Leaf(alias string, preds ...Predicate) *Builder {
	if b.taken(alias) {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateAlias, alias))
		return b
	}
	l := &Leaf{
		alias:                  alias,
		edges:                  newEdges(),
		allowedInternalInputs:  make(map[int]struct{}),
		allowedExternalOutputs: make(map[int]struct{}),
	}
	l.Predicates = append(l.Predicates, preds...)
	b.leaves[alias] = l
	b.order = append(b.order, alias)
	return b
}

func (b *Builder) lookup(alias string) (Node, bool) {
	if l, ok := b.leaves[alias]; ok {
		return l, true
	}
	if g, ok := b.graphs[alias]; ok {
		return g, true
	}
	if a, ok := b.alts[alias]; ok {
		return a, true
	}
	if r, ok := b.reps[alias]; ok {
		return r, true
	}
	return nil, false
}

// Connect wires fromAlias's output port fromPort as a producer for
// toAlias's input port toPort. Both aliases must already be declared.
func (b *Builder) Connect(fromAlias string, fromPort int, toAlias string, toPort int) *Builder {
	from, ok1 := b.lookup(fromAlias)
	to, ok2 := b.lookup(toAlias)
	if !ok1 {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, fromAlias))
		return b
	}
	if !ok2 {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, toAlias))
		return b
	}
	if fromWire, ok := from.(wireable); ok {
		fromWire.addConsumer(fromPort, Endpoint{Node: to, Port: toPort})
	}
	if toWire, ok := to.(wireable); ok {
		toWire.setProducer(toPort, Endpoint{Node: from, Port: fromPort})
	}
	return b
}

// CommutativePair declares alias's input ports a and b as an interchangeable
// operand pair.
func (b *Builder) CommutativePair(alias string, a, b2 int) *Builder {
	l, ok := b.leaves[alias]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, alias))
		return b
	}
	if a == b2 {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrCommutativeArity, alias))
		return b
	}
	l.commutative = &[2]int{a, b2}
	return b
}

// AllowInternalInput records that alias's input port may remain unhandled
// (bound to another matched operator) without being exported as external,
// even when auto-export is disabled.
func (b *Builder) AllowInternalInput(alias string, port int) *Builder {
	l, ok := b.leaves[alias]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, alias))
		return b
	}
	l.allowedInternalInputs[port] = struct{}{}
	return b
}

// AllowExternalOutput records that alias's output port may be exported to an
// external consumer without failing the match when auto-export is disabled.
func (b *Builder) AllowExternalOutput(alias string, port int) *Builder {
	l, ok := b.leaves[alias]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, alias))
		return b
	}
	l.allowedExternalOutputs[port] = struct{}{}
	return b
}

// AliasEndpoint names a (node, port) pair by the node's Builder alias,
// resolved to a concrete Endpoint when the enclosing Graph is declared —
// the exposeIn/exposeOut counterpart to Connect's alias-based wiring.
type AliasEndpoint struct {
	Alias string
	Port  int
}

// Graph declares a nested pattern graph under alias, made of the nodes
// referenced by memberAliases in declaration order. exposeIn/exposeOut wire
// the graph's exterior ports to interior (alias, port) endpoints; pass nil
// for either when the graph has no such ports.
func (b *Builder) Graph(alias string, memberAliases []string, exposeIn map[int]AliasEndpoint, exposeOut map[int]AliasEndpoint) *Builder {
	if b.taken(alias) {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateAlias, alias))
		return b
	}
	if len(memberAliases) == 0 {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrNoNodes, alias))
		return b
	}
	nodes := make([]Node, 0, len(memberAliases))
	for _, m := range memberAliases {
		n, ok := b.lookup(m)
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, m))
			return b
		}
		nodes = append(nodes, n)
	}
	g := &Graph{
		alias:          alias,
		Nodes:          nodes,
		edges:          newEdges(),
		innerConsumers: make(map[int]Endpoint),
		innerProducer:  make(map[int]Endpoint),
	}
	for port, ae := range exposeIn {
		n, ok := b.lookup(ae.Alias)
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, ae.Alias))
			return b
		}
		g.innerConsumers[port] = Endpoint{Node: n, Port: ae.Port}
	}
	for port, ae := range exposeOut {
		n, ok := b.lookup(ae.Alias)
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, ae.Alias))
			return b
		}
		g.innerProducer[port] = Endpoint{Node: n, Port: ae.Port}
	}
	b.graphs[alias] = g
	b.order = append(b.order, alias)
	return b
}

// Alternation declares an ordered set of alternative graphs under alias.
func (b *Builder) Alternation(alias string, alternativeGraphAliases ...string) *Builder {
	if b.taken(alias) {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateAlias, alias))
		return b
	}
	alts := make([]*Graph, 0, len(alternativeGraphAliases))
	for _, ga := range alternativeGraphAliases {
		g, ok := b.graphs[ga]
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, ga))
			return b
		}
		alts = append(alts, g)
	}
	b.alts[alias] = &Alternation{alias: alias, Alternatives: alts, edges: newEdges()}
	b.order = append(b.order, alias)
	return b
}

// Repetition declares a bounded repetition of bodyGraphAlias under alias.
func (b *Builder) Repetition(alias string, bodyGraphAlias string, portMaps []PortMap, minRep, maxRep int) *Builder {
	if b.taken(alias) {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateAlias, alias))
		return b
	}
	body, ok := b.graphs[bodyGraphAlias]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUnknownAlias, bodyGraphAlias))
		return b
	}
	if minRep < 0 || minRep > maxRep {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrInvalidRepetition, alias))
		return b
	}
	b.reps[alias] = &Repetition{
		alias:    alias,
		Body:     body,
		PortMaps: append([]PortMap(nil), portMaps...),
		MinRep:   minRep,
		MaxRep:   maxRep,
		edges:    newEdges(),
	}
	b.order = append(b.order, alias)
	return b
}

// Build assembles the top-level pattern graph made of the nodes referenced
// by rootAliases, in declaration order. It fails with the first recorded
// construction error, if any.
func (b *Builder) Build(rootAliases ...string) (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(rootAliases) == 0 {
		return nil, ErrNoNodes
	}
	nodes := make([]Node, 0, len(rootAliases))
	for _, a := range rootAliases {
		n, ok := b.lookup(a)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAlias, a)
		}
		nodes = append(nodes, n)
	}
	return &Graph{
		alias:          "",
		Nodes:          nodes,
		edges:          newEdges(),
		innerConsumers: make(map[int]Endpoint),
		innerProducer:  make(map[int]Endpoint),
	}, nil
}
