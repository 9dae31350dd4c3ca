// Package pattern is the pattern-graph data model consumed by package pm.
// A pattern tree is a tagged variant of four kinds — Leaf, Graph,
// Alternation, Repetition — built once via Builder and treated as immutable
// read-only input afterward.
package pattern

import "github.com/voodooEntity/nestmatch/src/system/opgraph"

// Kind tags the four pattern node variants.
type Kind int

const (
	KindLeaf Kind = iota
	KindGraph
	KindAlternation
	KindRepetition
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindGraph:
		return "graph"
	case KindAlternation:
		return "alternation"
	case KindRepetition:
		return "repetition"
	default:
		return "unknown"
	}
}

// Predicate is a single decision predicate evaluated against a candidate
// operator during attribute matching.
type Predicate func(op opgraph.Op) bool

// Node is the common interface every pattern node satisfies. Concrete
// behavior is reached by switching on Kind() and asserting to the matching
// concrete type.
type Node interface {
	Kind() Kind
	// Alias is the name assigned at construction time, used for diagnostics
	// and as the tie-breaker key during pattern compilation caching.
	Alias() string
}

// Endpoint names a (node, port) pair on the interior side of a pattern edge.
type Endpoint struct {
	Node Node
	Port int
}

// edges is the shared sibling-wiring surface embedded in every pattern node
// kind. A node's producer/consumers are declared by Builder.Connect against
// whatever kind of node sits on the other end — a Leaf, a Graph, an
// Alternation, or a Repetition all wire the same way.
type edges struct {
	producer  map[int]Endpoint   // iport -> producer endpoint
	consumers map[int][]Endpoint // oport -> ordered consumer endpoints
}

func newEdges() edges {
	return edges{
		producer:  make(map[int]Endpoint),
		consumers: make(map[int][]Endpoint),
	}
}

// Producer returns the declared producer endpoint of input port iport.
func (e *edges) Producer(iport int) (Endpoint, bool) {
	ep, ok := e.producer[iport]
	return ep, ok
}

// Consumers returns the declared consumer endpoints of output port oport, in
// declaration order.
func (e *edges) Consumers(oport int) []Endpoint {
	return e.consumers[oport]
}

// InputPorts returns every input port with a declared producer, in
// ascending order.
func (e *edges) InputPorts() []int {
	return sortedKeys(e.producer)
}

// OutputPorts returns every output port with at least one declared
// consumer, in ascending order.
func (e *edges) OutputPorts() []int {
	ports := make([]int, 0, len(e.consumers))
	for p := range e.consumers {
		ports = append(ports, p)
	}
	sortInts(ports)
	return ports
}

func (e *edges) setProducer(port int, ep Endpoint) {
	e.producer[port] = ep
}

func (e *edges) addConsumer(port int, ep Endpoint) {
	e.consumers[port] = append(e.consumers[port], ep)
}

// wireable is satisfied by any pattern node kind that can sit on either end
// of a Builder.Connect call.
type wireable interface {
	Node
	setProducer(port int, ep Endpoint)
	addConsumer(port int, ep Endpoint)
}

// Leaf matches exactly one concrete operator by running its Predicates.
type Leaf struct {
	alias      string
	Predicates []Predicate
	edges

	commutative *[2]int // input port pair eligible for either operand order

	allowedInternalInputs  map[int]struct{}
	allowedExternalOutputs map[int]struct{}
}

func (l *Leaf) Kind() Kind    { return KindLeaf }
func (l *Leaf) Alias() string { return l.alias }

// CommutativePair returns the leaf's declared commutative input ports, if
// any.
func (l *Leaf) CommutativePair() (a, b int, ok bool) {
	if l.commutative == nil {
		return 0, 0, false
	}
	return l.commutative[0], l.commutative[1], true
}

func (l *Leaf) AllowedInternalInput(port int) bool {
	_, ok := l.allowedInternalInputs[port]
	return ok
}

func (l *Leaf) AllowedExternalOutput(port int) bool {
	_, ok := l.allowedExternalOutputs[port]
	return ok
}

// Graph is an inner pattern graph exposing interior ports as its own
// exterior ports via inner port maps. The embedded edges hold whatever the
// Graph's own exterior ports are wired to by an enclosing Builder.Connect
// call; innerConsumers/innerProducer hold the opposite direction — which
// interior (member) endpoint answers for each exterior port.
type Graph struct {
	alias string
	Nodes []Node
	edges

	innerConsumers map[int]Endpoint // graph_iport -> single interior consumer
	innerProducer  map[int]Endpoint // graph_oport -> interior producer
}

func (g *Graph) Kind() Kind    { return KindGraph }
func (g *Graph) Alias() string { return g.alias }

// InnerConsumer returns the graph's single interior consumer for exterior
// input port graphPort, if declared. Cardinality is 0 or 1 for any port
// actually in use, per the pattern introspection contract.
func (g *Graph) InnerConsumer(graphPort int) (Endpoint, bool) {
	e, ok := g.innerConsumers[graphPort]
	return e, ok
}

// InnerProducer returns the graph's interior producer for exterior output
// port graphPort, if declared.
func (g *Graph) InnerProducer(graphPort int) (Endpoint, bool) {
	e, ok := g.innerProducer[graphPort]
	return e, ok
}

// InnerConsumers returns the full graph_iport -> interior consumer map.
func (g *Graph) InnerConsumers() map[int]Endpoint { return g.innerConsumers }

// InnerProducers returns the full graph_oport -> interior producer map.
func (g *Graph) InnerProducers() map[int]Endpoint { return g.innerProducer }

// Alternation tries each alternative Graph in declaration order and commits
// to the first that succeeds. Its embedded edges describe how the
// Alternation itself, as a unit, is wired to its siblings; the individual
// Alternatives connect to the outside world only through match-time i/o
// reconciliation, never through their own edges.
type Alternation struct {
	alias        string
	Alternatives []*Graph
	edges
}

func (a *Alternation) Kind() Kind    { return KindAlternation }
func (a *Alternation) Alias() string { return a.alias }

// PortMap declares how one repetition body instance chains into the next:
// the body's output port BodyOutPort feeds the next instance's input port
// BodyInPort.
type PortMap struct {
	BodyOutPort int
	BodyInPort  int
}

// Repetition matches its Body graph between MinRep and MaxRep times,
// stitching body-out to body-in edges between consecutive iterations.
type Repetition struct {
	alias    string
	Body     *Graph
	PortMaps []PortMap
	MinRep   int
	MaxRep   int
	edges
}

func (r *Repetition) Kind() Kind    { return KindRepetition }
func (r *Repetition) Alias() string { return r.alias }

func sortedKeys(m map[int]Endpoint) []int {
	ks := make([]int, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sortInts(ks)
	return ks
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
