package pm

import (
	"crypto/sha1"
	"fmt"
	"sync"

	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
)

// PatternCache memoizes the structural validation of a compiled pattern
// tree, the way the teacher's scheduler caches a compiled *PatternNode
// keyed by a string (getOrCompilePattern) rather than caching match
// outcomes. Two patterns with identical shape — same node kinds, aliases,
// declared edges and commutative pairs — share one validation pass; every
// MatchPattern call still walks the real operator graph fresh, since a
// match result depends on the specific opgraph.Op instance being matched,
// not just the pattern's static shape. The recursive matching itself is
// never cached.
type PatternCache struct {
	mu         sync.Mutex
	hits       int
	misses     int
	validated  map[string]bool
	summarized map[string]bool
	log        *archivist.Archivist
}

// NewPatternCache constructs an empty cache. log may be nil.
func NewPatternCache(log *archivist.Archivist) *PatternCache {
	return &PatternCache{
		validated:  make(map[string]bool),
		summarized: make(map[string]bool),
		log:        log,
	}
}

// Stats reports cumulative hit/miss counts against the signature cache.
func (c *PatternCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Forget drops the recorded validation for root's structural shape. A
// pattern tree is immutable once Builder.Build() returns it, so this is
// never required in normal operation; it exists for long-lived caches in
// tests that build many throwaway patterns and don't want them to
// accumulate forever.
func (c *PatternCache) Forget(root pattern.Node) {
	sig := Signature(root)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.validated, sig)
	delete(c.summarized, sig)
}

// ensureValidated reports whether root's structural shape has already
// passed validation, running (and recording) that validation on a miss.
func (c *PatternCache) ensureValidated(root pattern.Node) bool {
	sig := Signature(root)
	c.mu.Lock()
	if ok, present := c.validated[sig]; present {
		c.hits++
		hits, misses := c.hits, c.misses
		c.mu.Unlock()
		if c.log != nil {
			c.log.Debug(archivist.DEBUG_LEVEL_TRACE, "pm PATTERN cache hit sig=", sig, " hits=", hits, " misses=", misses)
		}
		return ok
	}
	c.misses++
	hits, misses := c.hits, c.misses
	c.mu.Unlock()
	if c.log != nil {
		c.log.Debug(archivist.DEBUG_LEVEL_TRACE, "pm PATTERN cache miss sig=", sig, " hits=", hits, " misses=", misses)
	}

	valid := validatePatternShape(root) == nil

	c.mu.Lock()
	c.validated[sig] = valid
	firstTime := !c.summarized[sig]
	c.summarized[sig] = true
	c.mu.Unlock()

	if firstTime && c.log != nil {
		c.log.DebugF(archivist.DEBUG_LEVEL_INFO, "pm PATTERN compiled sig=%s valid=%t", sig, valid)
	}
	return valid
}

// MatchPattern validates root's structural shape against the cache (a
// no-op past the first call for any given shape) and, only once that
// shape is confirmed well-formed, runs the ordinary uncached MatchPattern
// against seed.
func (c *PatternCache) MatchPattern(seed opgraph.Op, root pattern.Node, autoExportExternals, matchForward bool) (*Match, bool) {
	g, ok := root.(*pattern.Graph)
	if !ok {
		return nil, false
	}
	if !c.ensureValidated(root) {
		return nil, false
	}
	opts := MatchOptions{AutoExportExternals: autoExportExternals, MatchForward: matchForward}
	return MatchPattern(g, []opgraph.Op{seed}, opts, c.log)
}

// validatePatternShape checks static shape invariants that Builder does
// not check: every commutative pair's first port has a declared producer
// (the second may or may not; newNodeTracker turns the two cases into a
// two-constraint or a one-constraint task), every repetition's bounds are
// ordered, and every repetition's port maps name ports the body graph
// actually exposes. Builder only rejects a pair naming the same port twice
// and bounds with min_rep > max_rep, so a pattern built through it can
// still fail here.
func validatePatternShape(n pattern.Node) error {
	switch v := n.(type) {
	case *pattern.Leaf:
		if a, b, ok := v.CommutativePair(); ok {
			if !hasInputPort(v, a) {
				return fmt.Errorf("pattern: leaf %q declares commutative pair (%d,%d) whose first port has no declared producer", v.Alias(), a, b)
			}
		}
	case *pattern.Graph:
		for _, member := range v.Nodes {
			if err := validatePatternShape(member); err != nil {
				return err
			}
		}
	case *pattern.Alternation:
		for _, alt := range v.Alternatives {
			if err := validatePatternShape(alt); err != nil {
				return err
			}
		}
	case *pattern.Repetition:
		if v.MinRep < 0 || v.MinRep > v.MaxRep {
			return fmt.Errorf("pattern: repetition %q has min_rep %d > max_rep %d", v.Alias(), v.MinRep, v.MaxRep)
		}
		for _, pm := range v.PortMaps {
			if _, ok := v.Body.InnerProducer(pm.BodyOutPort); !ok {
				return fmt.Errorf("pattern: repetition %q port map references body out-port %d with no interior producer", v.Alias(), pm.BodyOutPort)
			}
			if _, ok := v.Body.InnerConsumer(pm.BodyInPort); !ok {
				return fmt.Errorf("pattern: repetition %q port map references body in-port %d with no interior consumer", v.Alias(), pm.BodyInPort)
			}
		}
		if err := validatePatternShape(v.Body); err != nil {
			return err
		}
	}
	return nil
}

func hasInputPort(l *pattern.Leaf, port int) bool {
	for _, p := range l.InputPorts() {
		if p == port {
			return true
		}
	}
	return false
}

// portedNode is satisfied by every concrete pattern node kind, all of
// which promote it from their embedded edges struct.
type portedNode interface {
	Producer(port int) (pattern.Endpoint, bool)
	Consumers(port int) []pattern.Endpoint
	InputPorts() []int
	OutputPorts() []int
}

// Signature returns the SHA1 hex digest of root's structural shape: node
// kinds, aliases, declared edges and commutative pairs, walked in a fixed
// order: ports ascending, while graph members, alternatives and each port's
// consumers keep their declaration order. The same *pattern.Graph pointer
// therefore always hashes the same across repeated calls, and two patterns
// built with the same Builder calls in the same order hash identically;
// declaring members or connections in a different order changes the hash.
func Signature(root pattern.Node) string {
	h := sha1.New()
	writeNodeSignature(h, root)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func writeNodeSignature(h interface{ Write([]byte) (int, error) }, n pattern.Node) {
	fmt.Fprintf(h, "|%s:%s", n.Kind(), n.Alias())
	if pn, ok := n.(portedNode); ok {
		for _, p := range pn.InputPorts() {
			ep, _ := pn.Producer(p)
			fmt.Fprintf(h, "|in%d<-%s.%d", p, ep.Node.Alias(), ep.Port)
		}
		for _, p := range pn.OutputPorts() {
			for _, ep := range pn.Consumers(p) {
				fmt.Fprintf(h, "|out%d->%s.%d", p, ep.Node.Alias(), ep.Port)
			}
		}
	}
	switch v := n.(type) {
	case *pattern.Leaf:
		if a, b, ok := v.CommutativePair(); ok {
			fmt.Fprintf(h, "|commutative:%d,%d", a, b)
		}
	case *pattern.Graph:
		for _, member := range v.Nodes {
			writeNodeSignature(h, member)
		}
		for _, p := range sortedEndpointKeys(v.InnerConsumers()) {
			ep := v.InnerConsumers()[p]
			fmt.Fprintf(h, "|innerIn%d:%s.%d", p, ep.Node.Alias(), ep.Port)
		}
		for _, p := range sortedEndpointKeys(v.InnerProducers()) {
			ep := v.InnerProducers()[p]
			fmt.Fprintf(h, "|innerOut%d:%s.%d", p, ep.Node.Alias(), ep.Port)
		}
	case *pattern.Alternation:
		for _, alt := range v.Alternatives {
			writeNodeSignature(h, alt)
		}
	case *pattern.Repetition:
		fmt.Fprintf(h, "|rep:%d-%d", v.MinRep, v.MaxRep)
		for _, pm := range v.PortMaps {
			fmt.Fprintf(h, "|pmap:%d->%d", pm.BodyOutPort, pm.BodyInPort)
		}
		writeNodeSignature(h, v.Body)
	}
}

func sortedEndpointKeys(m map[int]pattern.Endpoint) []int {
	ks := make([]int, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	for i := 1; i < len(ks); i++ {
		for j := i; j > 0 && ks[j-1] > ks[j]; j-- {
			ks[j-1], ks[j] = ks[j], ks[j-1]
		}
	}
	return ks
}
