package rewrite

import (
	"errors"
	"io"
	stdlog "log"
	"testing"

	"github.com/voodooEntity/nestmatch/src/system/archivist"
	"github.com/voodooEntity/nestmatch/src/system/opgraph"
	"github.com/voodooEntity/nestmatch/src/system/pattern"
	"github.com/voodooEntity/nestmatch/src/system/pm"
)

// markableOp is a minimal opgraph.Op that also satisfies Markable, the way
// gitsbacked.Op does against a real store.
type markableOp struct {
	name    string
	matched bool
}

func (o *markableOp) Name() string                          { return o.name }
func (o *markableOp) NumInputs() int                        { return 0 }
func (o *markableOp) NumOutputs() int                       { return 0 }
func (o *markableOp) NumOutputConsumers(int) int            { return 0 }
func (o *markableOp) InputValue(int) (opgraph.Value, bool)  { return nil, false }
func (o *markableOp) OutputValue(int) (opgraph.Value, bool) { return nil, false }
func (o *markableOp) OutputValues() []opgraph.Value         { return nil }
func (o *markableOp) HasMatchedMarker() bool                { return o.matched }
func (o *markableOp) MarkMatched()                          { o.matched = true }

// buildMatch stands in for pm's own newMatch, since that constructor is
// unexported and rewrite only ever consumes an already-built Match.
func buildMatch(ops ...opgraph.Op) *pm.Match {
	m := &pm.Match{Bindings: make(map[opgraph.Op]pattern.Node, len(ops))}
	for _, op := range ops {
		m.Bindings[op] = nil
	}
	return m
}

func TestMarkMatchedRewriterMarksEveryBoundOp(t *testing.T) {
	a := &markableOp{name: "add"}
	r := &markableOp{name: "relu"}
	m := buildMatch(a, r)

	if err := (MarkMatchedRewriter{}).Rewrite(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.matched || !r.matched {
		t.Fatal("expected both bound ops to carry the matched marker")
	}
}

func TestMarkMatchedRewriterIgnoresNonMarkable(t *testing.T) {
	plain := &plainOp{name: "const"}
	m := buildMatch(plain)

	if err := (MarkMatchedRewriter{}).Rewrite(m); err != nil {
		t.Fatalf("unexpected error for a non-Markable binding: %v", err)
	}
}

func TestLoggingRewriterPropagatesFailure(t *testing.T) {
	boom := errors.New("fusion failed")
	next := failingRewriter{err: boom}
	logger := archivist.New(&archivist.Config{Logger: stdlog.New(io.Discard, "", 0)})
	r := &LoggingRewriter{Next: next, Log: logger}

	m := buildMatch(&markableOp{name: "add"})
	if err := r.Rewrite(m); !errors.Is(err, boom) {
		t.Fatalf("expected LoggingRewriter to propagate the wrapped error, got %v", err)
	}
}

func TestLoggingRewriterSucceedsSilentlyWithoutLogger(t *testing.T) {
	r := &LoggingRewriter{Next: MarkMatchedRewriter{}, Log: nil}
	m := buildMatch(&markableOp{name: "add"})
	if err := r.Rewrite(m); err != nil {
		t.Fatalf("unexpected error with nil logger: %v", err)
	}
}

type plainOp struct{ name string }

func (o *plainOp) Name() string                         { return o.name }
func (o *plainOp) NumInputs() int                        { return 0 }
func (o *plainOp) NumOutputs() int                       { return 0 }
func (o *plainOp) NumOutputConsumers(int) int            { return 0 }
func (o *plainOp) InputValue(int) (opgraph.Value, bool)  { return nil, false }
func (o *plainOp) OutputValue(int) (opgraph.Value, bool) { return nil, false }
func (o *plainOp) OutputValues() []opgraph.Value         { return nil }
func (o *plainOp) HasMatchedMarker() bool                { return false }

type failingRewriter struct{ err error }

func (f failingRewriter) Rewrite(*pm.Match) error { return f.err }
