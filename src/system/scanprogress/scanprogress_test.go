package scanprogress

import (
	"testing"
	"time"
)

func TestReachedEndgameOnZero(t *testing.T) {
	r := New(func() int { return 0 }, nil, nil)
	if !r.ReachedEndgame() {
		t.Fatal("expected zero remaining work to reach endgame immediately")
	}
}

func TestReachedEndgameShrinkingNeverStalls(t *testing.T) {
	counts := []int{5, 4, 3, 2, 1}
	i := 0
	r := New(func() int {
		c := counts[i]
		if i < len(counts)-1 {
			i++
		}
		return c
	}, nil, nil)
	r.StallLimit = 2

	for n := 0; n < 4; n++ {
		if r.ReachedEndgame() {
			t.Fatalf("shrinking count should not reach endgame before hitting zero (iteration %d)", n)
		}
	}
}

func TestReachedEndgameStallsAfterLimit(t *testing.T) {
	r := New(func() int { return 3 }, nil, nil)
	r.StallLimit = 2

	for n := 0; n < r.StallLimit+1; n++ {
		if r.ReachedEndgame() {
			t.Fatalf("expected no endgame before exceeding StallLimit (poll %d)", n)
		}
	}
	if !r.ReachedEndgame() {
		t.Fatal("expected endgame once the stall count exceeds StallLimit")
	}
}

func TestLoopRunsTickAndEndgame(t *testing.T) {
	counts := []int{2, 1, 0}
	i := 0
	endgameRan := false
	ticks := 0

	r := New(func() int {
		c := counts[i]
		if i < len(counts)-1 {
			i++
		}
		return c
	}, func() { endgameRan = true }, nil)
	r.PollEvery = time.Millisecond
	r.SetTickRate(1)
	r.RegisterTickFunction(func() { ticks++ })

	done := make(chan struct{})
	go func() {
		r.Loop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Loop did not converge in time")
	}

	if !endgameRan {
		t.Fatal("expected Endgame to run once the scan converged")
	}
	if ticks == 0 {
		t.Fatal("expected the registered tick function to run at least once")
	}
}
