// Package scanprogress tracks a repeated scan-and-rewrite loop over an
// operator graph: keep matching and rewriting until a pass finds nothing
// left to do. Its stall-detection loop is the pattern-matching analogue of
// the teacher's Observer, which polled neuron activity until the whole
// system went quiet.
package scanprogress

import (
	"time"

	"github.com/voodooEntity/nestmatch/src/system/archivist"
)

// TickFunc runs periodically while the loop is active, every TickRate
// polls — useful for periodic diagnostics or metrics flushes.
type TickFunc func()

// CountFunc reports the amount of scan work believed to remain (typically
// a count of unmatched operators). A shrinking count is forward progress; a
// count that repeats on more than StallLimit consecutive polls means the
// scan has converged.
type CountFunc func() int

// Reporter drives a poll loop against Remaining until it either hits zero
// or stops shrinking, then runs Endgame.
type Reporter struct {
	Remaining  CountFunc
	StallLimit int
	PollEvery  time.Duration
	Endgame    func()

	tickFn   TickFunc
	tickRate int
	log      *archivist.Archivist

	lastCount int
	stalls    int
	ticks     int
}

// New builds a Reporter with the teacher's defaults: a 5-poll stall limit
// and a 100ms poll interval.
func New(remaining CountFunc, endgame func(), log *archivist.Archivist) *Reporter {
	return &Reporter{
		Remaining:  remaining,
		Endgame:    endgame,
		StallLimit: 5,
		PollEvery:  100 * time.Millisecond,
		tickRate:   25,
		log:        log,
		lastCount:  -1,
	}
}

func (r *Reporter) RegisterTickFunction(fn TickFunc) { r.tickFn = fn }
func (r *Reporter) SetTickRate(rate int)             { r.tickRate = rate }

func (r *Reporter) tick() {
	if r.tickFn != nil {
		r.tickFn()
	}
}

// Loop polls Remaining until ReachedEndgame, then runs Endgame.
func (r *Reporter) Loop() {
	i := 0
	for !r.ReachedEndgame() {
		i++
		if r.log != nil {
			r.log.Debug(archivist.DEBUG_LEVEL_MAX, "scanprogress looping")
		}
		if i == r.tickRate {
			r.tick()
			i = 0
		}
		time.Sleep(r.PollEvery)
	}
	if r.Endgame != nil {
		r.Endgame()
	}
	if r.log != nil {
		r.log.Info("scan converged, no work remaining")
	}
}

// ReachedEndgame reports whether the scan has converged: either no work is
// left, or the remaining count has held steady for more than StallLimit
// consecutive polls (a pattern that can never match again is presumed
// exhausted rather than polled forever).
func (r *Reporter) ReachedEndgame() bool {
	count := r.Remaining()
	if r.log != nil {
		r.log.DebugF(archivist.DEBUG_LEVEL_MAX, "scanprogress: %d ops remaining", count)
	}
	if count == 0 {
		return true
	}
	if count == r.lastCount {
		r.stalls++
		return r.stalls > r.StallLimit
	}
	r.lastCount = count
	r.stalls = 0
	return false
}
