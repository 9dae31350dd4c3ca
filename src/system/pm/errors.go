package pm

import "errors"

// Sentinel errors sit at the package boundary; the matcher's own search
// (the boolean core in match*.go) never returns them, since "no match"
// there is a plain false, not a failure. No function in this module
// returns them; PatternCache.MatchPattern and MatchPattern report failure
// as a bool as well.
var (
	ErrNoRoot     = errors.New("pm: pattern graph has no root nodes to bind against")
	ErrNoCandidates = errors.New("pm: no candidate operators supplied")
)
