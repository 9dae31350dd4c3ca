package pattern

import "errors"

var (
	ErrDuplicateAlias    = errors.New("pattern: duplicate node alias")
	ErrUnknownAlias      = errors.New("pattern: reference to undeclared alias")
	ErrNoNodes           = errors.New("pattern: graph declared with no nodes")
	ErrInvalidRepetition = errors.New("pattern: min_rep must be <= max_rep and >= 0")
	ErrInvalidPortMap    = errors.New("pattern: repetition port map references a port outside the body graph")
	ErrCommutativeArity  = errors.New("pattern: commutative pair requires two distinct input ports")
)
