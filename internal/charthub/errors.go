package charthub

import (
	"errors"
	"fmt"
)

// Sentinel errors for ChartHub API operations.
//
// ErrNotFound is the authoritative "no such chart" rejection: callers treat
// it as a definitive miss and must not retry. Every other error is a
// transport-level or transient failure.
var (
	ErrNotFound    = errors.New("charthub: not found")
	ErrRateLimited = errors.New("charthub: rate limited by server")
	ErrBadRequest  = errors.New("charthub: bad request")
	ErrServer      = errors.New("charthub: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "lookup", "setTags"
	Key string // Checksum or set ID, if applicable
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("charthub %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("charthub %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, key string, err error) error {
	return &Error{Op: op, Key: key, Err: err}
}
