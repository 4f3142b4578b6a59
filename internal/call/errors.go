package call

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomFull means the room already has two participants. Fatal to
	// the join attempt only; never retried automatically.
	ErrRoomFull = errors.New("room is full")

	// ErrMediaDenied means the local media capture could not be
	// acquired. Fatal to call start.
	ErrMediaDenied = errors.New("media capture unavailable")

	// ErrSignaling covers relay connection problems outside an active
	// call.
	ErrSignaling = errors.New("signaling server error")

	// ErrTimeout covers waits on the relay that never resolved.
	ErrTimeout = errors.New("timeout")
)

// CallError carries the operation that failed alongside the cause, in
// the shape "op: cause (details)".
type CallError struct {
	Op      string
	Err     error
	Details string
}

func (e *CallError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *CallError {
	return &CallError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *CallError {
	return &CallError{Op: op, Err: err, Details: details}
}
