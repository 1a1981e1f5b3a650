package visa

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is reported when an operation is attempted on a closed session.
	ErrClosed = errors.New("visa: session closed")
	// ErrTimeout is reported when the instrument does not answer within the
	// configured response timeout.
	ErrTimeout = errors.New("visa: response timeout")
)

// BusError describes a failed bus write or read during normal operation.
// The session stays open; the caller reports the failure and carries on.
type BusError struct {
	Op  string // "write" or "read"
	Cmd string // the SCPI command being sent when the failure happened
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("visa: %s %q: %v", e.Op, e.Cmd, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }
