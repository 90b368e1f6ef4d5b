package gateway

import (
	"errors"
	"fmt"
)

// ErrEmptyOperation is returned when a frame is empty or JSON null.
var ErrEmptyOperation = errors.New("empty gateway operation")

// UnknownOperationError reports an opcode that has no known variant.
type UnknownOperationError struct {
	Op Opcode
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown gateway operation: opcode %d is not implemented", int(e.Op))
}

// InvalidOperationError reports a frame whose structure does not match the
// variant it was parsed as.
type InvalidOperationError struct {
	Op       Opcode
	Expected Opcode
	Reason   string
}

func (e *InvalidOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid gateway operation %s: %s", e.Expected, e.Reason)
	}
	return fmt.Sprintf("invalid gateway operation: expected opcode %d but actual opcode is %d", int(e.Expected), int(e.Op))
}

// ConnectionError is a transport-level failure. It is fatal to the client.
type ConnectionError struct {
	Stage string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("gateway connection error during %s: %v", e.Stage, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
