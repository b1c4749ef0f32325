// Package driver implements the functional and performance simulator
// drivers: the functional driver's fetch-decode-execute-writeback loop
// and trap handler policy, and the performance driver's five-stage
// in-order pipeline wired over simcore/port.
package driver

import "fmt"

// HandlerMode selects how the functional driver reacts to a non-NoTrap
// condition on a retired instruction.
type HandlerMode int

const (
	// Stop halts the run on any trap.
	Stop HandlerMode = iota
	// StopOnHalt halts only on trap.Halt; every other trap is cleared
	// and execution continues.
	StopOnHalt
	// Ignore clears every trap and always continues.
	Ignore
	// Critical treats any trap as a host-level fatal error.
	Critical
)

func (m HandlerMode) String() string {
	switch m {
	case Stop:
		return "stop"
	case StopOnHalt:
		return "stop_on_halt"
	case Ignore:
		return "ignore"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseHandlerMode maps a CLI token to a HandlerMode, failing with
// IncorrectDriverError for anything else.
func ParseHandlerMode(token string) (HandlerMode, error) {
	switch token {
	case "stop":
		return Stop, nil
	case "stop_on_halt":
		return StopOnHalt, nil
	case "ignore":
		return Ignore, nil
	case "critical":
		return Critical, nil
	default:
		return 0, &IncorrectDriverError{Token: token}
	}
}

// IncorrectDriverError is returned for an unrecognized trap-handler mode
// token.
type IncorrectDriverError struct{ Token string }

func (e *IncorrectDriverError) Error() string {
	return fmt.Sprintf("IncorrectDriver: unknown trap-handler mode %q", e.Token)
}
