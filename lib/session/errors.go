package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations.
var (
	// ErrSessionClosed indicates the session has reached its terminal state.
	ErrSessionClosed = errors.New("session closed")

	// ErrEmptyCommand indicates a command submission with no content.
	ErrEmptyCommand = errors.New("empty command")

	// ErrHangup is the close reason when the switch signaled call
	// termination. Hangup is a normal termination path, not a failure.
	ErrHangup = errors.New("hangup received")

	// ErrTimeout is the close reason when the idle timeout elapsed with no
	// traffic on the connection.
	ErrTimeout = errors.New("idle timeout")

	// ErrSessionNotFound indicates the requested session is not registered.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateID indicates a session identity collision in the registry.
	ErrDuplicateID = errors.New("duplicated session ID")
)

// InvalidRequestError reports a command submitted while the session was not
// idle. The session is left unmodified; only the immediate caller sees it.
type InvalidRequestError struct {
	// State is the session state at submission time.
	State State
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: session is %s, commands require %s", e.State, StateIdle)
}
