// Package session implements the per-connection AGI protocol engine: the
// session state machine, the command pipeline, lifecycle signals, and the
// registry tracking active sessions.
package session

// State represents the lifecycle state of a Session.
type State int

const (
	// StateInit indicates a new session awaiting the variable handshake block.
	StateInit State = iota

	// StateIdle indicates the handshake is complete and no command is in flight.
	StateIdle

	// StateWriting indicates a command is being written to the transport.
	StateWriting

	// StateWaitResponse indicates a command was written and its response is
	// outstanding. At most one command is in flight by construction: new
	// submissions are rejected outside StateIdle.
	StateWaitResponse

	// StateHangup indicates the hangup token was observed; the session is
	// on its way to StateClosed.
	StateHangup

	// StateClosed is terminal. No transitions, parses, or writes follow it.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIdle:
		return "IDLE"
	case StateWriting:
		return "WRITING"
	case StateWaitResponse:
		return "WAIT_RESPONSE"
	case StateHangup:
		return "HANGUP"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the state is a member of the enumerated set.
func (s State) IsValid() bool {
	return s >= StateInit && s <= StateClosed
}
