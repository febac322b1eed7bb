package session

import (
	"github.com/go-agi/go-agi-bridge/lib/protocol"
)

// Listener receives lifecycle signals from a Session.
//
// Signals are delivered on the goroutine driving the transition, after the
// session lock is released, in transition order. Each transition is
// delivered at most once; no signal of any kind follows OnClosed.
type Listener interface {
	// OnReady fires once, when the handshake block has been parsed and the
	// session has become usable for commands.
	OnReady(s *Session)

	// OnResponse fires when a complete response has been matched for the
	// in-flight command. At most one per submitted command, and never
	// before that command's write has settled.
	OnResponse(s *Session, resp *protocol.Response)

	// OnStateChange fires on every materially applied state transition.
	// Requests that re-assert the current state do not fire.
	OnStateChange(s *Session, from, to State)

	// OnClosed fires exactly once, on the first transition into
	// StateClosed. reason is nil for a deliberate close, ErrHangup for a
	// remote hangup, or the transport/timeout error otherwise.
	OnClosed(s *Session, reason error)
}

// Hooks adapts plain functions into a Listener. Nil fields are skipped.
type Hooks struct {
	Ready       func(*Session)
	Response    func(*Session, *protocol.Response)
	StateChange func(*Session, State, State)
	Closed      func(*Session, error)
}

// OnReady implements Listener.
func (h Hooks) OnReady(s *Session) {
	if h.Ready != nil {
		h.Ready(s)
	}
}

// OnResponse implements Listener.
func (h Hooks) OnResponse(s *Session, resp *protocol.Response) {
	if h.Response != nil {
		h.Response(s, resp)
	}
}

// OnStateChange implements Listener.
func (h Hooks) OnStateChange(s *Session, from, to State) {
	if h.StateChange != nil {
		h.StateChange(s, from, to)
	}
}

// OnClosed implements Listener.
func (h Hooks) OnClosed(s *Session, reason error) {
	if h.Closed != nil {
		h.Closed(s, reason)
	}
}

// signal is a deferred listener notification. Transitions are applied under
// the session lock but signals are collected and delivered after it is
// released, so listeners may call back into the session.
type signal func()

// deliver runs queued signals in order.
func deliver(sigs []signal) {
	for _, fn := range sigs {
		fn()
	}
}
