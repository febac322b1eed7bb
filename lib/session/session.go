package session

import (
	"net"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/go-agi/go-agi-bridge/lib/protocol"
	"github.com/go-agi/go-agi-bridge/lib/util"
)

// Options configures a new Session.
type Options struct {
	// IdleTimeout bounds overall connection inactivity. It is armed once,
	// at construction, using the transport's native read deadline; it is
	// deliberately not re-armed on traffic. Zero disables it.
	IdleTimeout time.Duration

	// MaxBuffer bounds the inbound buffer. Zero selects
	// protocol.DefaultMaxBuffer.
	MaxBuffer int

	// Logger receives structured session facts. Nil selects the logrus
	// standard logger.
	Logger logrus.FieldLogger
}

// Session is the stateful AGI protocol handler for one connection, from
// accept to terminal closure.
//
// Each session is driven by a single read pump feeding Feed in arrival
// order; Submit and Close are serialized against it through the session
// lock. State is mutated only through setStateLocked, and every terminal
// condition converges on the closed transition.
type Session struct {
	mu sync.Mutex

	// conn is the underlying network connection to the switch.
	conn net.Conn

	// id is an opaque, high-entropy identity, stable for the session's
	// lifetime, used as the external correlation key.
	id string

	// state is the current lifecycle state.
	state State

	// framer accumulates unconsumed inbound text.
	framer *protocol.Framer

	// variables holds the channel variables parsed from the handshake
	// block. Populated exactly once; immutable thereafter.
	variables map[string]string

	// bytesRead and bytesWritten are monotonic diagnostic counters.
	bytesRead    uint64
	bytesWritten uint64

	// errFlag latches true on the first transport-level error or timeout.
	// Once latched, all further writes are treated as failed.
	errFlag bool

	// closeReason is recorded on the first transition into StateClosed.
	closeReason error

	// remoteAddr is cached for logging after the conn is gone.
	remoteAddr string

	listeners []Listener
	log       logrus.FieldLogger
}

// New constructs a Session for an accepted connection. The idle deadline is
// armed here and never re-armed; the read pump surfaces its expiry as a
// timeout error.
func New(conn net.Conn, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Session{
		conn:   conn,
		id:     ulid.Make().String(),
		state:  StateInit,
		framer: protocol.NewFramer(opts.MaxBuffer),
	}
	if addr := conn.RemoteAddr(); addr != nil {
		s.remoteAddr = addr.String()
	}
	s.log = log.WithFields(logrus.Fields{
		"session": s.id,
		"remote":  s.remoteAddr,
	})

	if opts.IdleTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(opts.IdleTimeout)); err != nil {
			s.log.WithError(err).Warning("could not arm idle deadline")
		}
	}

	s.log.Debug("session created")
	return s
}

// ID returns the session's identity.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemoteAddr returns the switch's remote address.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Variables returns a copy of the channel-variable mapping parsed from the
// handshake block. Empty until the session has become ready.
func (s *Session) Variables() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := make(map[string]string, len(s.variables))
	for k, v := range s.variables {
		vars[k] = v
	}
	return vars
}

// BytesRead returns the total bytes received from the switch.
func (s *Session) BytesRead() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesRead
}

// BytesWritten returns the total bytes written to the switch.
func (s *Session) BytesWritten() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesWritten
}

// Failed reports whether the transport error flag has been latched.
func (s *Session) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errFlag
}

// CloseReason returns the reason recorded at closure, or nil.
func (s *Session) CloseReason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeReason
}

// Subscribe registers a lifecycle listener. Listeners registered after a
// transition do not receive it retroactively.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Feed delivers a chunk of raw inbound bytes to the state machine. Chunks
// must arrive in stream order from a single reader; a chunk may end
// mid-line and may contain zero or many newlines.
func (s *Session) Feed(data []byte) {
	s.mu.Lock()

	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}

	s.bytesRead += uint64(len(data))

	if err := s.framer.Append(data); err != nil {
		// A peer that never completes a message has filled the buffer.
		// Treat as a transport failure.
		s.log.WithError(err).Error("inbound buffer overflow")
		s.errFlag = true
		sigs := s.closeLocked(err)
		s.mu.Unlock()
		deliver(sigs)
		return
	}

	buffered := s.framer.String()

	// Hangup is state-independent and checked before any dispatch.
	if protocol.ContainsHangup(buffered) {
		s.log.WithField("state", s.state.String()).Info("hangup signal received")
		s.framer.Reset()
		sigs := s.setStateLocked(StateHangup)
		sigs = append(sigs, s.closeLocked(ErrHangup)...)
		s.mu.Unlock()
		deliver(sigs)
		return
	}

	var sigs []signal

	switch s.state {
	case StateInit:
		sigs = s.handleHandshakeLocked(buffered)

	case StateWaitResponse:
		sigs = s.handleResponseLocked(buffered)

	case StateWriting, StateHangup:
		// Data is not expected here; discard best-effort.
		s.log.WithFields(logrus.Fields{
			"state": s.state.String(),
			"bytes": s.framer.Len(),
		}).Debug("discarding unexpected data")
		s.framer.Reset()

	case StateIdle:
		// Nothing is expected until a command is submitted; leave the
		// bytes buffered.
	}

	s.mu.Unlock()
	deliver(sigs)
}

// handleHandshakeLocked completes the init state once the full variable
// block has arrived, emitting ready.
func (s *Session) handleHandshakeLocked(buffered string) []signal {
	if !s.framer.MessageComplete() || !s.framer.BlockComplete() {
		return nil
	}

	s.variables = protocol.ParseVariables(buffered)
	s.framer.Reset()
	s.log.WithField("variables", len(s.variables)).Debug("handshake complete")

	sigs := s.setStateLocked(StateIdle)
	listeners := s.snapshotLocked()
	return append(sigs, func() {
		for _, l := range listeners {
			l.OnReady(s)
		}
	})
}

// handleResponseLocked attempts to match a complete response while one is
// outstanding. An incomplete match leaves the buffer intact.
func (s *Session) handleResponseLocked(buffered string) []signal {
	resp, err := protocol.ParseResponse(buffered)
	if err != nil {
		return nil
	}

	s.framer.Reset()
	s.log.WithFields(logrus.Fields{
		"code":   resp.Code,
		"result": resp.Result,
	}).Debug("response matched")

	sigs := s.setStateLocked(StateIdle)
	listeners := s.snapshotLocked()
	return append(sigs, func() {
		for _, l := range listeners {
			l.OnResponse(s, resp)
		}
	})
}

// setStateLocked applies a state transition. Requests for values outside
// the enumerated set are rejected and logged without altering state;
// requests that re-assert the current state are silent no-ops; StateClosed
// is terminal. Returns the state-change signal to deliver, if any.
func (s *Session) setStateLocked(to State) []signal {
	if !to.IsValid() {
		s.log.WithField("requested", int(to)).Error("rejecting unknown state request")
		return nil
	}
	if s.state == to || s.state == StateClosed {
		return nil
	}

	from := s.state
	s.state = to
	s.log.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Debug("state transition")

	listeners := s.snapshotLocked()
	return []signal{func() {
		for _, l := range listeners {
			l.OnStateChange(s, from, to)
		}
	}}
}

// closeLocked performs the terminal transition: closes the transport,
// records the reason, and queues the closed signal. Re-entering from
// StateClosed is a no-op, so the signal fires exactly once.
func (s *Session) closeLocked(reason error) []signal {
	if s.state == StateClosed {
		return nil
	}

	sigs := s.setStateLocked(StateClosed)
	s.closeReason = reason
	s.framer.Reset()

	if err := s.conn.Close(); err != nil {
		s.log.WithError(err).Debug("transport close")
	}

	if reason != nil {
		s.log.WithError(reason).Info("session closed")
	} else {
		s.log.Info("session closed")
	}

	listeners := s.snapshotLocked()
	return append(sigs, func() {
		for _, l := range listeners {
			l.OnClosed(s, reason)
		}
	})
}

// Close deliberately terminates the session. Safe to call any number of
// times; only the first call performs the transition.
func (s *Session) Close(reason error) {
	s.mu.Lock()
	sigs := s.closeLocked(reason)
	s.mu.Unlock()
	deliver(sigs)
}

// CloseWithError latches the transport error flag and closes the session.
// This is the path for socket errors and idle-timeout expiry; after it, all
// writes are treated as failed regardless of completion callbacks.
func (s *Session) CloseWithError(err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.errFlag = true
	sigs := s.closeLocked(util.NewSessionError(s.id, "transport", err))
	s.mu.Unlock()
	deliver(sigs)
}

// snapshotLocked copies the listener list so signals see a stable set.
func (s *Session) snapshotLocked() []Listener {
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	return listeners
}
