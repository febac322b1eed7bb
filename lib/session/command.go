package session

import (
	"strings"

	"github.com/go-agi/go-agi-bridge/lib/util"
)

// Submit sends a single command line to the switch and returns a completion
// that settles exactly once.
//
// Settlement means the bytes were handed to the transport - it carries no
// guarantee that the switch accepted or will respond to the command. The
// correlated response is delivered separately through the response signal
// once it has been matched.
//
// Commands are accepted only while the session is idle. A submission in any
// other state settles immediately with an *InvalidRequestError naming the
// offending state, and the session is left unmodified. A trailing newline
// is appended when absent.
func (s *Session) Submit(command string) <-chan error {
	done := make(chan error, 1)

	if strings.TrimSpace(command) == "" {
		done <- ErrEmptyCommand
		return done
	}

	s.mu.Lock()

	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		done <- &InvalidRequestError{State: state}
		return done
	}

	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}

	sigs := s.setStateLocked(StateWriting)
	s.log.WithField("command", strings.TrimRight(command, "\n")).Debug("submitting command")

	// The write happens under the session lock: inbound dispatch cannot
	// observe a response before the corresponding write has completed.
	n, err := s.conn.Write([]byte(command))
	s.bytesWritten += uint64(n)

	if err != nil {
		s.log.WithError(err).Error("command write failed")
		s.errFlag = true
		sigs = append(sigs, s.closeLocked(util.NewSessionError(s.id, "write", err))...)
		s.mu.Unlock()
		deliver(sigs)
		done <- util.NewSessionError(s.id, "write", err)
		return done
	}

	if s.errFlag {
		// The transport failed underneath the write; the session is
		// already on its way to closed. Skip the wait transition and
		// treat the write as failed.
		s.mu.Unlock()
		deliver(sigs)
		done <- ErrSessionClosed
		return done
	}

	sigs = append(sigs, s.setStateLocked(StateWaitResponse)...)
	s.mu.Unlock()
	deliver(sigs)
	done <- nil
	return done
}
