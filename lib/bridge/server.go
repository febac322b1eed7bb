package bridge

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/go-agi/go-agi-bridge/lib/session"
	"github.com/go-agi/go-agi-bridge/lib/util"
)

// Server accepts connections from the telephony switch and assigns each to
// a new protocol engine instance. One session per connection; the server
// owns the registry upkeep, unregistering sessions on their closed signal.
type Server struct {
	config   *Config
	registry session.Registry
	log      logrus.FieldLogger

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool

	// done is closed when the server shuts down.
	done chan struct{}
}

// NewServer creates an AGI server with the given configuration and
// registry. A nil logger selects the logrus standard logger.
func NewServer(config *Config, registry session.Registry, log logrus.FieldLogger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		config:   config,
		registry: registry,
		log:      log,
		done:     make(chan struct{}),
	}, nil
}

// Registry returns the session registry.
func (s *Server) Registry() session.Registry {
	return s.registry
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// ListenAndServe listens on the configured address and serves switch
// connections. Blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on the listener and handles them. Blocks until
// the server is closed; returns once all connection pumps have drained.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.WithField("addr", listener.Addr().String()).Info("listening for switch connections")

	var pumps errgroup.Group
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				break
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			_ = pumps.Wait()
			return util.NewConnectionError(listener.Addr().String(), "accept", err)
		}

		if !s.canAccept() {
			s.log.WithField("remote", conn.RemoteAddr().String()).
				Warning("connection limit reached, rejecting")
			conn.Close()
			continue
		}

		sess := s.attach(conn)
		pumps.Go(func() error {
			s.readPump(sess, conn)
			return nil
		})
	}
	return pumps.Wait()
}

// canAccept returns true if the server is below its connection limit.
func (s *Server) canAccept() bool {
	if s.config.MaxConnections == 0 {
		return true
	}
	return s.registry.Count() < s.config.MaxConnections
}

// attach builds a session for an accepted connection, registers it, and
// subscribes the registry upkeep. Registry mutation happens only here (on
// creation) and in the closed hook.
func (s *Server) attach(conn net.Conn) *session.Session {
	sess := session.New(conn, session.Options{
		IdleTimeout: s.config.IdleTimeout,
		MaxBuffer:   s.config.MaxBuffer,
		Logger:      s.log,
	})

	sess.Subscribe(session.Hooks{
		Ready: func(sess *session.Session) {
			s.log.WithFields(logrus.Fields{
				"session":   sess.ID(),
				"variables": len(sess.Variables()),
			}).Info("session ready")
		},
		Closed: func(sess *session.Session, reason error) {
			// Already-gone is fine: registry shutdown races this hook.
			err := s.registry.Unregister(sess.ID())
			if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
				s.log.WithError(err).WithField("session", sess.ID()).
					Warning("unregister on close")
			}
		},
	})

	if err := s.registry.Register(sess); err != nil {
		// ULID collisions do not happen in practice; log and carry on
		// with an untracked session rather than drop the call.
		s.log.WithError(err).WithField("session", sess.ID()).Error("register session")
	}
	return sess
}

// readPump reads the connection until it ends and feeds the session in
// arrival order. It is the session's single inbound executor.
func (s *Server) readPump(sess *session.Session, conn net.Conn) {
	buf := make([]byte, DefaultReadChunk)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			sess.Feed(buf[:n])
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// Clean stream end.
				sess.Close(nil)
			case isTimeout(err):
				sess.CloseWithError(session.ErrTimeout)
			default:
				sess.CloseWithError(err)
			}
			return
		}
		if sess.State() == session.StateClosed {
			return
		}
	}
}

// isTimeout checks if an error is a deadline expiry.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// Close gracefully shuts down the server: the listener stops accepting and
// every registered session is closed. Idempotent.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	return s.registry.Close()
}

// ConnectionCount returns the number of active sessions.
func (s *Server) ConnectionCount() int {
	return s.registry.Count()
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Done returns a channel that is closed when the server shuts down.
func (s *Server) Done() <-chan struct{} {
	return s.done
}
