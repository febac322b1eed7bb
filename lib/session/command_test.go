package session

import (
	"errors"
	"testing"

	"github.com/go-agi/go-agi-bridge/lib/protocol"
)

func TestSubmit_RoundTrip(t *testing.T) {
	s, conn, rec := newTestSession(t)
	s.Feed([]byte(handshake))

	done := s.Submit("STREAM FILE hello none")
	if err := <-done; err != nil {
		t.Fatalf("completion settled with %v", err)
	}

	if got := conn.writtenString(); got != "STREAM FILE hello none\n" {
		t.Errorf("wrote %q, want newline-terminated command", got)
	}
	if s.State() != StateWaitResponse {
		t.Fatalf("State() = %v, want WAIT_RESPONSE", s.State())
	}
	// Write settled, but no response signal may exist yet.
	if len(rec.responses) != 0 {
		t.Fatalf("response emitted before any bytes arrived")
	}

	s.Feed([]byte("200 result=0\n"))

	if len(rec.responses) != 1 {
		t.Fatalf("response signals = %d, want 1", len(rec.responses))
	}
	resp := rec.responses[0]
	if resp.Code != 200 || resp.Result != "0" || len(resp.Lines) != 0 {
		t.Errorf("response = %+v, want code 200 result 0", resp)
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v, want IDLE after response", s.State())
	}
}

func TestSubmit_TrailingNewlineNotDoubled(t *testing.T) {
	s, conn, _ := newTestSession(t)
	s.Feed([]byte(handshake))

	if err := <-s.Submit("ANSWER\n"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := conn.writtenString(); got != "ANSWER\n" {
		t.Errorf("wrote %q, want single trailing newline", got)
	}
}

func TestSubmit_RejectedOutsideIdle(t *testing.T) {
	states := []State{StateInit, StateWriting, StateWaitResponse, StateHangup, StateClosed}

	for _, st := range states {
		t.Run(st.String(), func(t *testing.T) {
			s, conn, _ := newTestSession(t)
			forceState(s, st)

			err := <-s.Submit("ANSWER")

			var invalid *InvalidRequestError
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want *InvalidRequestError", err)
			}
			if invalid.State != st {
				t.Errorf("reported state = %v, want %v", invalid.State, st)
			}
			if s.State() != st {
				t.Errorf("session state mutated: %v -> %v", st, s.State())
			}
			if conn.writtenString() != "" {
				t.Errorf("bytes written despite rejection: %q", conn.writtenString())
			}
		})
	}
}

func TestSubmit_SecondCommandWhileAwaitingResponse(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Feed([]byte(handshake))

	if err := <-s.Submit("ANSWER"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	err := <-s.Submit("HANGUP")
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("second Submit err = %v, want *InvalidRequestError", err)
	}
	if s.State() != StateWaitResponse {
		t.Errorf("State() = %v, want WAIT_RESPONSE unchanged", s.State())
	}
}

func TestSubmit_EmptyCommand(t *testing.T) {
	tests := []string{"", "   ", "\n", "\r\n"}

	for _, input := range tests {
		s, _, _ := newTestSession(t)
		s.Feed([]byte(handshake))

		if err := <-s.Submit(input); !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("Submit(%q) = %v, want ErrEmptyCommand", input, err)
		}
		if s.State() != StateIdle {
			t.Errorf("Submit(%q) mutated state to %v", input, s.State())
		}
	}
}

func TestSubmit_WriteFailureClosesSession(t *testing.T) {
	s, conn, rec := newTestSession(t)
	s.Feed([]byte(handshake))

	conn.mu.Lock()
	conn.writeErr = errors.New("broken pipe")
	conn.mu.Unlock()

	err := <-s.Submit("ANSWER")
	if err == nil {
		t.Fatal("completion settled nil despite write failure")
	}
	if !s.Failed() {
		t.Error("Failed() = false, want latched")
	}
	if s.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", s.State())
	}
	if len(rec.closed) != 1 {
		t.Errorf("closed signals = %d, want 1", len(rec.closed))
	}
}

func TestSubmit_AtMostOneResponsePerCommand(t *testing.T) {
	s, _, rec := newTestSession(t)
	s.Feed([]byte(handshake))

	if err := <-s.Submit("WAIT FOR DIGIT -1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// A fragmented response must produce exactly one signal once complete.
	for _, chunk := range []string{"200 ", "result=", "49\n"} {
		s.Feed([]byte(chunk))
	}
	if len(rec.responses) != 1 {
		t.Fatalf("response signals = %d, want 1", len(rec.responses))
	}
	if rec.responses[0].Result != "49" {
		t.Errorf("result = %q, want 49", rec.responses[0].Result)
	}

	// Stray coded lines while idle do not synthesize another response.
	s.Feed([]byte("200 result=0\n"))
	if len(rec.responses) != 1 {
		t.Errorf("response signals = %d after stray data, want 1", len(rec.responses))
	}
}

func TestSubmit_ContinuationResponse(t *testing.T) {
	s, _, rec := newTestSession(t)
	s.Feed([]byte(handshake))

	if err := <-s.Submit("BAD COMMAND"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s.Feed([]byte("520-Invalid command syntax.\n"))
	if len(rec.responses) != 0 {
		t.Fatal("response emitted before terminating line")
	}

	s.Feed([]byte("520 End of proper usage.\n"))
	if len(rec.responses) != 1 {
		t.Fatalf("response signals = %d, want 1", len(rec.responses))
	}
	resp := rec.responses[0]
	if resp.Code != protocol.CodeUsage || len(resp.Lines) != 1 {
		t.Errorf("response = %+v, want code 520 with one continuation line", resp)
	}
}
