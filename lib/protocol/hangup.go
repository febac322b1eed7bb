package protocol

import "strings"

// ContainsHangup reports whether the buffered text contains the hangup token
// alone on a complete line. Only complete lines count: a trailing fragment
// like "HANG" or "HANGUP" without its newline does not match, so the check
// stays correct under arbitrary chunking.
func ContainsHangup(buffered string) bool {
	rest := buffered
	for {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			return false
		}
		if strings.TrimRight(rest[:idx], "\r") == HangupToken {
			return true
		}
		rest = rest[idx+1:]
	}
}
