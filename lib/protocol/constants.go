// Package protocol implements framing and parsing for the AGI wire protocol.
// An AGI session opens with a block of "agi_key: value" lines terminated by a
// blank line, after which the engine sends newline-terminated command lines
// and the switch answers each with a coded response. The switch may signal
// call termination at any point with a bare HANGUP line.
package protocol

const (
	// HangupToken is the bare line the switch sends when the remote call
	// leg ends. It is recognized in every session state.
	HangupToken = "HANGUP"

	// VariablePrefix is the namespace prefix carried by every handshake
	// variable name. The prefix is stripped before variables are stored.
	VariablePrefix = "agi_"

	// DefaultMaxBuffer is the default bound on the inbound buffer. A peer
	// that streams data without ever completing a message would otherwise
	// grow the buffer without limit.
	DefaultMaxBuffer = 65536
)

// Well-known AGI status code classes.
const (
	// CodeSuccess is returned for commands the switch executed.
	CodeSuccess = 200

	// CodeInvalid is returned for commands the switch does not recognize.
	CodeInvalid = 510

	// CodeUsage introduces a multi-line usage response for a command
	// invoked with bad arguments.
	CodeUsage = 520
)
