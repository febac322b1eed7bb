package protocol

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrIncomplete indicates the buffered text does not yet contain a complete
// response. The caller must leave the buffer intact and wait for more data;
// buffered bytes are never consumed until a full, unambiguous match exists.
var ErrIncomplete = errors.New("response incomplete")

// Response is a parsed AGI command response.
//
// Responses take one of two shapes on the wire:
//
//	200 result=0
//
// or a continuation form where every line carries the code, continuation
// lines use a dash separator, and a space-separated line terminates:
//
//	520-Invalid command syntax.
//	520 End of proper usage.
type Response struct {
	// Code is the three-digit status code.
	Code int

	// Result is the result token, when the response carried one.
	Result string

	// ResultPresent distinguishes an absent result from an empty token.
	ResultPresent bool

	// Lines holds continuation-line text, in arrival order, with the
	// code and dash marker stripped. Empty for single-line responses.
	Lines []string
}

var (
	// statusLine matches any response line: code, separator, remainder.
	// A space separator terminates the response; a dash continues it.
	statusLine = regexp.MustCompile(`^(\d{3})([ -])(.*)$`)

	// resultToken extracts the result token from a terminating line.
	// Trailing text after the token (e.g. "result=1 (timeout)") is
	// permitted and ignored.
	resultToken = regexp.MustCompile(`^result=(\S*)`)
)

// ParseResponse attempts to match a complete response against the buffered
// text. Returns ErrIncomplete while no full match exists; any other outcome
// is a complete Response. The caller clears its buffer only on success.
func ParseResponse(buffered string) (*Response, error) {
	if !strings.HasSuffix(buffered, "\n") {
		return nil, ErrIncomplete
	}

	lines := strings.Split(strings.TrimRight(buffered, "\n"), "\n")

	first := statusLine.FindStringSubmatch(strings.TrimRight(lines[0], "\r"))
	if first == nil {
		return nil, ErrIncomplete
	}

	code, err := strconv.Atoi(first[1])
	if err != nil {
		return nil, ErrIncomplete
	}

	resp := &Response{Code: code, Lines: []string{}}

	if first[2] == " " {
		// Single-line form; complete as soon as the line is.
		resp.setResult(first[3])
		return resp, nil
	}

	// Continuation form: collect dash lines until a space-separated line
	// with the same code terminates the response.
	resp.Lines = append(resp.Lines, first[3])
	for _, raw := range lines[1:] {
		m := statusLine.FindStringSubmatch(strings.TrimRight(raw, "\r"))
		if m == nil || m[1] != first[1] {
			return nil, ErrIncomplete
		}
		if m[2] == "-" {
			resp.Lines = append(resp.Lines, m[3])
			continue
		}
		resp.setResult(m[3])
		return resp, nil
	}
	return nil, ErrIncomplete
}

// setResult records the result token from a terminating line's remainder,
// if one is present.
func (r *Response) setResult(rest string) {
	if m := resultToken.FindStringSubmatch(rest); m != nil {
		r.Result = m[1]
		r.ResultPresent = true
	}
}

// Success reports whether the response carries a 2xx status code.
func (r *Response) Success() bool {
	return r.Code >= 200 && r.Code < 300
}
