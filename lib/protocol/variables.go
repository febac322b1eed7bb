package protocol

import (
	"regexp"
	"strings"
)

// variableLine matches one handshake line after surrounding whitespace has
// been stripped. The captured key excludes the namespace prefix.
var variableLine = regexp.MustCompile(`^` + VariablePrefix + `(\w+):\s*(.*)$`)

// ParseVariables extracts channel variables from a handshake block. Each
// line is expected to match "agi_key: value"; the prefix is stripped before
// the key is stored. Lines that do not match are skipped silently - the
// parser has no failure mode, and absence of expected variables must be
// handled by downstream consumers.
func ParseVariables(block string) map[string]string {
	vars := make(map[string]string)
	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := variableLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		vars[m[1]] = m[2]
	}
	return vars
}
