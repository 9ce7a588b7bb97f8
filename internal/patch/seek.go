package patch

import "strings"

// seekSequence finds the first occurrence of pattern in lines at or after
// start. It tries an exact match first and falls back to comparing lines
// with surrounding whitespace trimmed. Returns -1 when the pattern is
// empty or absent.
func seekSequence(lines, pattern []string, start int) int {
	if len(pattern) == 0 {
		return -1
	}

	for i := start; i <= len(lines)-len(pattern); i++ {
		match := true
		for j := range pattern {
			if lines[i+j] != pattern[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}

	// Exact match failed, retry ignoring indentation changes.
	for i := start; i <= len(lines)-len(pattern); i++ {
		match := true
		for j := range pattern {
			if strings.TrimSpace(lines[i+j]) != strings.TrimSpace(pattern[j]) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}

	return -1
}
