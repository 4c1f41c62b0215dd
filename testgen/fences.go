package testgen

import "strings"

// StripMarkdownFences removes a surrounding markdown code fence from
// provider output. Providers are told not to fence their output, but
// some do anyway.
func StripMarkdownFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return s
	}

	// Drop the opening fence (possibly carrying a language tag).
	lines = lines[1:]

	// Drop the closing fence if present.
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n") + "\n"
}
