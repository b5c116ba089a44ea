package mermaid

import (
	"fmt"
	"regexp"
	"strings"
)

// parseErrorPattern matches the marker mermaid-cli prints when the diagram
// source itself is at fault, as opposed to an environmental failure.
var parseErrorPattern = regexp.MustCompile(`Parse error on line (\d+):`)

// ExtractDiagnostic reduces renderer stderr to a concise message.
//
// mermaid-cli surrounds its useful output with stack traces and puppeteer
// noise. When a parse error marker is present and at least two lines follow
// it, the result is rebuilt from the marker's line number, the offending
// source snippet, the caret pointer line, and the detail line when one
// exists. Without a usable marker the trimmed stderr is returned whole.
//
// The boolean reports whether a parse error marker was found, which
// distinguishes a syntax failure from a generic render failure.
func ExtractDiagnostic(stderr string) (string, bool) {
	lines := splitLines(stderr)
	for i, line := range lines {
		m := parseErrorPattern.FindStringSubmatch(line)
		if m == nil || i+2 >= len(lines) {
			continue
		}
		snippet := lines[i+1]
		pointer := lines[i+2]
		detail := ""
		if i+3 < len(lines) {
			detail = lines[i+3]
		}
		return fmt.Sprintf("Parse error on line %s:\n%s\n%s\n%s", m[1], snippet, pointer, detail), true
	}
	return strings.TrimSpace(stderr), false
}

// splitLines splits on newlines without producing a trailing empty line,
// so the lines-following-the-marker count reflects actual output lines.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
