package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leynos/mxd/internal/mermaid"
)

func TestFailureHeadline(t *testing.T) {
	tests := []struct {
		name    string
		failure Failure
		want    string
	}{
		{
			name: "syntax error",
			failure: Failure{
				Document: "docs/pipeline.md",
				Block:    2,
				Line:     40,
				Status:   mermaid.StatusSyntaxError,
			},
			want: "docs/pipeline.md: diagram 2 (line 40) failed to render",
		},
		{
			name: "generic render failure",
			failure: Failure{
				Document: "README.md",
				Block:    1,
				Line:     3,
				Status:   mermaid.StatusRenderFailed,
			},
			want: "README.md: diagram 1 (line 3) failed to render",
		},
		{
			name: "timeout",
			failure: Failure{
				Document: "docs/states.md",
				Block:    3,
				Line:     88,
				Status:   mermaid.StatusTimedOut,
			},
			want: "docs/states.md: diagram 3 (line 88) timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.failure.Headline(); got != tt.want {
				t.Errorf("Headline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailureDisplay_WithDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	f := Failure{
		Document:   "docs/pipeline.md",
		Block:      1,
		Line:       12,
		Status:     mermaid.StatusSyntaxError,
		Diagnostic: "Parse error on line 2:\ngraph TD;;\n---------^\nExpecting 'SEMI'",
	}

	f.Display(&buf, false)

	output := buf.String()

	// Headline first
	if !strings.HasPrefix(output, "docs/pipeline.md: diagram 1 (line 12) failed to render\n") {
		t.Errorf("Expected headline prefix, got: %q", output)
	}

	// Every diagnostic line gets the same 4-space indent
	for _, want := range []string{
		"    Parse error on line 2:\n",
		"    graph TD;;\n",
		"    ---------^\n",
		"    Expecting 'SEMI'\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %q", want, output)
		}
	}

	// Plain mode carries no ANSI codes
	if strings.Contains(output, "\x1b[") {
		t.Errorf("Expected no ANSI codes without color, got: %q", output)
	}
}

func TestFailureDisplay_Color(t *testing.T) {
	var buf bytes.Buffer
	f := Failure{
		Document: "docs/states.md",
		Block:    2,
		Line:     30,
		Status:   mermaid.StatusTimedOut,
	}

	f.Display(&buf, true)

	output := buf.String()

	// Headline wrapped in red with a reset
	if !strings.Contains(output, "\x1b[31mdocs/states.md: diagram 2 (line 30) timed out\x1b[0m") {
		t.Errorf("Expected red headline, got: %q", output)
	}
}

func TestFailureDisplay_NoDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	f := Failure{
		Document: "docs/states.md",
		Block:    1,
		Line:     5,
		Status:   mermaid.StatusTimedOut,
	}

	f.Display(&buf, false)

	// A timeout has nothing to quote, so the output is exactly one line
	want := "docs/states.md: diagram 1 (line 5) timed out\n"
	if got := buf.String(); got != want {
		t.Errorf("Display() = %q, want %q", got, want)
	}
}

func TestFailureDisplay_PointerAlignment(t *testing.T) {
	var buf bytes.Buffer
	f := Failure{
		Document:   "a.md",
		Block:      1,
		Line:       1,
		Status:     mermaid.StatusSyntaxError,
		Diagnostic: "Parse error on line 1:\nabc\n--^\n",
	}

	f.Display(&buf, false)

	lines := strings.Split(buf.String(), "\n")
	var snippet, pointer string
	for i, line := range lines {
		if strings.HasSuffix(line, "abc") && i+1 < len(lines) {
			snippet = line
			pointer = lines[i+1]
		}
	}

	if snippet == "" {
		t.Fatalf("snippet line not found in output: %q", buf.String())
	}

	// The caret's column offset relative to the snippet must survive the
	// indent, otherwise the renderer's pointer no longer points at the
	// offending character.
	snippetIndent := len(snippet) - len(strings.TrimLeft(snippet, " "))
	pointerIndent := len(pointer) - len(strings.TrimLeft(pointer, " "))
	if snippetIndent != pointerIndent {
		t.Errorf("snippet indent %d != pointer indent %d", snippetIndent, pointerIndent)
	}
}
