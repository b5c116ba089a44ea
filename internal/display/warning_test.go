package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisplayWarning_TitleOnly(t *testing.T) {
	var buf bytes.Buffer
	w := Warning{
		Title: "Configuration Missing",
	}

	w.Display(&buf)

	output := buf.String()

	// Should contain yellow color code
	if !strings.Contains(output, "\x1b[33m") {
		t.Error("Expected yellow ANSI color code in output")
	}

	// Should contain warning emoji
	if !strings.Contains(output, "⚠️") {
		t.Error("Expected warning emoji ⚠️ in output")
	}

	// Should contain title
	if !strings.Contains(output, "Configuration Missing") {
		t.Error("Expected title in output")
	}

	// Should end with reset code
	if !strings.Contains(output, "\x1b[0m") {
		t.Error("Expected ANSI reset code in output")
	}
}

func TestDisplayWarning_WithMessage(t *testing.T) {
	var buf bytes.Buffer
	w := Warning{
		Title:   "Deprecated Setting",
		Message: "Setting 'jobs' was renamed to 'max_concurrency'",
	}

	w.Display(&buf)

	output := buf.String()

	// Should contain title
	if !strings.Contains(output, "Deprecated Setting") {
		t.Error("Expected title in output")
	}

	// Should contain message with indentation
	if !strings.Contains(output, "    Setting 'jobs' was renamed to 'max_concurrency'") {
		t.Error("Expected indented message in output")
	}
}

func TestDisplayWarning_WithFiles(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantText string
	}{
		{
			name:     "single file",
			files:    []string{"docs/pipeline.md"},
			wantText: "Affected file:",
		},
		{
			name:     "multiple files",
			files:    []string{"docs/pipeline.md", "docs/states.md", "README.md"},
			wantText: "Affected files:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := Warning{
				Title: "Unchecked Diagrams",
				Files: tt.files,
			}

			w.Display(&buf)

			output := buf.String()

			// Should use singular/plural correctly
			if !strings.Contains(output, tt.wantText) {
				t.Errorf("Expected %q in output, got: %s", tt.wantText, output)
			}

			// Files should be numbered
			for i, file := range tt.files {
				numbered := strings.Contains(output, "      ")
				if !numbered || !strings.Contains(output, file) {
					t.Errorf("Expected numbered file entry %d (%s) in output", i+1, file)
				}
			}
		})
	}
}

func TestDisplayWarning_WithSuggestion(t *testing.T) {
	var buf bytes.Buffer
	w := Warning{
		Title:      "Renderer Not Pinned",
		Suggestion: "Install @mermaid-js/mermaid-cli globally to avoid cold npx fetches",
	}

	w.Display(&buf)

	output := buf.String()

	if !strings.Contains(output, "    Suggestion:") {
		t.Error("Expected suggestion header in output")
	}
	if !strings.Contains(output, "Install @mermaid-js/mermaid-cli globally") {
		t.Error("Expected suggestion text in output")
	}
}

func TestWarnSuspectTags(t *testing.T) {
	w := WarnSuspectTags([]string{"Mermaid", "MERMAID"}, []string{"docs/pipeline.md"})

	if !strings.Contains(w.Title, "Mermaid, MERMAID") {
		t.Errorf("Expected tags in title, got: %s", w.Title)
	}
	if len(w.Files) != 1 || w.Files[0] != "docs/pipeline.md" {
		t.Errorf("Expected affected file in warning, got: %v", w.Files)
	}
	if w.Suggestion == "" {
		t.Error("Expected a suggestion for retag action")
	}

	var buf bytes.Buffer
	w.Display(&buf)
	if !strings.Contains(buf.String(), "exactly 'mermaid'") {
		t.Errorf("Expected exact-tag explanation in output, got: %s", buf.String())
	}
}
