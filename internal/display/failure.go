package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/leynos/mxd/internal/mermaid"
)

// Failure describes one diagram block that did not render.
type Failure struct {
	Document   string         // Document path as given on the command line
	Block      int            // 1-based position of the diagram within the document
	Line       int            // Line number of the opening fence
	Status     mermaid.Status // Failure classification
	Diagnostic string         // Extracted renderer output (optional)
}

// Headline returns the single-line description of the failure.
func (f Failure) Headline() string {
	if f.Status == mermaid.StatusTimedOut {
		return fmt.Sprintf("%s: diagram %d (line %d) timed out", f.Document, f.Block, f.Line)
	}
	return fmt.Sprintf("%s: diagram %d (line %d) failed to render", f.Document, f.Block, f.Line)
}

// Display shows the failure headline with the diagnostic indented underneath.
// All diagnostic lines get the same indent so the renderer's pointer lines
// keep their column alignment.
func (f Failure) Display(out io.Writer, colorOutput bool) {
	var b strings.Builder

	if colorOutput {
		b.WriteString("\x1b[31m")
		b.WriteString(f.Headline())
		b.WriteString("\x1b[0m")
	} else {
		b.WriteString(f.Headline())
	}
	b.WriteString("\n")

	if f.Diagnostic != "" {
		for _, line := range strings.Split(strings.TrimRight(f.Diagnostic, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	fmt.Fprint(out, b.String())
}
