//go:build ignore
// +build ignore

// Demo script showing block extraction and diagnostic reduction
// Run with: go run scripts/demo-diagnostics.go
package main

import (
	"fmt"
	"strings"

	"github.com/leynos/mxd/internal/markdown"
	"github.com/leynos/mxd/internal/mermaid"
)

const sampleDocument = `# Payment Service

The happy path:

` + "```mermaid" + `
sequenceDiagram
    Client->>API: POST /charge
    API->>Bank: authorize
` + "```" + `

A mistagged fence that mxd warns about:

` + "```Mermaid" + `
graph TD;
    A --> B;
` + "```" + `
`

const sampleStderr = `Puppeteer old Headless deprecation warning:
    In the near future headless: true will default to the new Headless mode.
Error: Parse error on line 2:
graph TD;  A -->
-----------------^
Expecting 'AMP', 'COLON', 'PIPE', got 'EOF'
    at Parser.parseError (/usr/lib/node_modules/@mermaid-js/mermaid-cli/node_modules/mermaid/dist/mermaid.js:1034:8)
    at Parser.parse (/usr/lib/node_modules/@mermaid-js/mermaid-cli/node_modules/mermaid/dist/mermaid.js:1102:22)
`

func main() {
	banner := strings.Repeat("=", 60)
	divider := strings.Repeat("-", 60)

	fmt.Println(banner)
	fmt.Println("mxd Extraction and Diagnostics Demo")
	fmt.Println(banner)
	fmt.Println()

	// Demo 1: Block extraction
	fmt.Println(divider)
	fmt.Println("Demo 1: Mermaid Block Extraction")
	fmt.Println(divider)

	extractor := markdown.NewExtractor()
	blocks := extractor.ExtractBlocks([]byte(sampleDocument))
	fmt.Printf("Found %d mermaid block(s):\n", len(blocks))
	for _, block := range blocks {
		firstLine, _, _ := strings.Cut(string(block.Body), "\n")
		fmt.Printf("  Block %d (line %d): %s\n", block.Index, block.Line, firstLine)
	}
	fmt.Println()

	// Demo 2: Suspect tags
	fmt.Println(divider)
	fmt.Println("Demo 2: Suspect Tag Detection")
	fmt.Println(divider)

	suspects := extractor.FindSuspectTags([]byte(sampleDocument))
	for _, suspect := range suspects {
		fmt.Printf("  Line %d: fence tagged %q is skipped (only 'mermaid' is checked)\n",
			suspect.Line, suspect.Tag)
	}
	fmt.Println()

	// Demo 3: Diagnostic reduction
	fmt.Println(divider)
	fmt.Println("Demo 3: Renderer Stderr Reduction")
	fmt.Println(divider)

	fmt.Printf("Raw mermaid-cli stderr (%d lines):\n", strings.Count(sampleStderr, "\n"))
	for _, line := range strings.Split(strings.TrimRight(sampleStderr, "\n"), "\n") {
		fmt.Printf("  | %s\n", line)
	}
	fmt.Println()

	diagnostic, isSyntax := mermaid.ExtractDiagnostic(sampleStderr)
	fmt.Printf("Reduced diagnostic (syntax error: %v):\n", isSyntax)
	for _, line := range strings.Split(diagnostic, "\n") {
		fmt.Printf("  > %s\n", line)
	}
	fmt.Println()

	fmt.Println(banner)
	fmt.Println("Demo Complete!")
	fmt.Println(banner)
}
