package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// diagramLanguage is the info-string word that marks a renderable block.
const diagramLanguage = "mermaid"

// Extractor finds mermaid blocks in Markdown source.
// An Extractor is safe for reuse across documents.
type Extractor struct {
	markdown goldmark.Markdown
}

// NewExtractor creates an Extractor backed by a CommonMark parser.
func NewExtractor() *Extractor {
	return &Extractor{
		markdown: goldmark.New(),
	}
}

// ExtractBlocks returns the mermaid blocks of source in order of appearance.
// Fenced blocks tagged with any other language, untagged blocks, and inline
// or indented code are ignored. A document without mermaid blocks yields an
// empty slice.
func (e *Extractor) ExtractBlocks(source []byte) []Block {
	doc := e.markdown.Parser().Parse(text.NewReader(source))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		if string(fence.Language(source)) != diagramLanguage {
			return ast.WalkContinue, nil
		}

		blocks = append(blocks, Block{
			Index: len(blocks) + 1,
			Line:  fenceLine(fence, source),
			Body:  fenceBody(fence, source),
		})

		return ast.WalkContinue, nil
	})

	return blocks
}

// fenceBody concatenates the raw source lines of a fenced block.
func fenceBody(fence *ast.FencedCodeBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.Bytes()
}

// fenceLine locates the opening fence of a block.
// The info string sits on the fence line itself, so its segment start
// gives the line directly. Blocks selected by ExtractBlocks always carry
// an info string, but fall back to the first content line for safety.
func fenceLine(fence *ast.FencedCodeBlock, source []byte) int {
	if fence.Info != nil {
		return lineAt(source, fence.Info.Segment.Start)
	}
	if lines := fence.Lines(); lines.Len() > 0 {
		return lineAt(source, lines.At(0).Start) - 1
	}
	return 0
}

// lineAt returns the 1-based line number containing the byte offset.
func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
