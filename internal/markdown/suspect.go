package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SuspectTag records a fence tagged with a case variant of the diagram
// language, e.g. "Mermaid" or "MERMAID". ExtractBlocks skips such fences,
// which usually indicates a typo rather than an intentional language choice.
type SuspectTag struct {
	Tag  string // the info-string word as written
	Line int    // line number of the opening fence
}

// FindSuspectTags returns the case-variant fence tags of source in order of
// appearance. Exact lowercase tags and unrelated languages are not reported.
func (e *Extractor) FindSuspectTags(source []byte) []SuspectTag {
	doc := e.markdown.Parser().Parse(text.NewReader(source))

	var suspects []SuspectTag
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := string(fence.Language(source))
		if lang == diagramLanguage || !strings.EqualFold(lang, diagramLanguage) {
			return ast.WalkContinue, nil
		}

		suspects = append(suspects, SuspectTag{
			Tag:  lang,
			Line: fenceLine(fence, source),
		})

		return ast.WalkContinue, nil
	})

	return suspects
}
