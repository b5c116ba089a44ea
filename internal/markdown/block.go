// Package markdown locates fenced mermaid code blocks in Markdown documents.
//
// Documents are parsed with goldmark's CommonMark parser, so fence
// recognition follows CommonMark exactly: backtick or tilde fences of any
// length >= 3, optionally indented up to three spaces. A block is selected
// when the first word of its info string equals "mermaid" (case-sensitive).
// The block body is the raw source text between the fences, preserved
// byte-for-byte so the renderer sees exactly what the document contains.
package markdown

// Block is a single mermaid code block found in a document.
type Block struct {
	// Index is the 1-based position of the block among the document's
	// mermaid blocks, in source order.
	Index int

	// Line is the 1-based source line of the opening fence.
	Line int

	// Body is the raw fenced content, each line with its original
	// trailing newline.
	Body []byte
}
