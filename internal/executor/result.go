package executor

import (
	"time"

	"github.com/leynos/mxd/internal/markdown"
	"github.com/leynos/mxd/internal/mermaid"
)

// BlockResult ties one diagram's render outcome to its source block.
type BlockResult struct {
	Block   markdown.Block
	Outcome mermaid.Outcome
}

// DocumentResult aggregates the render outcomes of a single document.
type DocumentResult struct {
	// Path is the document path as given by the caller.
	Path string

	// Blocks holds one result per extracted diagram, in block order.
	// A document without diagrams has no block results and passes.
	Blocks []BlockResult

	// Err records an environmental failure such as an unreadable file.
	// Render failures are not errors; they live in Blocks.
	Err error

	// Duration covers extraction and all renders of the document.
	Duration time.Duration
}

// Passed reports whether the document was checked without any failure.
func (d DocumentResult) Passed() bool {
	if d.Err != nil {
		return false
	}
	for _, b := range d.Blocks {
		if b.Outcome.Status.Failed() {
			return false
		}
	}
	return true
}

// Failures returns the block results that did not render, in block order.
func (d DocumentResult) Failures() []BlockResult {
	var failures []BlockResult
	for _, b := range d.Blocks {
		if b.Outcome.Status.Failed() {
			failures = append(failures, b)
		}
	}
	return failures
}

// RunResult is the aggregate outcome of one check run.
type RunResult struct {
	// ID uniquely identifies the run, e.g. for history recording.
	ID string

	// Documents holds one result per input document, in input order.
	Documents []DocumentResult

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}

// Passed reports whether every document passed.
func (r *RunResult) Passed() bool {
	for _, d := range r.Documents {
		if !d.Passed() {
			return false
		}
	}
	return true
}

// DiagramCount returns the total number of diagrams across all documents.
func (r *RunResult) DiagramCount() int {
	count := 0
	for _, d := range r.Documents {
		count += len(d.Blocks)
	}
	return count
}

// FailureCount returns the number of diagrams that did not render.
func (r *RunResult) FailureCount() int {
	count := 0
	for _, d := range r.Documents {
		count += len(d.Failures())
	}
	return count
}

// ToolingMissing reports whether any block failed because the renderer
// executable could not be started.
func (r *RunResult) ToolingMissing() bool {
	for _, d := range r.Documents {
		for _, b := range d.Blocks {
			if b.Outcome.Status == mermaid.StatusToolingMissing {
				return true
			}
		}
	}
	return false
}
