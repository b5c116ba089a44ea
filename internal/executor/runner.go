package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leynos/mxd/internal/markdown"
	"github.com/leynos/mxd/internal/mermaid"
)

// DefaultMaxConcurrency caps simultaneous renderer processes when the
// caller does not configure a limit. Each render spawns a headless
// browser, so the default stays low.
const DefaultMaxConcurrency = 4

// Logger defines the interface for logging run progress.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// DiagramRenderer renders one diagram source file to an output path.
// mermaid.Renderer is the production implementation.
type DiagramRenderer interface {
	Render(ctx context.Context, sourcePath, outputPath string) mermaid.Outcome
}

// Options configures a Runner.
type Options struct {
	// CLI is the resolved renderer command.
	CLI mermaid.CLI

	// MaxConcurrency caps simultaneous renderer processes across the whole
	// run. Zero or negative means DefaultMaxConcurrency.
	MaxConcurrency int

	// Timeout bounds each render. Zero means no limit.
	Timeout time.Duration
}

// Runner coordinates diagram rendering across all documents of a run.
// It owns the scratch space lifecycle: the shared renderer config lives
// for the run, each document gets its own scratch directory, and both are
// removed on every exit path.
type Runner struct {
	opts      Options
	extractor *markdown.Extractor
	logger    Logger

	// newRenderer builds the per-run renderer once the shared config
	// exists on disk. Tests substitute a stub here.
	newRenderer func(configPath string) DiagramRenderer
}

// NewRunner creates a Runner with the given options.
// The logger parameter is optional and can be nil.
func NewRunner(opts Options, logger Logger) *Runner {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}

	r := &Runner{
		opts:      opts,
		extractor: markdown.NewExtractor(),
		logger:    logger,
	}
	r.newRenderer = func(configPath string) DiagramRenderer {
		return mermaid.NewRenderer(opts.CLI, configPath, opts.Timeout)
	}
	return r
}

// runState carries the per-run pieces shared by every block render.
type runState struct {
	renderer  DiagramRenderer
	semaphore chan struct{}

	// toolingMissing flips once a render reports the executable absent;
	// blocks not yet started then resolve without spawning.
	toolingMissing atomic.Bool
}

// Run checks every document and aggregates per-block outcomes in input
// order. Render failures are data in the result, never errors; the
// returned error is reserved for run-level problems such as scratch space
// creation or cancellation.
func (r *Runner) Run(ctx context.Context, paths []string) (*RunResult, error) {
	result := &RunResult{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Documents: make([]DocumentResult, len(paths)),
	}

	if len(paths) == 0 {
		return result, nil
	}

	scratchRoot, err := os.MkdirTemp("", "mxd-run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchRoot)

	configPath, err := mermaid.WriteConfig(scratchRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to write renderer config: %w", err)
	}

	run := &runState{
		renderer:  r.newRenderer(configPath),
		semaphore: make(chan struct{}, r.opts.MaxConcurrency),
	}

	if r.logger != nil {
		r.logger.LogInfo(fmt.Sprintf("run %s: checking %d document(s), concurrency %d",
			shortRunID(result.ID), len(paths), r.opts.MaxConcurrency))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.opts.MaxConcurrency, len(paths)))

	for i, path := range paths {
		g.Go(func(i int, path string) func() error {
			return func() error {
				// Check context before starting work on a document.
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				result.Documents[i] = r.checkDocument(gctx, run, path)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(result.StartedAt)

	if r.logger != nil {
		r.logger.LogInfo(fmt.Sprintf("run %s: %d diagram(s), %d failure(s) in %s",
			shortRunID(result.ID), result.DiagramCount(), result.FailureCount(),
			result.Duration.Round(time.Millisecond)))
	}

	return result, nil
}

// checkDocument extracts and renders every diagram of one document.
// Its scratch directory is removed before returning.
func (r *Runner) checkDocument(ctx context.Context, run *runState, path string) DocumentResult {
	start := time.Now()
	result := DocumentResult{Path: path}

	source, err := os.ReadFile(path)
	if err != nil {
		result.Err = NewDocumentError(path, "failed to read document", err)
		result.Duration = time.Since(start)
		return result
	}

	blocks := r.extractor.ExtractBlocks(source)
	if r.logger != nil {
		r.logger.LogDebug(fmt.Sprintf("%s: %d diagram(s)", path, len(blocks)))
	}

	// A document without diagrams passes vacuously.
	if len(blocks) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	scratchDir, err := os.MkdirTemp("", "mxd-"+documentStem(path)+"-")
	if err != nil {
		result.Err = NewDocumentError(path, "failed to create scratch directory", err)
		result.Duration = time.Since(start)
		return result
	}
	defer os.RemoveAll(scratchDir)

	result.Blocks = make([]BlockResult, len(blocks))

	// Outcomes land at their block's index, so results stay in source
	// order no matter how renders interleave.
	g, gctx := errgroup.WithContext(ctx)
	for i, block := range blocks {
		g.Go(func(i int, block markdown.Block) func() error {
			return func() error {
				outcome, err := r.renderBlock(gctx, run, scratchDir, path, block)
				if err != nil {
					return err
				}
				result.Blocks[i] = BlockResult{Block: block, Outcome: outcome}
				return nil
			}
		}(i, block))
	}

	if err := g.Wait(); err != nil {
		result.Err = err
	}

	result.Duration = time.Since(start)
	return result
}

// renderBlock writes one diagram to scratch space and renders it under the
// run-wide concurrency limit. The returned error is environmental; render
// failures come back in the Outcome.
func (r *Runner) renderBlock(ctx context.Context, run *runState, scratchDir, path string, block markdown.Block) (mermaid.Outcome, error) {
	if run.toolingMissing.Load() {
		return mermaid.Outcome{Status: mermaid.StatusToolingMissing}, nil
	}

	sourcePath := filepath.Join(scratchDir, fmt.Sprintf("%s_%d.mmd", documentStem(path), block.Index))
	outputPath := strings.TrimSuffix(sourcePath, ".mmd") + ".svg"

	// The block body is written verbatim so the renderer sees exactly
	// what the document contains.
	if err := os.WriteFile(sourcePath, block.Body, 0o644); err != nil {
		return mermaid.Outcome{}, NewDocumentError(path, "failed to write diagram source", err)
	}

	// Check context before acquiring a slot to avoid blocking on a
	// cancelled context.
	select {
	case <-ctx.Done():
		return mermaid.Outcome{}, ctx.Err()
	case run.semaphore <- struct{}{}:
	}
	defer func() { <-run.semaphore }()

	// Another block may have hit the missing renderer while this one was
	// queued on the semaphore.
	if run.toolingMissing.Load() {
		return mermaid.Outcome{Status: mermaid.StatusToolingMissing}, nil
	}

	outcome := run.renderer.Render(ctx, sourcePath, outputPath)
	if r.logger != nil {
		r.logger.LogDebug(fmt.Sprintf("%s: diagram %d %s in %s",
			path, block.Index, outcome.Status, outcome.Duration.Round(time.Millisecond)))
	}

	if outcome.Status == mermaid.StatusToolingMissing && !run.toolingMissing.Swap(true) {
		if r.logger != nil {
			r.logger.LogWarn("renderer unavailable, remaining diagrams will not be attempted")
		}
	}

	return outcome, nil
}

// documentStem returns the base filename without its extension. Scratch
// files carry the stem plus block index, so concurrent renders across
// blocks and documents never collide.
func documentStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// shortRunID trims a run UUID to its first group for log lines.
func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
