package mermaid

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/leynos/mxd/internal/filelock"
)

// Status classifies the outcome of a single render.
type Status int

const (
	// StatusPassed means the renderer exited zero.
	StatusPassed Status = iota
	// StatusSyntaxError means the renderer rejected the diagram source and
	// its stderr carried a parse error marker.
	StatusSyntaxError
	// StatusRenderFailed means the renderer exited nonzero without a parse
	// error marker.
	StatusRenderFailed
	// StatusTimedOut means the bounded wait expired and the renderer was
	// killed.
	StatusTimedOut
	// StatusToolingMissing means the renderer executable could not be
	// started at all.
	StatusToolingMissing
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusSyntaxError:
		return "syntax-error"
	case StatusRenderFailed:
		return "render-failed"
	case StatusTimedOut:
		return "timed-out"
	case StatusToolingMissing:
		return "tooling-missing"
	default:
		return "unknown"
	}
}

// Failed reports whether the status is any of the failure outcomes.
func (s Status) Failed() bool {
	return s != StatusPassed
}

// Outcome captures the result of rendering one diagram.
type Outcome struct {
	Status     Status
	Diagnostic string
	ExitCode   int
	Duration   time.Duration
}

// waitDelay bounds how long a killed renderer may keep its pipes open.
// The headless browser spawns children that inherit stderr and can outlive
// the killed parent; without the delay a timed-out render would block on
// pipe drain instead of returning.
const waitDelay = 5 * time.Second

// Renderer is a reusable client for mermaid-cli invocations.
// It follows the http.Client pattern: create once, use many times.
// Thread-safe for concurrent use.
type Renderer struct {
	// CLI is the resolved renderer command.
	CLI CLI

	// ConfigPath is the shared puppeteer configuration file passed to every
	// invocation via -p.
	ConfigPath string

	// Timeout bounds each render. Zero means no limit.
	Timeout time.Duration

	// fetchOnce serializes the first package-runner render, which may
	// download mermaid-cli into the npm cache.
	fetchOnce sync.Once
}

// NewRenderer creates a Renderer for the given command and puppeteer config.
func NewRenderer(cli CLI, configPath string, timeout time.Duration) *Renderer {
	return &Renderer{
		CLI:        cli,
		ConfigPath: configPath,
		Timeout:    timeout,
	}
}

// Render renders the mermaid source at sourcePath to outputPath and
// classifies the result. Renderer failures are reported in the Outcome,
// never as errors; the process is judged solely by its exit code and
// stderr.
func (r *Renderer) Render(ctx context.Context, sourcePath, outputPath string) Outcome {
	if r.CLI.UsesPackageRunner() {
		var first Outcome
		ran := false
		r.fetchOnce.Do(func() {
			first = r.renderHoldingFetchLock(ctx, sourcePath, outputPath)
			ran = true
		})
		if ran {
			return first
		}
	}
	return r.render(ctx, sourcePath, outputPath)
}

// renderHoldingFetchLock runs a render under the cross-process fetch lock.
// Concurrent cold-cache fetches of the mermaid-cli package from separate
// processes duplicate downloads and can corrupt the npm cache, so the first
// package-runner render of each process holds an exclusive lock. Lock
// acquisition is best-effort: coordination failure must not fail the render.
func (r *Renderer) renderHoldingFetchLock(ctx context.Context, sourcePath, outputPath string) Outcome {
	lock := filelock.NewFileLock(filepath.Join(os.TempDir(), "mxd-npx-fetch.lock"))
	if err := lock.Lock(); err == nil {
		defer lock.Unlock()
	}
	return r.render(ctx, sourcePath, outputPath)
}

// render performs the actual mermaid-cli call.
// Invocation shape: <cli> [runner args] -p <config> -i <source> -o <output>
func (r *Renderer) render(ctx context.Context, sourcePath, outputPath string) Outcome {
	start := time.Now()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append([]string{}, r.CLI.Args...)
	args = append(args, "-p", r.ConfigPath, "-i", sourcePath, "-o", outputPath)

	cmd := exec.CommandContext(ctx, r.CLI.Path, args...)
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	if err == nil {
		return Outcome{Status: StatusPassed, Duration: duration}
	}

	// The kill delivered on context expiry makes the process exit nonzero,
	// so the deadline check must come before exit code classification.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Outcome{Status: StatusTimedOut, Duration: duration}
	}
	if ctx.Err() != nil {
		return Outcome{
			Status:     StatusRenderFailed,
			Diagnostic: "render canceled",
			Duration:   duration,
		}
	}

	// exec.ErrNotFound covers a bare name missing from PATH; os.ErrNotExist
	// covers an explicit renderer path that does not exist.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return Outcome{
			Status:     StatusToolingMissing,
			Diagnostic: MissingToolingHint(r.CLI.Path),
			Duration:   duration,
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		diagnostic, isParseError := ExtractDiagnostic(stderr.String())
		status := StatusRenderFailed
		if isParseError {
			status = StatusSyntaxError
		}
		return Outcome{
			Status:     status,
			Diagnostic: diagnostic,
			ExitCode:   exitErr.ExitCode(),
			Duration:   duration,
		}
	}

	return Outcome{
		Status:     StatusRenderFailed,
		Diagnostic: err.Error(),
		Duration:   duration,
	}
}
