package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leynos/mxd/internal/config"
	"github.com/leynos/mxd/internal/display"
	"github.com/leynos/mxd/internal/executor"
	"github.com/leynos/mxd/internal/fileutil"
	"github.com/leynos/mxd/internal/history"
	"github.com/leynos/mxd/internal/logger"
	"github.com/leynos/mxd/internal/markdown"
	"github.com/leynos/mxd/internal/mermaid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates and returns the check subcommand
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file-or-directory...]",
		Short: "Render every mermaid diagram and report failures",
		Long: `Scan Markdown files for fenced mermaid code blocks and render each one
with mermaid-cli. The rendered images are discarded; only the verdict
matters. A document passes when all of its diagrams render, and a
document without diagrams passes vacuously.

Directories are scanned recursively for .md and .markdown files. Files
named explicitly are checked regardless of extension. With no arguments
the configured docs directory (default: docs) is scanned.

Configuration is loaded from .mxd/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Check the default docs directory
  mxd check

  # Single file
  mxd check README.md

  # Directories and files mixed
  mxd check docs/ CONTRIBUTING.md

  # Shell globs (expanded before mxd sees them)
  mxd check docs/**/*.md --concurrency 8

  # Other options
  mxd check --timeout 60s docs/        # Allow slow diagrams a full minute
  mxd check --renderer /opt/bin/mmdc   # Explicit renderer executable
  mxd check --no-history docs/         # Skip the run ledger
  mxd check --verbose docs/            # Show resolved documents and debug logs

Exit code: 0 if every diagram rendered, 1 if any failed`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runCheck,
		SilenceUsage: true,
	}

	// Add flags
	cmd.Flags().String("config", "", "Path to config file (default: .mxd/config.yaml)")
	cmd.Flags().Int("concurrency", -1, "Maximum simultaneous renderer processes (-1 = use config)")
	cmd.Flags().String("timeout", "", "Per-diagram render timeout (e.g. 30s, 2m)")
	cmd.Flags().String("renderer", "", "Renderer executable, bypassing mmdc/npx detection")
	cmd.Flags().String("docs-dir", "", "Directory scanned when no paths are given")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().Bool("verbose", false, "List resolved documents and enable debug logging")

	return cmd
}

// runCheck implements the check command logic
func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	// Load configuration from file
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only values the user set)
	var concurrencyPtr *int
	if cmd.Flags().Changed("concurrency") {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		concurrencyPtr = &concurrency
	}

	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	var docsDirPtr *string
	if cmd.Flags().Changed("docs-dir") {
		docsDir, _ := cmd.Flags().GetString("docs-dir")
		docsDirPtr = &docsDir
	}

	var rendererPtr *string
	if cmd.Flags().Changed("renderer") {
		renderer, _ := cmd.Flags().GetString("renderer")
		rendererPtr = &renderer
	}

	var historyEnabledPtr *bool
	if cmd.Flags().Changed("no-history") {
		noHistory, _ := cmd.Flags().GetBool("no-history")
		enabled := !noHistory
		historyEnabledPtr = &enabled
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(concurrencyPtr, timeoutPtr, docsDirPtr, rendererPtr, historyEnabledPtr)

	// Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}
	log := logger.NewConsoleLogger(errOut, logLevel)

	// Resolve positional arguments to documents
	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.DocsDir}
	}
	documents, err := resolveDocuments(paths, log)
	if err != nil {
		return err
	}

	// Near-miss fence tags never fail a run, only warn
	warnSuspectTags(documents, errOut)

	var progress *display.ProgressIndicator
	if verbose {
		if len(documents) == 1 {
			display.DisplaySingleDocument(out, displayPath(documents[0]))
		} else {
			progress = display.NewProgressIndicator(out, len(documents))
			progress.Start()
			for _, doc := range documents {
				progress.Step(doc)
			}
		}
	}

	// Resolve the renderer invocation
	var cli mermaid.CLI
	if cfg.Renderer != "" {
		cli = mermaid.CLI{Path: cfg.Renderer}
	} else {
		cli = mermaid.Locate()
	}

	runner := executor.NewRunner(executor.Options{
		CLI:            cli,
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        cfg.Timeout,
	}, log)

	result, err := runner.Run(cmd.Context(), documents)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Complete()
	}

	// Per-document verdicts on stdout, diagnostics on stderr
	for _, doc := range result.Documents {
		writeDocumentLine(out, doc)
	}
	displayFailures(errOut, result, isTerminal(errOut))
	if result.ToolingMissing() {
		fmt.Fprintln(errOut, mermaid.MissingToolingHint(cli.Path))
	}

	failures := result.FailureCount()
	docErrors := 0
	for _, doc := range result.Documents {
		if doc.Err != nil {
			docErrors++
		}
	}
	total := failures + docErrors

	fmt.Fprintf(out, "\nChecked %d document(s), %d diagram(s) in %s\n",
		len(result.Documents), result.DiagramCount(), result.Duration.Round(time.Millisecond))

	recordRunHistory(cmd, cfg, result, log)

	if total == 0 {
		fmt.Fprintf(out, "\n✓ All diagrams rendered!\n")
		return nil
	}

	fmt.Fprintf(out, "\n✗ Check failed\n")
	fmt.Fprintf(out, "\nFound %d failure(s)!\n", total)
	return fmt.Errorf("check failed with %d failure(s)", total)
}

// resolveDocuments expands the positional arguments into the list of
// documents to check. Directories are scanned for Markdown files; files are
// taken as given regardless of extension. Duplicates are removed and order
// is preserved: arguments in command-line order, scanned files sorted.
func resolveDocuments(paths []string, log executor.Logger) ([]string, error) {
	var documents []string
	seenFiles := make(map[string]bool) // Deduplicate files

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			result, err := fileutil.ScanMarkdown(absPath)
			if err != nil {
				return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
			}
			for _, scanErr := range result.Errors {
				log.LogWarn(fmt.Sprintf("skipped during scan: %v", scanErr))
			}
			if len(result.Files) == 0 {
				return nil, fmt.Errorf("no Markdown documents found in %s", path)
			}
			for _, file := range result.Files {
				if !seenFiles[file] {
					documents = append(documents, file)
					seenFiles[file] = true
				}
			}
		} else {
			if !seenFiles[absPath] {
				documents = append(documents, absPath)
				seenFiles[absPath] = true
			}
		}
	}

	return documents, nil
}

// warnSuspectTags scans the resolved documents for fences whose tag differs
// from "mermaid" only by case and prints a single warning naming them.
// Unreadable documents are skipped; the run reports those itself.
func warnSuspectTags(documents []string, errOut io.Writer) {
	extractor := markdown.NewExtractor()

	var tags []string
	seenTags := make(map[string]bool)
	var files []string
	seenDocs := make(map[string]bool)

	for _, doc := range documents {
		source, err := os.ReadFile(doc)
		if err != nil {
			continue
		}
		for _, suspect := range extractor.FindSuspectTags(source) {
			if !seenTags[suspect.Tag] {
				seenTags[suspect.Tag] = true
				tags = append(tags, suspect.Tag)
			}
			if !seenDocs[doc] {
				seenDocs[doc] = true
				files = append(files, displayPath(doc))
			}
		}
	}

	if len(tags) == 0 {
		return
	}

	warning := display.WarnSuspectTags(tags, files)
	warning.Display(errOut)
}

// writeDocumentLine prints the one-line verdict for a document
func writeDocumentLine(out io.Writer, doc executor.DocumentResult) {
	path := displayPath(doc.Path)

	switch {
	case doc.Err != nil:
		var docErr *executor.DocumentError
		if errors.As(doc.Err, &docErr) {
			fmt.Fprintf(out, "✗ %s (%s)\n", path, docErr.Message)
		} else {
			fmt.Fprintf(out, "✗ %s (%v)\n", path, doc.Err)
		}
	case len(doc.Blocks) == 0:
		fmt.Fprintf(out, "✓ %s (no diagrams)\n", path)
	case doc.Passed():
		fmt.Fprintf(out, "✓ %s (%d diagram(s))\n", path, len(doc.Blocks))
	default:
		fmt.Fprintf(out, "✗ %s (%d of %d diagram(s) failed)\n", path, len(doc.Failures()), len(doc.Blocks))
	}
}

// displayFailures writes every failure diagnostic to the error stream.
// Tooling-missing blocks are skipped here; one hint after the loop covers
// the whole run.
func displayFailures(errOut io.Writer, result *executor.RunResult, colorOutput bool) {
	for _, doc := range result.Documents {
		if doc.Err != nil {
			fmt.Fprintf(errOut, "%v\n", doc.Err)
			continue
		}
		for _, block := range doc.Failures() {
			if block.Outcome.Status == mermaid.StatusToolingMissing {
				continue
			}
			failure := display.Failure{
				Document:   displayPath(doc.Path),
				Block:      block.Block.Index,
				Line:       block.Block.Line,
				Status:     block.Outcome.Status,
				Diagnostic: block.Outcome.Diagnostic,
			}
			failure.Display(errOut, colorOutput)
		}
	}
}

// recordRunHistory writes the run to the history database and prunes old
// entries. Recording problems are warnings, never run failures.
func recordRunHistory(cmd *cobra.Command, cfg *config.Config, result *executor.RunResult, log executor.Logger) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("history not recorded: %v", err))
		return
	}
	defer store.Close()

	run := &history.Run{
		ID:         result.ID,
		StartedAt:  result.StartedAt,
		DurationMs: result.Duration.Milliseconds(),
		Documents:  len(result.Documents),
		Blocks:     result.DiagramCount(),
		Failures:   result.FailureCount(),
		Passed:     result.Passed(),
	}

	var failures []*history.BlockFailure
	for _, doc := range result.Documents {
		for _, block := range doc.Failures() {
			failures = append(failures, &history.BlockFailure{
				Document:   displayPath(doc.Path),
				BlockIndex: block.Block.Index,
				Line:       block.Block.Line,
				Status:     block.Outcome.Status.String(),
				Diagnostic: block.Outcome.Diagnostic,
			})
		}
	}

	ctx := cmd.Context()
	if err := store.RecordRun(ctx, run, failures); err != nil {
		log.LogWarn(fmt.Sprintf("history not recorded: %v", err))
		return
	}

	if cfg.History.KeepRuns > 0 {
		if _, err := store.PruneRuns(ctx, cfg.History.KeepRuns); err != nil {
			log.LogWarn(fmt.Sprintf("history not pruned: %v", err))
		}
	}
}

// displayPath renders a document path relative to the working directory when
// it lies inside it, matching how documents are usually named on the command
// line. Paths outside the working directory stay absolute.
func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// isTerminal reports whether the writer is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
