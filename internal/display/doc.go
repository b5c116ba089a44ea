// Package display provides terminal UI utilities for displaying progress, warnings, and render failures.
//
// This package centralizes all terminal output formatting, ANSI color codes, and user-facing display logic
// for the mxd CLI. It provides three main categories of functionality:
//
// # Progress Indicators
//
// Use ProgressIndicator for multi-document runs:
//
//	progress := display.NewProgressIndicator(os.Stdout, len(documents))
//	progress.Start()
//	for _, doc := range documents {
//	    progress.Step(doc)
//	}
//
// For single document runs:
//
//	display.DisplaySingleDocument(os.Stdout, filename)
//
// # Render Failures
//
// Display a failing diagram with its renderer diagnostic:
//
//	failure := display.Failure{
//	    Document:   "docs/pipeline.md",
//	    Block:      2,
//	    Line:       40,
//	    Status:     mermaid.StatusSyntaxError,
//	    Diagnostic: diagnostic,
//	}
//	failure.Display(os.Stderr, colorOutput)
//
// Failures always go to the diagnostic channel (stderr); stdout carries only
// per-document results and the run summary.
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Configuration Issue",
//	    Message:    "Setting 'max_parallel' is deprecated",
//	    Files:      []string{"config.yaml"},
//	    Suggestion: "Use 'max_concurrency' instead",
//	}
//	warning.Display(os.Stderr)
//
// Or use the convenience factory for fences tagged with a case variant of the
// diagram language:
//
//	suspects := markdown.FindSuspectTags(source)
//	if len(suspects) > 0 {
//	    warning := display.WarnSuspectTags(tags, []string{path})
//	    warning.Display(os.Stderr)
//	}
//
// # ANSI Colors
//
// The package uses ANSI escape codes for terminal colors:
//   - Cyan (\x1b[36m) for progress indicators
//   - Green (\x1b[32m) for success messages
//   - Yellow (\x1b[33m) for warnings
//   - Red (\x1b[31m) for render failures
//   - Reset (\x1b[0m) after each colored section
//
// All functions accept io.Writer interfaces for testability and flexibility.
//
// # Design Principles
//
//   - Single source of truth for all display logic
//   - Consistent formatting across all commands
//   - Testable via io.Writer abstraction
//   - No global state or side effects
package display
