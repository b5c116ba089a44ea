// Package fileutil provides centralized file system scanning utilities.
//
// This package serves as a single source of truth for document discovery in mxd,
// offering robust directory traversal with extension filtering and error-tolerant
// scanning capabilities.
//
// # Purpose
//
// The fileutil package is designed for:
//   - Directory traversal with recursive and depth-limited scanning
//   - File filtering by extension
//   - Directory exclusion (hidden dirs, node_modules, etc.)
//   - Error-tolerant scanning that collects non-fatal errors
//
// # Main Components
//
// ScanOptions - Configuration struct for directory scanning:
//   - Extensions: List of file extensions to include (case-insensitive, e.g., ".md", ".markdown")
//   - Recursive: Enable/disable subdirectory traversal
//   - ExcludeDirs: Directory names to skip (e.g., "node_modules", "vendor")
//   - MaxDepth: Limit recursion depth (0 = unlimited, 1 = current dir only)
//
// ScanResult - Results of directory scan:
//   - Files: Absolute paths of all matched files (sorted alphabetically)
//   - Errors: Non-fatal errors encountered during scan
//
// ScanMarkdown() - Convenience wrapper that scans recursively for Markdown documents
//
// ScanDirectory() - Main scanning function that walks directories with the provided options
//
// # Usage Examples
//
// Markdown document discovery:
//
//	result, err := fileutil.ScanMarkdown("docs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, file := range result.Files {
//	    fmt.Println(file)
//	}
//
// Combined options (extensions + depth limit + exclusion):
//
//	result, err := fileutil.ScanDirectory("/path/to/docs", fileutil.ScanOptions{
//	    Extensions:  []string{".md"},
//	    Recursive:   true,
//	    MaxDepth:    2,
//	    ExcludeDirs: []string{"examples", "drafts"},
//	})
//
// Error handling (check for non-fatal errors):
//
//	result, err := fileutil.ScanDirectory("/path/to/dir", fileutil.ScanOptions{
//	    Recursive: true,
//	})
//	if err != nil {
//	    log.Fatalf("Fatal error: %v", err)
//	}
//	for _, scanErr := range result.Errors {
//	    log.Printf("  - %v", scanErr)
//	}
//
// # Design Principles
//
// Error Tolerance:
// The scanner collects non-fatal errors (e.g., permission denied on a subdirectory)
// and continues scanning. Only fatal errors (e.g., root directory doesn't exist)
// cause immediate failure.
//
// Sorted Output:
// All file paths are sorted alphabetically before being returned, ensuring
// deterministic output across runs and platforms.
//
// Case-Insensitive Extension Matching:
// Extensions are normalized to lowercase for matching, allowing users to specify
// ".MD", ".md", or "md" and match all variants (README.md, README.MD, README.Md).
//
// Auto-Exclusion of Hidden Directories:
// Directories starting with "." (e.g., .git, .mxd) are automatically skipped
// during recursive scans, so a repository's own metadata never shows up as a
// document to check.
package fileutil
