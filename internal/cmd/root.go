package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for mxd
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mxd",
		Short: "Mermaid diagram checker for Markdown documentation",
		Long: `mxd scans Markdown files for fenced mermaid code blocks, renders each
one with mermaid-cli, and reports every diagram that fails.

Rendered images go to scratch files that are discarded afterwards; only
the renderer's verdict is kept. A mmdc binary on PATH is preferred, with
a fallback to the npx package runner (npx --yes @mermaid-js/mermaid-cli).`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text, and let
		// main print the error exactly once
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
