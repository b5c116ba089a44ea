package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/leynos/mxd/internal/config"
	"github.com/leynos/mxd/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates and returns the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent check runs",
		Long: `Display the most recent check runs recorded in the history database:
  - Verdict, documents and diagrams checked
  - Failure counts
  - Timestamps and durations

Runs are recorded by 'mxd check' unless history is disabled in the
configuration or with --no-history.`,
		Args:         cobra.NoArgs,
		RunE:         runHistory,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .mxd/config.yaml)")
	cmd.Flags().Int("limit", 10, "Number of runs to show (0 = all)")
	cmd.Flags().Bool("failures", false, "Include per-diagram failure detail")
	cmd.Flags().String("db", "", "History database path (overrides config)")

	return cmd
}

// runHistory executes the history command
func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

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

	dbPath := cfg.History.DBPath
	if cmd.Flags().Changed("db") {
		dbPath, _ = cmd.Flags().GetString("db")
	}

	// Check if database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No check runs recorded yet.\n")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	withFailures, _ := cmd.Flags().GetBool("failures")

	ctx := cmd.Context()
	runs, err := store.GetRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("get runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(output, "No check runs recorded yet.\n")
		return nil
	}

	return printRuns(ctx, output, store, runs, withFailures)
}

// printRuns formats and prints the recorded runs, most recent first
func printRuns(ctx context.Context, w io.Writer, store *history.Store, runs []*history.Run, withFailures bool) error {
	// Colors
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n=== Recent check runs ===\n\n")

	for i, run := range runs {
		if run.Passed {
			green.Fprintf(w, "✓ ")
		} else {
			red.Fprintf(w, "✗ ")
		}
		fmt.Fprintf(w, "Run %s ", shortID(run.ID))
		gray.Fprintf(w, "(%s ago)\n", formatAge(time.Since(run.StartedAt)))

		fmt.Fprintf(w, "  Time: %s\n", formatTimestamp(run.StartedAt))
		fmt.Fprintf(w, "  Checked: %d document(s), %d diagram(s)\n", run.Documents, run.Blocks)
		fmt.Fprintf(w, "  Failures: ")
		if run.Failures > 0 {
			red.Fprintf(w, "%d\n", run.Failures)
		} else {
			fmt.Fprintf(w, "0\n")
		}
		fmt.Fprintf(w, "  Duration: %s\n", (time.Duration(run.DurationMs) * time.Millisecond).String())

		if withFailures && run.Failures > 0 {
			failures, err := store.GetFailures(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("get failures for run %s: %w", run.ID, err)
			}
			for _, f := range failures {
				fmt.Fprintf(w, "    ✗ %s: diagram %d (line %d) ", f.Document, f.BlockIndex, f.Line)
				red.Fprintf(w, "%s\n", f.Status)
			}
		}

		// Separator between runs
		if i < len(runs)-1 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	return nil
}

// shortID returns the leading segment of a run UUID
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatAge formats a duration for human-readable display
func formatAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}
