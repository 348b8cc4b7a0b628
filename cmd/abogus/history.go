package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/abogus/internal/config"
	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or prune previously signed URLs",
		Long: `History lists URLs signed by 'abogus sign', newest first.

Only a fingerprint of the user agent is stored, not the user agent itself.

Examples:
  # Show the 20 most recent entries
  abogus history

  # Show every entry as JSON
  abogus history --limit 0 --json

  # Delete entries older than 30 days
  abogus history --prune 720h`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of entries to show (0 shows all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().Duration("prune", 0,
		"Delete entries older than this duration instead of listing")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	jsonOut, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	prune, err := flags.GetDuration("prune")
	if err != nil {
		return err
	}
	if prune < 0 {
		return fmt.Errorf("invalid prune duration %s: must be positive", prune)
	}
	dataDir, err := flags.GetString("data-dir")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.Open(dataDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if prune > 0 {
		removed, err := db.PruneHistory(ctx, time.Now().Add(-prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d history entries older than %s\n", removed, prune)
		return nil
	}

	entries, err := db.RecentHistory(ctx, limit)
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case jsonOut:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOut:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}

	_, err = w.WriteHistory(entries)
	return err
}
