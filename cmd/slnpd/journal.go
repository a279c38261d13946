package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stuffbucket/slnpd/internal/journal"
)

var journalFlags struct {
	limit int
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recently processed commands",
	Long:  `Print the most recent commands recorded in the journal database, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().IntVarP(&journalFlags.limit, "limit", "n", 20, "Number of commands to show")
}

func runJournal(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !cfg.Journal.Enabled {
		return fmt.Errorf("journal is disabled in the config")
	}
	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		return fmt.Errorf("no journal at %s", cfg.Journal.Path)
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	recs, err := j.RecentCommands(context.Background(), journalFlags.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, subtle("no commands recorded"))
		return nil
	}
	for _, r := range recs {
		code := fmt.Sprintf("%d", r.Code)
		if r.Code >= 500 {
			code = errorf(code)
		} else {
			code = success(code)
		}
		name := r.Command
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%s %s %-20s %s %s",
			subtle(r.At.Local().Format(time.DateTime)),
			code,
			key(name),
			value(r.Remote),
			subtle(humanize.Time(r.At)))
		if r.ErrorType != "" {
			fmt.Fprintf(out, " %s", warning(r.ErrorType))
		}
		fmt.Fprintln(out)
	}
	return nil
}
