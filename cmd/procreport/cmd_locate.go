package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"procreport/internal/display"
	"procreport/internal/logs"
)

var locateFlags struct {
	day      string
	maxLines int
}

var locateCmd = &cobra.Command{
	Use:   "locate <uuid>",
	Short: "Find the log of one process and print its last lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocate,
}

func init() {
	f := locateCmd.Flags()
	f.StringVar(&locateFlags.day, "day", "", "Process start day (YYYY-MM-DD) for the date-pattern fallback; default today")
	f.IntVar(&locateFlags.maxLines, "max-lines", 0, "Excerpt length (default logs.max_lines)")
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg := loaded
	if !cfg.LogsEnabled() {
		return errors.New("logs.dir is not set")
	}
	var day time.Time
	if locateFlags.day != "" {
		d, err := time.Parse(time.DateOnly, locateFlags.day)
		if err != nil {
			return fmt.Errorf("--day: %w", err)
		}
		day = d
	}

	loc := logs.NewLocator(cfg.Logs.Dir)
	if cfg.Logs.DatePattern != "" {
		loc.DatePattern = cfg.Logs.DatePattern
	}
	if cfg.Logs.DateLayout != "" {
		loc.DateLayout = cfg.Logs.DateLayout
	}
	uuid := args[0]
	m, err := loc.Find(uuid, day)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !m.Found {
		fmt.Fprintf(out, "No log found for %s\n", uuid)
		return nil
	}

	maxLines := locateFlags.maxLines
	if maxLines <= 0 {
		maxLines = cfg.Logs.MaxLines
	}
	sum := &logs.Summarizer{Charset: cfg.Logs.Charset}
	ex, err := sum.Summarize(m.Path, uuid, maxLines)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s), last %d of %d lines:\n", m.Path, display.Confidence(m.Confidence.String()), len(ex.Lines), ex.MatchedLines)
	for _, line := range ex.Lines {
		prefix := "    "
		if logs.IsError(line) {
			prefix = "  ! "
		}
		fmt.Fprintln(out, prefix+line)
	}
	return nil
}
