package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"procreport/internal/config"
	"procreport/internal/logging"
	"procreport/internal/metrics"
	"procreport/internal/notify"
	"procreport/internal/report"
	"procreport/internal/wiring"
)

var runFlags struct {
	dryRun bool
	format string
	output string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the report and deliver it",
	Long: `Builds the report for the last reporting window, writes it under the
output directory and mails it to notify.to. With --dry-run nothing is mailed
and the report goes to --output (stdout by default).`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "Render the report without mailing it")
	f.StringVar(&runFlags.format, "format", "", "Output format: text, markdown, html, json (default from config)")
	f.StringVar(&runFlags.output, "output", "", `Report file; "-" for stdout`)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg := loaded
	logger := logging.New("cmd")

	fs := cfg.Output.Format
	if runFlags.format != "" {
		fs = runFlags.format
	}
	f, err := report.ParseFormat(fs)
	if err != nil {
		return err
	}

	mail := !runFlags.dryRun && len(cfg.Notify.To) > 0
	res, err := wiring.Open(cmd.Context(), cfg, mail)
	if err != nil {
		return err
	}
	defer res.Close()

	start := time.Now()
	rep, err := wiring.Run(cmd.Context(), cfg, res.Deps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cfg.Output.MetricsTextfile != "" {
		m := metrics.New()
		m.Observe(rep, elapsed)
		if err := m.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			logger.Warn("metrics not written", "error", err)
		}
	}

	out := runFlags.output
	if out == "" && !runFlags.dryRun {
		out = reportPath(cfg, rep, f)
	}
	targets := notify.Multi{&notify.FileWriter{Path: out, Format: f, Stdout: cmd.OutOrStdout()}}
	if mail {
		targets = append(targets, &notify.GraphMailer{
			Mail:            res.Graph,
			To:              cfg.Notify.To,
			SaveToSentItems: cfg.Notify.SaveToSentItems,
		})
	}
	if err := targets.Notify(cmd.Context(), rep); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	logger.Info("run complete", "run_id", rep.RunID, "total", rep.Total,
		"failed", rep.FailedCount, "lookup_failures", rep.LookupFailures(), "elapsed", elapsed, "mailed", mail)
	return nil
}

func reportPath(cfg *config.Config, rep *report.Report, f report.Format) string {
	ext := map[report.Format]string{
		report.FormatText:     "txt",
		report.FormatMarkdown: "md",
		report.FormatHTML:     "html",
		report.FormatJSON:     "json",
	}[f]
	return filepath.Join(cfg.ReportDir(rep.GeneratedAt), "report."+ext)
}
