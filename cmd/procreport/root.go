// procreport builds the daily client process report.
//
// Usage:
//
//	procreport run [--dry-run] [--format=text|markdown|html|json] [--output=<path|->]
//	procreport login
//	procreport locate <uuid> [--day=YYYY-MM-DD]
//	procreport serve
//	procreport clients [--format=text|markdown]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"procreport/internal/config"
	"procreport/internal/logging"
	"procreport/internal/mcp"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "procreport",
	Short: "Daily status report for client-run processes",
	Long: "procreport reads the processes started in the last reporting window,\n" +
		"attaches a log excerpt to each failed run and a video link to each\n" +
		"finished one, and delivers the report by mail.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootFlags.configPath)
		if err != nil {
			return err
		}
		if rootFlags.logLevel != "" {
			cfg.Log.Level = rootFlags.logLevel
		}
		if rootFlags.logFormat != "" {
			cfg.Log.Format = rootFlags.logFormat
		}
		logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, cmd.ErrOrStderr())
		loaded = cfg
		return nil
	},
}

// loaded is the configuration resolved by the root command.
var loaded *config.Config

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", os.Getenv("PROCREPORT_CONFIG"), "Path to the YAML config file")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text, json, pretty")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.Version = version
	mcp.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
