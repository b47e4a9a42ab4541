package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"procreport/internal/logging"
	"procreport/internal/mcp"
	"procreport/internal/wiring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing generate_report and
locate_log. Reports built here are never mailed.

The server exits when its parent process goes away.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	res, err := wiring.Open(ctx, loaded, false)
	if err != nil {
		return err
	}
	defer res.Close()
	// Each tool call reads the clock afresh, so extracts land in the day of
	// the call rather than the day the server started.
	res.Deps.Now = nil

	srv := mcp.NewServer(loaded, res.Deps)
	mcp.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
