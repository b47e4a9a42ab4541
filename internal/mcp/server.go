// Package mcp exposes report generation and single-process log lookup as
// MCP tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"procreport/internal/config"
	"procreport/internal/logging"
	"procreport/internal/report"
	"procreport/internal/wiring"
)

// Version is reported to MCP clients during initialization.
var Version = "dev"

// Server wraps the MCP SDK server around one set of run dependencies.
type Server struct {
	MCPServer *sdkmcp.Server

	cfg  *config.Config
	deps wiring.Deps
}

// NewServer registers the report tools. Runs triggered through the server
// never deliver mail; they only return the rendered report.
func NewServer(cfg *config.Config, deps wiring.Deps) *Server {
	s := &Server{cfg: cfg, deps: deps}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "procreport", Version: Version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "generate_report",
		Description: "Build the daily client process report from the last reporting window and return it rendered.",
	}, s.handleGenerateReport)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "locate_log",
		Description: "Find the log file of one process by UUID and return the last lines that mention it.",
	}, s.handleLocateLog)
}

type generateReportInput struct {
	Format string `json:"format,omitempty" jsonschema:"text, markdown, html or json; defaults to json"`
}

type generateReportOutput struct {
	RunID          string `json:"run_id"`
	Subject        string `json:"subject"`
	Total          int    `json:"total"`
	Failed         int    `json:"failed"`
	Finished       int    `json:"finished"`
	Running        int    `json:"running"`
	Skipped        int    `json:"skipped"`
	LookupFailures int    `json:"lookup_failures"`
	Rendered       string `json:"rendered"`
}

func (s *Server) handleGenerateReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input generateReportInput) (*sdkmcp.CallToolResult, generateReportOutput, error) {
	f := report.FormatJSON
	if input.Format != "" {
		parsed, err := report.ParseFormat(input.Format)
		if err != nil {
			return nil, generateReportOutput{}, err
		}
		f = parsed
	}

	start := time.Now()
	rep, err := wiring.Run(ctx, s.cfg, s.deps)
	if err != nil {
		return nil, generateReportOutput{}, fmt.Errorf("generate report: %w", err)
	}
	rendered, err := report.String(rep, f)
	if err != nil {
		return nil, generateReportOutput{}, fmt.Errorf("render report: %w", err)
	}
	logging.New("mcp").Info("report generated", "run_id", rep.RunID, "total", rep.Total, "elapsed", time.Since(start))

	return nil, generateReportOutput{
		RunID:          rep.RunID,
		Subject:        report.Subject(rep),
		Total:          rep.Total,
		Failed:         rep.FailedCount,
		Finished:       rep.FinishedCount,
		Running:        rep.RunningCount,
		Skipped:        rep.Skipped,
		LookupFailures: rep.LookupFailures(),
		Rendered:       rendered,
	}, nil
}

type locateLogInput struct {
	UUID     string `json:"uuid" jsonschema:"process UUID"`
	Day      string `json:"day,omitempty" jsonschema:"process start day as YYYY-MM-DD; defaults to today"`
	MaxLines int    `json:"max_lines,omitempty" jsonschema:"excerpt length; defaults to the configured logs.max_lines"`
}

type locateLogOutput struct {
	Found        bool     `json:"found"`
	Path         string   `json:"path,omitempty"`
	Confidence   string   `json:"confidence"`
	Lines        []string `json:"lines,omitempty"`
	MatchedLines int      `json:"matched_lines"`
	ErrorLines   int      `json:"error_lines"`
	ExtractPath  string   `json:"extract_path,omitempty"`
}

func (s *Server) handleLocateLog(_ context.Context, _ *sdkmcp.CallToolRequest, input locateLogInput) (*sdkmcp.CallToolResult, locateLogOutput, error) {
	uuid := strings.TrimSpace(input.UUID)
	if uuid == "" {
		return nil, locateLogOutput{}, errors.New("uuid is required")
	}
	if s.deps.Locator == nil {
		return nil, locateLogOutput{}, errors.New("log lookup disabled: logs.dir not set")
	}
	var day time.Time
	if input.Day != "" {
		d, err := time.Parse(time.DateOnly, input.Day)
		if err != nil {
			return nil, locateLogOutput{}, fmt.Errorf("parse day %q: %w", input.Day, err)
		}
		day = d
	}

	m, err := s.deps.Locator.Find(uuid, day)
	if err != nil {
		return nil, locateLogOutput{}, fmt.Errorf("locate log: %w", err)
	}
	out := locateLogOutput{Found: m.Found, Path: m.Path, Confidence: m.Confidence.String()}
	if !m.Found {
		return nil, out, nil
	}

	maxLines := input.MaxLines
	if maxLines <= 0 {
		maxLines = s.cfg.Logs.MaxLines
	}
	ex, err := s.deps.CurrentSummarizer().Summarize(m.Path, uuid, maxLines)
	if err != nil {
		return nil, locateLogOutput{}, fmt.Errorf("summarize log: %w", err)
	}
	out.Lines = ex.Lines
	out.MatchedLines = ex.MatchedLines
	out.ErrorLines = ex.ErrorLines
	out.ExtractPath = ex.ExtractPath
	return nil, out, nil
}
