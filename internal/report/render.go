package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"procreport/internal/display"
	"procreport/internal/format"
	"procreport/internal/logs"
)

// Format names a report rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatHTML, FormatJSON:
		return f, nil
	case "", "txt":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, markdown, html or json)", s)
	}
}

// SubjectPrefix starts every report subject line.
const SubjectPrefix = "Daily Client Process Report"

// Subject is the mail subject for the report.
func Subject(r *Report) string {
	return SubjectPrefix + " - " + r.Day()
}

// Render writes r to w in format f.
func Render(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatHTML:
		return renderHTML(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, renderPlain(r, format.Markdown))
		return err
	case FormatText, "":
		_, err := io.WriteString(w, renderPlain(r, format.ASCII))
		return err
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// String renders r in format f, for callers that need the body in memory.
func String(r *Report, f Format) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func summaryTable(r *Report, m format.Mode) format.TableBuilder {
	tb := format.NewTable(m)
	tb.Header("Category", "Count")
	tb.Row(display.Status("failed"), r.FailedCount)
	tb.Row(display.Status("finished"), r.FinishedCount)
	tb.Row(display.Status("running"), r.RunningCount)
	tb.Footer("Total", r.Total)
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	return tb
}

func failedTable(r *Report, m format.Mode) format.TableBuilder {
	tb := format.NewTable(m)
	tb.Header("UUID", "Client", "Status", "Started", "Log", "Errors")
	for _, e := range r.Failed {
		tb.Row(
			e.Record.UUID,
			e.Record.ClientName,
			display.StatusWithRaw(e.Record.Status.String(), e.Record.RawStatus),
			format.FmtTime(e.Record.StartTime),
			logCell(e.Log),
			errorsCell(e.Log),
		)
	}
	return tb
}

func finishedTable(r *Report, m format.Mode) format.TableBuilder {
	tb := format.NewTable(m)
	tb.Header("UUID", "Client", "Duration", "Video")
	for _, e := range r.Finished {
		tb.Row(e.Record.UUID, e.Record.ClientName, format.FmtMinutes(e.Record.ElapsedMinutes), videoCell(e.Video))
	}
	return tb
}

func runningTable(r *Report, m format.Mode) format.TableBuilder {
	tb := format.NewTable(m)
	tb.Header("UUID", "Client", "Started", "Elapsed")
	for _, e := range r.Running {
		tb.Row(e.Record.UUID, e.Record.ClientName, format.FmtTime(e.Record.StartTime), format.FmtMinutes(e.Record.ElapsedMinutes))
	}
	return tb
}

func logCell(ev *LogEvidence) string {
	if ev == nil {
		return "-"
	}
	if ev.State != EvidenceFound {
		if ev.Error != "" {
			return display.Evidence(string(ev.State)) + ": " + format.Truncate(ev.Error, 60)
		}
		return display.Evidence(string(ev.State))
	}
	return ev.Path
}

func errorsCell(ev *LogEvidence) string {
	if ev == nil || ev.State != EvidenceFound {
		return "-"
	}
	return fmt.Sprintf("%d/%d", ev.ErrorLines, ev.MatchedLines)
}

func videoCell(ev *VideoEvidence) string {
	if ev == nil {
		return "-"
	}
	switch ev.State {
	case EvidenceFound:
		return ev.WebURL
	case EvidenceLookupFailed:
		return display.Evidence(string(ev.State)) + ": " + format.Truncate(ev.Error, 60)
	}
	return display.Evidence(string(ev.State))
}

func renderPlain(r *Report, m format.Mode) string {
	md := m == format.Markdown
	var b strings.Builder
	heading := func(level int, title string) {
		if md {
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", level), title)
			return
		}
		fmt.Fprintf(&b, "--- %s ---\n", title)
	}

	heading(1, Subject(r))
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Run: %s\n\n", r.RunID)

	heading(2, "Summary")
	b.WriteString(summaryTable(r, m).String())
	b.WriteString("\n")
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "Skipped by skip list: %d\n", r.Skipped)
	}
	b.WriteString("\n")

	if len(r.Failed) > 0 {
		heading(2, display.SectionTitle("failed", r.FailedCount))
		b.WriteString(failedTable(r, m).String())
		b.WriteString("\n\n")
		for _, e := range r.Failed {
			if e.Log == nil || len(e.Log.Excerpt) == 0 {
				continue
			}
			if md {
				fmt.Fprintf(&b, "**%s** (%s)\n\n```\n", e.Record.UUID, e.Record.ClientName)
			} else {
				fmt.Fprintf(&b, "%s (%s), last %d of %d lines:\n", e.Record.UUID, e.Record.ClientName, len(e.Log.Excerpt), e.Log.MatchedLines)
			}
			for _, line := range e.Log.Excerpt {
				marker := "    "
				if logs.IsError(line) {
					marker = "  ! "
				}
				b.WriteString(marker + line + "\n")
			}
			if md {
				b.WriteString("```\n")
			}
			if e.Log.ExtractPath != "" {
				fmt.Fprintf(&b, "Full extract: %s\n", e.Log.ExtractPath)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Finished) > 0 {
		heading(2, display.SectionTitle("finished", r.FinishedCount))
		b.WriteString(finishedTable(r, m).String())
		b.WriteString("\n\n")
	}

	if len(r.Running) > 0 {
		heading(2, display.SectionTitle("running", r.RunningCount))
		b.WriteString(runningTable(r, m).String())
		b.WriteString("\n\n")
	}

	if len(r.Warnings) > 0 {
		heading(2, fmt.Sprintf("Warnings (%d)", len(r.Warnings)))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
	return b.String()
}

//go:embed report.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"isError": logs.IsError,
}).Parse(htmlSource))

type htmlExcerpt struct {
	UUID        string
	Client      string
	Lines       []string
	Matched     int
	ExtractPath string
}

type htmlView struct {
	Subject   string
	Generated string
	RunID     string
	Skipped   int
	Summary   template.HTML
	Failed    template.HTML
	Finished  template.HTML
	Running   template.HTML
	Excerpts  []htmlExcerpt
	Warnings  []string
	HasFailed bool
	HasDone   bool
	HasActive bool
	Counts    [3]int
}

// renderHTML builds the mail body. Tables come from go-pretty with cell text
// escaped; the surrounding markup is escaped by html/template.
func renderHTML(w io.Writer, r *Report) error {
	v := htmlView{
		Subject:   Subject(r),
		Generated: r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		RunID:     r.RunID,
		Skipped:   r.Skipped,
		Summary:   template.HTML(summaryTable(r, format.HTML).String()),
		HasFailed: len(r.Failed) > 0,
		HasDone:   len(r.Finished) > 0,
		HasActive: len(r.Running) > 0,
		Counts:    [3]int{r.FailedCount, r.FinishedCount, r.RunningCount},
	}
	if v.HasFailed {
		v.Failed = template.HTML(failedTable(r, format.HTML).String())
	}
	if v.HasDone {
		v.Finished = template.HTML(finishedTable(r, format.HTML).String())
	}
	if v.HasActive {
		v.Running = template.HTML(runningTable(r, format.HTML).String())
	}
	for _, e := range r.Failed {
		if e.Log == nil || len(e.Log.Excerpt) == 0 {
			continue
		}
		v.Excerpts = append(v.Excerpts, htmlExcerpt{
			UUID:        e.Record.UUID,
			Client:      e.Record.ClientName,
			Lines:       e.Log.Excerpt,
			Matched:     e.Log.MatchedLines,
			ExtractPath: e.Log.ExtractPath,
		})
	}
	for _, warn := range r.Warnings {
		v.Warnings = append(v.Warnings, warn.String())
	}
	return htmlTemplate.Execute(w, v)
}
