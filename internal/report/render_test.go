package report

import (
	"encoding/json"
	"strings"
	"testing"

	"procreport/internal/artifact"
	"procreport/internal/catalog"
	"procreport/internal/logs"
)

func renderFixture() *Report {
	elapsed := 42.5
	done := rec("d-1", "acme", catalog.StatusFinished)
	done.ElapsedMinutes = &elapsed
	failed := rec("f-1", "<b>globex</b>", catalog.StatusFailed)
	failed.RawStatus = "ERROR_TIMEOUT"
	parts := catalog.Partitions{
		Failed:   []catalog.Record{failed},
		Finished: []catalog.Record{done},
		Running:  []catalog.Record{rec("r-1", "initech", catalog.StatusRunning)},
		Skipped:  1,
	}
	r := Assemble(parts,
		map[string]LogResult{"f-1": {
			Match: logs.Match{Found: true, Path: "/logs/run.log", Confidence: logs.ConfidenceDate},
			Excerpt: &logs.Excerpt{
				Lines:        []string{"f-1 starting", "f-1 ERROR <stack> overflow"},
				MatchedLines: 7,
				ErrorLines:   1,
				ExtractPath:  "/out/f-1.log",
			},
		}},
		map[string]VideoResult{"d-1": {Ref: &artifact.VideoReference{WebURL: "https://share/d-1", FileName: "video.mp4"}}},
	)
	r.Warnings = []catalog.Warning{{UUID: "x-1", Reason: `unrecognized status "paused"`}}
	return r
}

func TestSubject(t *testing.T) {
	if got := Subject(renderFixture()); got != "Daily Client Process Report - 2026-02-06" {
		t.Errorf("Subject = %q", got)
	}
}

func TestRender_Text(t *testing.T) {
	out, err := String(renderFixture(), FormatText)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"Daily Client Process Report - 2026-02-06",
		"Failed Processes (1)",
		"Finished Processes (1)",
		"Running Processes (1)",
		"Failed (ERROR_TIMEOUT)",
		"  ! f-1 ERROR <stack> overflow",
		"    f-1 starting",
		"last 2 of 7 lines",
		"Full extract: /out/f-1.log",
		"https://share/d-1",
		"42.5 min",
		"Skipped by skip list: 1",
		`x-1: unrecognized status "paused"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Markdown(t *testing.T) {
	out, err := String(renderFixture(), FormatMarkdown)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"# Daily Client Process Report", "## Summary", "| Category", "```"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q:\n%s", want, out)
		}
	}
}

func TestRender_HTMLEscapes(t *testing.T) {
	out, err := String(renderFixture(), FormatHTML)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "<b>globex</b>") || strings.Contains(out, "<stack>") {
		t.Errorf("html report must escape record and log text:\n%s", out)
	}
	for _, want := range []string{"<title>Daily Client Process Report - 2026-02-06</title>", `class="err"`, "report-table", "&lt;stack&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	out, err := String(renderFixture(), FormatJSON)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded struct {
		Total  int `json:"total"`
		Failed []struct {
			Record struct {
				Status string `json:"status"`
			} `json:"record"`
			Log struct {
				State      string `json:"state"`
				Confidence string `json:"confidence"`
			} `json:"log"`
		} `json:"failed"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if decoded.Total != 3 || len(decoded.Failed) != 1 {
		t.Fatalf("unexpected json shape: %+v", decoded)
	}
	f := decoded.Failed[0]
	if f.Record.Status != "failed" || f.Log.State != "found" || f.Log.Confidence != "date" {
		t.Errorf("unexpected failed entry: %+v", f)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"", FormatText, false},
		{"MD", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
