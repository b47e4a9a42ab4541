// Package report joins categorized process records with their evidence and
// renders the daily report.
package report

import (
	"time"

	"procreport/internal/artifact"
	"procreport/internal/catalog"
	"procreport/internal/logs"
)

// EvidenceState says what a lookup produced for one entry.
type EvidenceState string

const (
	EvidenceFound        EvidenceState = "found"
	EvidenceAbsent       EvidenceState = "absent"
	EvidenceLookupFailed EvidenceState = "lookup_failed"
	EvidenceDisabled     EvidenceState = "disabled"
)

// LogResult is the outcome of locating and summarizing one failed process's
// log. Err is set on a capability failure.
type LogResult struct {
	Match   logs.Match
	Excerpt *logs.Excerpt
	Err     error
}

// VideoResult is the outcome of searching remote storage for one finished
// process. A nil Ref with a nil Err means nothing was found.
type VideoResult struct {
	Ref   *artifact.VideoReference
	Stats artifact.Stats
	Err   error
}

// LogEvidence is attached to failed entries.
type LogEvidence struct {
	State        EvidenceState   `json:"state"`
	Path         string          `json:"path,omitempty"`
	Confidence   logs.Confidence `json:"confidence"`
	Excerpt      []string        `json:"excerpt,omitempty"`
	MatchedLines int             `json:"matched_lines"`
	ErrorLines   int             `json:"error_lines"`
	ExtractPath  string          `json:"extract_path,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// VideoEvidence is attached to finished entries.
type VideoEvidence struct {
	State     EvidenceState `json:"state"`
	WebURL    string        `json:"web_url,omitempty"`
	FileName  string        `json:"file_name,omitempty"`
	Path      string        `json:"path,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Entry is one record with at most one kind of evidence: Log for failed,
// Video for finished, neither for running.
type Entry struct {
	Record catalog.Record `json:"record"`
	Log    *LogEvidence   `json:"log,omitempty"`
	Video  *VideoEvidence `json:"video,omitempty"`
}

// Report is the consolidated output of one run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Failed   []Entry `json:"failed"`
	Finished []Entry `json:"finished"`
	Running  []Entry `json:"running"`

	Total         int `json:"total"`
	FailedCount   int `json:"failed_count"`
	FinishedCount int `json:"finished_count"`
	RunningCount  int `json:"running_count"`
	Skipped       int `json:"skipped"`

	Warnings []catalog.Warning `json:"warnings,omitempty"`
}

// Day is the calendar date the report covers, in UTC.
func (r *Report) Day() string {
	return r.GeneratedAt.UTC().Format("2006-01-02")
}

// LookupFailures counts entries whose evidence lookup failed.
func (r *Report) LookupFailures() int {
	n := 0
	for _, e := range r.Failed {
		if e.Log != nil && e.Log.State == EvidenceLookupFailed {
			n++
		}
	}
	for _, e := range r.Finished {
		if e.Video != nil && e.Video.State == EvidenceLookupFailed {
			n++
		}
	}
	return n
}
