package report

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"procreport/internal/artifact"
	"procreport/internal/catalog"
	"procreport/internal/logs"
)

var fixedNow = time.Date(2026, 2, 6, 7, 0, 0, 0, time.UTC)

func init() {
	now = func() time.Time { return fixedNow }
}

func rec(id, client string, st catalog.Status) catalog.Record {
	return catalog.Record{UUID: id, ClientName: client, ClientKey: client + "-key", Status: st, RawStatus: st.String()}
}

func testPartitions() catalog.Partitions {
	return catalog.Partitions{
		Failed:   []catalog.Record{rec("f-1", "acme", catalog.StatusFailed), rec("f-2", "globex", catalog.StatusFailed), rec("f-3", "initech", catalog.StatusFailed), rec("f-4", "umbrella", catalog.StatusFailed)},
		Finished: []catalog.Record{rec("d-1", "acme", catalog.StatusFinished), rec("d-2", "globex", catalog.StatusFinished), rec("d-3", "initech", catalog.StatusFinished), rec("d-4", "umbrella", catalog.StatusFinished)},
		Running:  []catalog.Record{rec("r-1", "acme", catalog.StatusRunning)},
		Skipped:  2,
	}
}

func TestAssemble_CountsMatchPartitions(t *testing.T) {
	parts := testPartitions()
	r := Assemble(parts, nil, nil)

	if r.FailedCount != len(r.Failed) || r.FinishedCount != len(r.Finished) || r.RunningCount != len(r.Running) {
		t.Errorf("counts disagree with entries: %+v", r)
	}
	if r.Total != r.FailedCount+r.FinishedCount+r.RunningCount || r.Total != parts.Len() {
		t.Errorf("Total = %d, want %d", r.Total, parts.Len())
	}
	if r.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", r.Skipped)
	}
	if r.RunID == "" || !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("RunID=%q GeneratedAt=%v", r.RunID, r.GeneratedAt)
	}
}

func TestAssemble_EvidenceStates(t *testing.T) {
	parts := testPartitions()
	lookupErr := errors.New("permission denied")
	logResults := map[string]LogResult{
		"f-1": {
			Match:   logs.Match{Found: true, Path: "/logs/f-1.log", Confidence: logs.ConfidenceUUID},
			Excerpt: &logs.Excerpt{Lines: []string{"f-1 boom"}, MatchedLines: 3, ErrorLines: 1, ExtractPath: "/out/f-1.log"},
		},
		"f-2": {Match: logs.Match{Found: false}},
		"f-3": {Err: lookupErr},
	}
	videoResults := map[string]VideoResult{
		"d-1": {Ref: &artifact.VideoReference{WebURL: "https://x/d-1", FileName: "d-1.mp4", Path: "root/d-1.mp4"}},
		"d-2": {Stats: artifact.Stats{Truncated: true}},
		"d-3": {Err: lookupErr},
	}
	r := Assemble(parts, logResults, videoResults)

	wantLogs := []*LogEvidence{
		{State: EvidenceFound, Path: "/logs/f-1.log", Confidence: logs.ConfidenceUUID, Excerpt: []string{"f-1 boom"}, MatchedLines: 3, ErrorLines: 1, ExtractPath: "/out/f-1.log"},
		{State: EvidenceAbsent},
		{State: EvidenceLookupFailed, Error: "permission denied"},
		{State: EvidenceDisabled},
	}
	for i, e := range r.Failed {
		if diff := cmp.Diff(wantLogs[i], e.Log); diff != "" {
			t.Errorf("failed[%d] log evidence (-want +got):\n%s", i, diff)
		}
		if e.Video != nil {
			t.Errorf("failed[%d] must not carry video evidence", i)
		}
	}

	wantVideos := []*VideoEvidence{
		{State: EvidenceFound, WebURL: "https://x/d-1", FileName: "d-1.mp4", Path: "root/d-1.mp4"},
		{State: EvidenceAbsent, Truncated: true},
		{State: EvidenceLookupFailed, Error: "permission denied"},
		{State: EvidenceDisabled},
	}
	for i, e := range r.Finished {
		if diff := cmp.Diff(wantVideos[i], e.Video); diff != "" {
			t.Errorf("finished[%d] video evidence (-want +got):\n%s", i, diff)
		}
		if e.Log != nil {
			t.Errorf("finished[%d] must not carry log evidence", i)
		}
	}

	if e := r.Running[0]; e.Log != nil || e.Video != nil {
		t.Errorf("running entries carry no evidence, got %+v", e)
	}
	if got := r.LookupFailures(); got != 2 {
		t.Errorf("LookupFailures = %d, want 2", got)
	}
}

func TestAssemble_PreservesCatalogOrder(t *testing.T) {
	parts := testPartitions()
	r := Assemble(parts, nil, nil)
	var got []string
	for _, e := range r.Failed {
		got = append(got, e.Record.UUID)
	}
	if diff := cmp.Diff([]string{"f-1", "f-2", "f-3", "f-4"}, got); diff != "" {
		t.Errorf("failed order (-want +got):\n%s", diff)
	}
}

func TestAssemble_Empty(t *testing.T) {
	r := Assemble(catalog.Partitions{}, nil, nil)
	if r.Total != 0 || r.Failed == nil || r.Finished == nil || r.Running == nil {
		t.Errorf("expected empty non-nil slices and zero total, got %+v", r)
	}
}
