package report

import (
	"time"

	"github.com/google/uuid"

	"procreport/internal/catalog"
)

var now = time.Now

// Assemble joins partitions with lookup results keyed by UUID. A record with
// no result in its map had its lookup disabled. Counts are taken from the
// partition sizes so they always agree with the entry slices.
func Assemble(parts catalog.Partitions, logs map[string]LogResult, videos map[string]VideoResult) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: now().UTC(),
		Failed:      make([]Entry, 0, len(parts.Failed)),
		Finished:    make([]Entry, 0, len(parts.Finished)),
		Running:     make([]Entry, 0, len(parts.Running)),
		Skipped:     parts.Skipped,
	}
	for _, rec := range parts.Failed {
		res, ok := logs[rec.UUID]
		r.Failed = append(r.Failed, Entry{Record: rec, Log: logEvidence(res, ok)})
	}
	for _, rec := range parts.Finished {
		res, ok := videos[rec.UUID]
		r.Finished = append(r.Finished, Entry{Record: rec, Video: videoEvidence(res, ok)})
	}
	for _, rec := range parts.Running {
		r.Running = append(r.Running, Entry{Record: rec})
	}

	r.FailedCount = len(parts.Failed)
	r.FinishedCount = len(parts.Finished)
	r.RunningCount = len(parts.Running)
	r.Total = r.FailedCount + r.FinishedCount + r.RunningCount
	return r
}

func logEvidence(res LogResult, ok bool) *LogEvidence {
	switch {
	case !ok:
		return &LogEvidence{State: EvidenceDisabled}
	case res.Err != nil:
		return &LogEvidence{State: EvidenceLookupFailed, Path: res.Match.Path, Error: res.Err.Error()}
	case !res.Match.Found:
		return &LogEvidence{State: EvidenceAbsent}
	}
	ev := &LogEvidence{
		State:      EvidenceFound,
		Path:       res.Match.Path,
		Confidence: res.Match.Confidence,
	}
	if res.Excerpt != nil {
		ev.Excerpt = res.Excerpt.Lines
		ev.MatchedLines = res.Excerpt.MatchedLines
		ev.ErrorLines = res.Excerpt.ErrorLines
		ev.ExtractPath = res.Excerpt.ExtractPath
	}
	return ev
}

func videoEvidence(res VideoResult, ok bool) *VideoEvidence {
	switch {
	case !ok:
		return &VideoEvidence{State: EvidenceDisabled}
	case res.Err != nil:
		return &VideoEvidence{State: EvidenceLookupFailed, Error: res.Err.Error()}
	case res.Ref == nil:
		return &VideoEvidence{State: EvidenceAbsent, Truncated: res.Stats.Truncated}
	}
	return &VideoEvidence{
		State:    EvidenceFound,
		WebURL:   res.Ref.WebURL,
		FileName: res.Ref.FileName,
		Path:     res.Ref.Path,
	}
}
