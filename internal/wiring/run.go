// Package wiring drives one reporting run: skip list, catalog, per-record
// evidence lookups, report assembly.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"procreport/internal/artifact"
	"procreport/internal/catalog"
	"procreport/internal/config"
	"procreport/internal/logging"
	"procreport/internal/logs"
	"procreport/internal/report"
)

// ErrCatalog marks a failure that prevents building any report: the skip
// list or the process source could not be read.
var ErrCatalog = errors.New("catalog unavailable")

// RecordSource lists processes started after a cutoff.
type RecordSource interface {
	Processes(ctx context.Context, since time.Time) ([]catalog.Raw, error)
}

// Deps are the collaborators of a run. A nil Locator disables log lookup and
// a nil Drive disables video lookup; affected entries report "disabled".
type Deps struct {
	Source     RecordSource
	Locator    *logs.Locator
	Summarizer *logs.Summarizer
	// ExtractDir, when set, overrides Summarizer.ExtractDir with the
	// directory for the day of each run.
	ExtractDir func(day time.Time) string
	Drive      artifact.Drive
	Now        func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// CurrentSummarizer is the summarizer for a run starting now.
func (d Deps) CurrentSummarizer() *logs.Summarizer {
	return d.summarizerAt(d.now())
}

func (d Deps) summarizerAt(t time.Time) *logs.Summarizer {
	var sum logs.Summarizer
	if d.Summarizer != nil {
		sum = *d.Summarizer
	}
	if d.ExtractDir != nil {
		sum.ExtractDir = d.ExtractDir(t)
	}
	return &sum
}

// Run builds the report. Lookup failures are recorded per entry; only
// catalog failures and context cancellation return an error.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*report.Report, error) {
	logger := logging.New("wiring")
	if deps.Source == nil {
		return nil, fmt.Errorf("%w: no record source", ErrCatalog)
	}

	skip, err := catalog.LoadSkipSet(cfg.SkipList)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	now := deps.now()
	since := now.Add(-cfg.Database.Window)
	raws, err := deps.Source.Processes(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}

	parts, warnings := catalog.Categorize(catalog.Normalize(raws), skip)
	for _, w := range warnings {
		logger.Warn("record dropped", "uuid", w.UUID, "reason", w.Reason)
	}
	logger.Info("catalog ready",
		"rows", len(raws), "failed", len(parts.Failed), "finished", len(parts.Finished),
		"running", len(parts.Running), "skipped", parts.Skipped, "warnings", len(warnings))

	var (
		mu     sync.Mutex
		logRes = make(map[string]report.LogResult, len(parts.Failed))
		vidRes = make(map[string]report.VideoResult, len(parts.Finished))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	if deps.Locator != nil {
		sum := deps.summarizerAt(now)
		for _, rec := range parts.Failed {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res := lookupLog(cfg, deps.Locator, sum, rec)
				mu.Lock()
				logRes[rec.UUID] = res
				mu.Unlock()
				return nil
			})
		}
	}
	if deps.Drive != nil {
		lim := artifact.Limits{
			MaxDepth:   cfg.Storage.MaxDepth,
			MaxItems:   cfg.Storage.MaxItems,
			Extensions: cfg.Storage.Extensions,
		}
		for _, rec := range parts.Finished {
			g.Go(func() error {
				ref, st, err := artifact.FindVideo(gctx, rec.UUID, StorageRoot(cfg.Storage.Root, rec), deps.Drive, lim)
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if err != nil {
					logger.Warn("video lookup failed", "uuid", rec.UUID, "error", err)
				}
				mu.Lock()
				vidRes[rec.UUID] = report.VideoResult{Ref: ref, Stats: st, Err: err}
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evidence lookup: %w", err)
	}

	rep := report.Assemble(parts, logRes, vidRes)
	// Report and extracts are filed under the same instant.
	rep.GeneratedAt = now.UTC()
	rep.Warnings = warnings
	logger.Info("report assembled", "run_id", rep.RunID, "total", rep.Total, "lookup_failures", rep.LookupFailures())
	return rep, nil
}

func lookupLog(cfg *config.Config, loc *logs.Locator, sum *logs.Summarizer, rec catalog.Record) report.LogResult {
	m, err := loc.Find(rec.UUID, rec.Day())
	if err != nil {
		logging.New("wiring").Warn("log lookup failed", "uuid", rec.UUID, "error", err)
		return report.LogResult{Err: err}
	}
	if !m.Found {
		return report.LogResult{Match: m}
	}
	ex, err := sum.Summarize(m.Path, rec.UUID, cfg.Logs.MaxLines)
	if err != nil {
		logging.New("wiring").Warn("log summary failed", "uuid", rec.UUID, "path", m.Path, "error", err)
		return report.LogResult{Match: m, Err: err}
	}
	return report.LogResult{Match: m, Excerpt: &ex}
}

// StorageRoot is where the video search for rec starts: the client's upload
// folder when the record names a client key, else the storage root.
func StorageRoot(root string, rec catalog.Record) artifact.Item {
	if rec.ClientKey == "" {
		return artifact.RootItem(root)
	}
	return artifact.RootItem(path.Join(root, rec.ClientKey))
}
