package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"procreport/internal/catalog"
)

// MemStore is an in-memory Source for dry runs and tests.
type MemStore struct {
	mu   sync.Mutex
	rows []catalog.Raw
	// Err, when set, is returned by Processes.
	Err error
}

// NewMemStore returns a MemStore holding rows.
func NewMemStore(rows ...catalog.Raw) *MemStore {
	return &MemStore{rows: append([]catalog.Raw(nil), rows...)}
}

// Add appends rows.
func (s *MemStore) Add(rows ...catalog.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

// Processes returns rows with a start time after since, newest first. Rows
// without a start time are kept so malformed data reaches the catalog.
func (s *MemStore) Processes(ctx context.Context, since time.Time) ([]catalog.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]catalog.Raw, 0, len(s.rows))
	for _, r := range s.rows {
		if r.StartTime != nil && !r.StartTime.After(since) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartTime, out[j].StartTime
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	return out, nil
}
