package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrSkipList is returned when a skip list exists but cannot be read.
var ErrSkipList = errors.New("skip list unreadable")

// SkipSet holds client identifiers excluded from reporting.
type SkipSet struct {
	ids map[string]struct{}
}

// NewSkipSet builds a set from identifiers; blank entries are ignored.
func NewSkipSet(ids ...string) SkipSet {
	s := SkipSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// LoadSkipSet reads one identifier per line. Blank lines and lines starting
// with "#" are ignored. A missing file yields an empty set.
func LoadSkipSet(path string) (SkipSet, error) {
	if path == "" {
		return NewSkipSet(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSkipSet(), nil
	}
	if err != nil {
		return SkipSet{}, fmt.Errorf("%w: %s: %w", ErrSkipList, path, err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return SkipSet{}, fmt.Errorf("%w: %s: %w", ErrSkipList, path, err)
	}
	return NewSkipSet(ids...), nil
}

// Contains reports whether id is in the set. Matching is exact.
func (s SkipSet) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len is the number of identifiers in the set.
func (s SkipSet) Len() int { return len(s.ids) }

// Skips reports whether a record belongs to a skipped client, matched by
// API key or by client name.
func (s SkipSet) Skips(r Record) bool {
	return s.Contains(r.ClientKey) || s.Contains(r.ClientName)
}
