// Package logs finds the log file belonging to a process and extracts the
// lines that mention it.
package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"procreport/internal/logging"
)

// Confidence ranks how a log file was matched. Higher is more trustworthy.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceDate
	ConfidenceUUID
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceUUID:
		return "uuid"
	case ConfidenceDate:
		return "date"
	default:
		return "none"
	}
}

// MarshalText renders the confidence as a word.
func (c Confidence) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Match is the result of locating a log. Found=false means no candidate.
type Match struct {
	Found      bool       `json:"found"`
	Path       string     `json:"path,omitempty"`
	Confidence Confidence `json:"confidence"`
	ModTime    time.Time  `json:"mod_time,omitempty"`
}

// DefaultDatePattern is the naming convention of the perception API logs,
// e.g. 2026-02-06T03-08-14_perception_api.log.
const DefaultDatePattern = "{date}T*_perception_api.log*"

// DefaultDateLayout formats the {date} placeholder.
const DefaultDateLayout = "2006-01-02"

// Locator searches a log root and its immediate subdirectories.
type Locator struct {
	Root        string
	DatePattern string
	DateLayout  string
	Now         func() time.Time
}

// NewLocator returns a Locator with the default date convention.
func NewLocator(root string) *Locator {
	return &Locator{Root: root, DatePattern: DefaultDatePattern, DateLayout: DefaultDateLayout, Now: time.Now}
}

type candidate struct {
	path    string
	modTime time.Time
}

// Find locates the log for uuid. Files whose name contains the uuid always
// win over files matched only by the date pattern for day; a zero day means
// today. Within a class the newest file wins, ties broken by the greatest path.
func (l *Locator) Find(uuid string, day time.Time) (Match, error) {
	files, err := l.listFiles()
	if err != nil {
		return Match{}, err
	}

	var byUUID, byDate []candidate
	datePattern := l.dateGlob(day)
	for _, f := range files {
		name := filepath.Base(f.path)
		switch {
		case uuid != "" && strings.Contains(name, uuid):
			byUUID = append(byUUID, f)
		case datePattern != "":
			if ok, _ := filepath.Match(datePattern, name); ok {
				byDate = append(byDate, f)
			}
		}
	}

	if best, ok := newest(byUUID); ok {
		return Match{Found: true, Path: best.path, Confidence: ConfidenceUUID, ModTime: best.modTime}, nil
	}
	if best, ok := newest(byDate); ok {
		return Match{Found: true, Path: best.path, Confidence: ConfidenceDate, ModTime: best.modTime}, nil
	}
	return Match{}, nil
}

func (l *Locator) dateGlob(day time.Time) string {
	if l.DatePattern == "" {
		return ""
	}
	if day.IsZero() {
		now := time.Now
		if l.Now != nil {
			now = l.Now
		}
		day = now()
	}
	layout := l.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return strings.ReplaceAll(l.DatePattern, "{date}", day.Format(layout))
}

// listFiles returns regular files in Root and its direct subdirectories.
func (l *Locator) listFiles() ([]candidate, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("read log root %s: %w", l.Root, err)
	}
	logger := logging.New("logs")

	var out []candidate
	add := func(dir string, e os.DirEntry) {
		info, err := e.Info()
		if err != nil {
			logger.Warn("stat log candidate", "path", filepath.Join(dir, e.Name()), "error", err)
			return
		}
		if info.Mode().IsRegular() {
			out = append(out, candidate{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
		}
	}
	for _, e := range entries {
		if !e.IsDir() {
			add(l.Root, e)
			continue
		}
		sub := filepath.Join(l.Root, e.Name())
		children, err := os.ReadDir(sub)
		if err != nil {
			logger.Warn("skip unreadable log subdirectory", "path", sub, "error", err)
			continue
		}
		for _, c := range children {
			if !c.IsDir() {
				add(sub, c)
			}
		}
	}
	return out, nil
}

func newest(cs []candidate) (candidate, bool) {
	if len(cs) == 0 {
		return candidate{}, false
	}
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].modTime.Equal(cs[j].modTime) {
			return cs[i].modTime.After(cs[j].modTime)
		}
		return cs[i].path > cs[j].path
	})
	return cs[0], true
}
