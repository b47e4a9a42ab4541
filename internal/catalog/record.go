// Package catalog turns raw process rows into typed records and partitions
// them by status for reporting.
package catalog

import (
	"math"
	"strings"
	"time"
)

// Status is the closed set of process states a report knows about.
type Status int

const (
	StatusUnknown Status = iota
	StatusFailed
	StatusFinished
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusFinished:
		return "finished"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalText lets Status appear as a word in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseStatus resolves a database status name. Matching is a case-insensitive
// substring test so "Finished", "COMPLETED" and "finished_ok" all resolve to
// StatusFinished. Anything unrecognised is StatusUnknown.
func ParseStatus(name string) Status {
	s := strings.ToLower(strings.TrimSpace(name))
	switch {
	case s == "":
		return StatusUnknown
	case strings.Contains(s, "finish"), strings.Contains(s, "complete"):
		return StatusFinished
	case strings.Contains(s, "fail"), strings.Contains(s, "error"):
		return StatusFailed
	case strings.Contains(s, "running"), strings.Contains(s, "processing"):
		return StatusRunning
	default:
		return StatusUnknown
	}
}

// Raw is one row as returned by the query layer, before normalization.
type Raw struct {
	UUID        string
	ClientName  string
	ClientKey   string
	StatusName  string
	StartTime   *time.Time
	PingTime    *time.Time
	StopTime    *time.Time
	SourceURI   string
	SourceAlias string
}

// Record is a normalized process record. It is never mutated after Normalize.
type Record struct {
	UUID           string     `json:"uuid"`
	ClientName     string     `json:"client_name"`
	ClientKey      string     `json:"client_key,omitempty"`
	Status         Status     `json:"status"`
	RawStatus      string     `json:"raw_status"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	PingTime       *time.Time `json:"ping_time,omitempty"`
	StopTime       *time.Time `json:"stop_time,omitempty"`
	ElapsedMinutes *float64   `json:"elapsed_minutes,omitempty"`
	SourceURI      string     `json:"source_uri,omitempty"`
	SourceAlias    string     `json:"source_alias,omitempty"`
}

// Normalize converts raw rows to records, resolving status exactly once.
func Normalize(raws []Raw) []Record {
	out := make([]Record, 0, len(raws))
	for _, r := range raws {
		out = append(out, Record{
			UUID:           strings.TrimSpace(r.UUID),
			ClientName:     r.ClientName,
			ClientKey:      strings.TrimSpace(r.ClientKey),
			Status:         ParseStatus(r.StatusName),
			RawStatus:      r.StatusName,
			StartTime:      r.StartTime,
			PingTime:       r.PingTime,
			StopTime:       r.StopTime,
			ElapsedMinutes: elapsedMinutes(r.StartTime, r.PingTime),
			SourceURI:      r.SourceURI,
			SourceAlias:    r.SourceAlias,
		})
	}
	return out
}

// elapsedMinutes is ping minus start in minutes, rounded to one decimal.
func elapsedMinutes(start, ping *time.Time) *float64 {
	if start == nil || ping == nil {
		return nil
	}
	m := math.Round(ping.Sub(*start).Minutes()*10) / 10
	return &m
}

// Day returns the calendar day the process started on, or the zero time.
func (r Record) Day() time.Time {
	if r.StartTime == nil {
		return time.Time{}
	}
	return *r.StartTime
}
