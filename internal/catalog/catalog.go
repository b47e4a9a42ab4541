package catalog

import "fmt"

// Partitions are the disjoint status groups of one reporting run. Each slice
// keeps the relative order of the input.
type Partitions struct {
	Failed   []Record
	Finished []Record
	Running  []Record
	// Skipped counts records removed by the skip set.
	Skipped int
}

// Len is the number of categorized records.
func (p Partitions) Len() int { return len(p.Failed) + len(p.Finished) + len(p.Running) }

// All returns the categorized records in category order.
func (p Partitions) All() []Record {
	out := make([]Record, 0, p.Len())
	out = append(out, p.Failed...)
	out = append(out, p.Finished...)
	return append(out, p.Running...)
}

// Warning describes a record dropped because it was malformed.
type Warning struct {
	UUID   string `json:"uuid,omitempty"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	if w.UUID == "" {
		return w.Reason
	}
	return fmt.Sprintf("%s: %s", w.UUID, w.Reason)
}

// Categorize partitions records by status after removing skipped clients.
// Records with an unknown status, an empty UUID, or a UUID already seen are
// dropped and reported as warnings.
func Categorize(records []Record, skip SkipSet) (Partitions, []Warning) {
	var (
		p        Partitions
		warnings []Warning
		seen     = make(map[string]bool, len(records))
	)
	for _, r := range records {
		if skip.Skips(r) {
			p.Skipped++
			continue
		}
		if r.UUID == "" {
			warnings = append(warnings, Warning{Reason: fmt.Sprintf("record for client %q has no uuid", r.ClientName)})
			continue
		}
		if seen[r.UUID] {
			warnings = append(warnings, Warning{UUID: r.UUID, Reason: "duplicate uuid"})
			continue
		}
		switch r.Status {
		case StatusFailed:
			p.Failed = append(p.Failed, r)
		case StatusFinished:
			p.Finished = append(p.Finished, r)
		case StatusRunning:
			p.Running = append(p.Running, r)
		default:
			warnings = append(warnings, Warning{UUID: r.UUID, Reason: fmt.Sprintf("unrecognized status %q", r.RawStatus)})
			continue
		}
		seen[r.UUID] = true
	}
	return p, warnings
}
