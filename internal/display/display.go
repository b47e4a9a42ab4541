// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in report bodies, CLI output and logs.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import (
	"strconv"
	"strings"
)

// --- Process status ---

var statuses = map[string]string{
	"failed":   "Failed",
	"finished": "Finished",
	"running":  "Running",
	"unknown":  "Unknown",
}

// Status returns the human-readable name for a process status code.
// Unknown codes are returned as-is.
func Status(code string) string {
	if name, ok := statuses[code]; ok {
		return name
	}
	return code
}

// StatusWithRaw returns "Failed (ERROR_TIMEOUT)" when the database name
// differs from the normalized status, otherwise just the status name.
func StatusWithRaw(code, raw string) string {
	name := Status(code)
	if raw == "" || strings.EqualFold(raw, code) || strings.EqualFold(raw, name) {
		return name
	}
	return name + " (" + raw + ")"
}

// --- Evidence ---

var evidence = map[string]string{
	"found":         "Found",
	"absent":        "Not found",
	"lookup_failed": "Lookup failed",
	"disabled":      "Lookup disabled",
}

// Evidence returns the human-readable name for an evidence state.
func Evidence(state string) string {
	if name, ok := evidence[state]; ok {
		return name
	}
	return state
}

// --- Log match confidence ---

var confidences = map[string]string{
	"uuid": "UUID in file name",
	"date": "Date pattern",
	"none": "No match",
}

// Confidence returns how a log file was matched to a process.
func Confidence(code string) string {
	if name, ok := confidences[code]; ok {
		return name
	}
	return code
}

// --- Sections ---

// SectionTitle is the report heading for a category with its count.
// ("failed", 2) -> "Failed Processes (2)"
func SectionTitle(code string, n int) string {
	return Status(code) + " Processes (" + strconv.Itoa(n) + ")"
}
