package models

import (
	"fmt"
	"time"
)

// Stations lists the archive stations the viewer publishes CSVs for
var Stations = []string{"KXMR", "KTTS", "X1K", "KCOF", "KMLB", "KTIX"}

// Versions lists NBM revisions to try, newest-named first
var Versions = []string{"NBM4.2", "NBM4.1", "NBM4.0"}

// SearchKey identifies one candidate model run for a station
type SearchKey struct {
	Station string
	Date    time.Time // UTC calendar date, time of day ignored
	Hour    int       // cycle hour 0-23
	Version string
}

// RunTime returns the cycle timestamp (date + hour, UTC)
func (k SearchKey) RunTime() time.Time {
	y, m, d := k.Date.Date()
	return time.Date(y, m, d, k.Hour, 0, 0, 0, time.UTC)
}

func (k SearchKey) String() string {
	return fmt.Sprintf("%s %s %02dZ %s", k.Station, k.Date.Format("2006-01-02"), k.Hour, k.Version)
}

// RunResult is the newest run found for a station
type RunResult struct {
	URL     string
	Station string
	Date    time.Time
	Hour    int
	Version string
}

// Key returns the search key this result was found at
func (r RunResult) Key() SearchKey {
	return SearchKey{Station: r.Station, Date: r.Date, Hour: r.Hour, Version: r.Version}
}

// Filename returns the download name: {station}_{yyyyMMddHH}_{version}.csv
func (r RunResult) Filename() string {
	return fmt.Sprintf("%s_%s_%s.csv", r.Station, r.Key().RunTime().Format("2006010215"), r.Version)
}

// Label is the human-readable run description, e.g. "2026-10-18 12Z (NBM4.1)"
func (r RunResult) Label() string {
	return fmt.Sprintf("%s %02dZ (%s)", r.Date.Format("2006-01-02"), r.Hour, r.Version)
}

// ProbeOutcome is the tri-state result of an existence check
type ProbeOutcome int

const (
	ProbeAbsent ProbeOutcome = iota // server answered, resource missing
	ProbeExists                     // server confirmed the resource
	ProbeFailed                     // check could not complete (transport error)
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeExists:
		return "exists"
	case ProbeAbsent:
		return "absent"
	case ProbeFailed:
		return "failed"
	default:
		return fmt.Sprintf("ProbeOutcome(%d)", int(o))
	}
}

// Found collapses the tri-state into the search decision.
// Failed checks count as absent.
func (o ProbeOutcome) Found() bool {
	return o == ProbeExists
}

// Preview holds the row/column counts and leading rows of a CSV
type Preview struct {
	Header      []string
	Rows        [][]string
	RowCount    int
	ColumnCount int
}
