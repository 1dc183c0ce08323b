package ingest

import (
	"time"

	"anthingest/internal/ledger"
)

// Report summarizes one ingestion run.
type Report struct {
	RunID      string
	Label      string
	VideoDir   string
	StartedAt  time.Time
	FinishedAt time.Time

	// Collections observed in the video directory, sorted.
	Collections []string
	// Documents loaded for this run, in processing order.
	Documents []string
	// Insertions applied (or planned, on a dry run).
	Insertions []ledger.Insertion
	// SkippedFiles are names that did not match the identifier convention.
	SkippedFiles []string
	// MissingPapers are identifiers with no matching paper node, recorded
	// only when on_missing_paper is "skip".
	MissingPapers []string
	// AlreadyPresent are references suppressed by skip_existing.
	AlreadyPresent []string
}

// SkippedCount returns how many scanned files produced no insertion.
func (r *Report) SkippedCount() int {
	return len(r.SkippedFiles) + len(r.MissingPapers) + len(r.AlreadyPresent)
}

// Duration returns the elapsed wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
