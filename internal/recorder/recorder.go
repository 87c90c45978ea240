package recorder

import "time"

// RunEvent holds the outcome of one update run.
type RunEvent struct {
	StartedAt   time.Time
	Duration    time.Duration
	Outcome     string // "UPDATED", "NO_DATA", "UP_TO_DATE" or "FAILED"
	LastBefore  string
	LastAfter   string
	SourceADays int
	SourceBBars int
	BatchSize   int
	Incomplete  int
	SeriesSize  int
	Error       string
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	Close() error
}
