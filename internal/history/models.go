package history

import "time"

// Report records the outcome of one conversion attempt sequence for a file.
type Report struct {
	ID         int64
	SessionID  string
	InputPath  string
	OutputPath string
	Success    bool
	Rows       int
	Attempts   int
	Elapsed    time.Duration
	Message    string
	CreatedAt  time.Time
}

// Summary aggregates stored reports.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	TotalRows int64
}
