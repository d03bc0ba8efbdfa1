package model

import "time"

// RunStatus represents the state of an annotation pass run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Outcome is what a pass did to a single record.
type Outcome string

const (
	OutcomeModified  Outcome = "modified"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Run is one invocation of an annotation pass over the corpus.
type Run struct {
	ID         string     `json:"id"`
	Pass       string     `json:"pass"`
	Status     RunStatus  `json:"status"`
	Counts     RunCounts  `json:"counts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunCounts tallies record outcomes for a run.
type RunCounts struct {
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Total returns the number of records visited.
func (c RunCounts) Total() int {
	return c.Modified + c.Unchanged + c.Skipped + c.Failed
}

// Add increments the counter for o.
func (c *RunCounts) Add(o Outcome) {
	switch o {
	case OutcomeModified:
		c.Modified++
	case OutcomeUnchanged:
		c.Unchanged++
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeFailed:
		c.Failed++
	}
}

// RunItem records the outcome for one record within a run.
type RunItem struct {
	RunID   string  `json:"run_id"`
	Record  string  `json:"record"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}
