package store

import "time"

// Run kinds
const (
	RunBuild = "build"
	RunMatch = "match"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunStats are the counts reported at the end of a run.
type RunStats struct {
	Documents  int
	Parsed     int
	Failed     int
	Conflicts  int
	Operations int
}

// Run is one recorded batch execution.
type Run struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Stats       RunStats   `json:"stats"`
}
