package storage

import (
	"context"
	"time"
)

// RunSource records which surface submitted a run.
type RunSource string

const (
	SourceCLI    RunSource = "cli"
	SourceREPL   RunSource = "repl"
	SourceAPI    RunSource = "api"
	SourceSocket RunSource = "ws"
	SourceSolver RunSource = "solver"
)

// Run is one recorded sandbox execution: the code that was sent and the text
// that came back. Output holds stdout/stderr interleaved, exactly as the
// sandbox returned it.
type Run struct {
	ID              string        `json:"id"`
	Source          RunSource     `json:"source"`
	Code            string        `json:"code"`
	Output          string        `json:"output"`
	Strace          bool          `json:"strace"`
	InterpreterMode bool          `json:"interpreter_mode"`
	Duration        time.Duration `json:"duration"`
	CreatedAt       time.Time     `json:"created_at"`
}

// RunListOptions controls filtering and pagination for ListRuns.
type RunListOptions struct {
	Source RunSource
	Limit  int
	Offset int
}

// Store is the persistence interface for run history.
type Store interface {
	// CreateRun inserts a new run. The ID field must be set by the caller.
	CreateRun(ctx context.Context, r *Run) error

	// GetRun returns a run by ID or ID prefix.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs ordered by created_at descending.
	ListRuns(ctx context.Context, opts RunListOptions) ([]Run, error)

	// DeleteRun removes a run.
	DeleteRun(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
