// Package state records build and execution history in SQLite.
//
// History is informational: the recompilation cache itself lives in the
// session and never reads from here.
package state

import (
	"context"
	"time"
)

// BuildStatus is the outcome of a compiler run.
type BuildStatus string

// Build statuses.
const (
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
)

// Build is one compiler invocation.
type Build struct {
	ID        string
	SessionID string
	Digest    string
	Package   string
	Languages []string
	ExtraArgs []string
	Status    BuildStatus
	Error     string
	FileCount int
	Duration  time.Duration
	StartedAt time.Time
}

// Execution is one sandbox run.
type Execution struct {
	ID         string
	SessionID  string
	Engine     string
	Language   string
	Status     BuildStatus
	Error      string
	OutputSize int
	Duration   time.Duration
	StartedAt  time.Time
}

// Stats summarizes the recorded history.
type Stats struct {
	Builds       int
	FailedBuilds int
	Executions   int
	Sessions     int
}

// Store persists history records.
type Store interface {
	RecordBuild(ctx context.Context, b *Build) error
	RecordExecution(ctx context.Context, e *Execution) error
	ListBuilds(ctx context.Context, sessionID string, limit int) ([]*Build, error)
	ListExecutions(ctx context.Context, sessionID string, limit int) ([]*Execution, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
