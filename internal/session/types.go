package session

import (
	"context"
	"time"

	"github.com/finlens/loansight/internal/pipeline"
)

// Status is the lifecycle state of an analysis session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// AnalysisJob carries one accepted upload to a worker. The document bytes
// travel with the job since sessions are purely in-memory.
type AnalysisJob struct {
	SessionID       string
	DocumentBytes   []byte
	RequestedAmount float64
	CreatedAt       time.Time
}

// Record is the per-session state: the monotonically increasing progress
// counter (0-7, or -1 once failed) plus the terminal result or error. Exactly
// one worker drives a session, so writes are never concurrent for the same
// token; reads may happen from any number of pollers.
type Record struct {
	SessionID string           `json:"session_id"`
	Status    Status           `json:"status"`
	Step      int              `json:"current_step"`
	Report    *pipeline.Report `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store keeps session records keyed by token. Implementations must be safe
// for concurrent use.
type Store interface {
	// Create registers a new session at step 0, pending.
	Create(sessionID string)

	// SetStep advances the progress counter and marks the session running.
	SetStep(sessionID string, step int)

	// Complete stores the final report and marks the session completed.
	Complete(sessionID string, report *pipeline.Report)

	// Fail records the error message, sets the failure sentinel step and
	// marks the session failed.
	Fail(sessionID string, message string)

	// Get returns a copy of the session record.
	Get(sessionID string) (*Record, bool)

	// PurgeOlderThan evicts sessions not updated within the given age and
	// returns how many were removed.
	PurgeOlderThan(age time.Duration) int
}

// Handler processes one analysis job.
type Handler func(ctx context.Context, job *AnalysisJob) error

// Publisher enqueues analysis jobs.
type Publisher interface {
	Publish(ctx context.Context, job *AnalysisJob) error
	Close() error
}

// Consumer drains analysis jobs, one worker per job. There is no retry: a
// failed job ends its session in the failed state.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}
