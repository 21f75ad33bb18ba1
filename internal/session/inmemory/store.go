package inmemory

import (
	"sync"
	"time"

	"github.com/finlens/loansight/internal/pipeline"
	"github.com/finlens/loansight/internal/session"
)

// Store is an in-memory session store safe for concurrent use. Records live
// until evicted; data is lost on restart, which matches the per-session
// in-memory lifecycle of the whole system.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Record
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session.Record),
	}
}

// Create implements session.Store.
func (s *Store) Create(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.sessions[sessionID] = &session.Record{
		SessionID: sessionID,
		Status:    session.StatusPending,
		Step:      pipeline.StepQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStep implements session.Store. Unknown tokens are ignored: the session
// may have been evicted while its worker was still running.
func (s *Store) SetStep(sessionID string, step int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	rec.Status = session.StatusRunning
	rec.Step = step
	rec.UpdatedAt = time.Now()
}

// Complete implements session.Store.
func (s *Store) Complete(sessionID string, report *pipeline.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	rec.Status = session.StatusCompleted
	rec.Step = pipeline.StepReportReady
	rec.Report = report
	rec.UpdatedAt = time.Now()
}

// Fail implements session.Store.
func (s *Store) Fail(sessionID string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	rec.Status = session.StatusFailed
	rec.Step = pipeline.StepFailed
	rec.Error = message
	rec.UpdatedAt = time.Now()
}

// Get implements session.Store. Returns a copy so callers never share the
// stored record with a concurrently writing worker.
func (s *Store) Get(sessionID string) (*session.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	copied := *rec
	return &copied, true
}

// PurgeOlderThan implements session.Store.
func (s *Store) PurgeOlderThan(age time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-age)
	removed := 0
	for id, rec := range s.sessions {
		if rec.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ session.Store = (*Store)(nil)
