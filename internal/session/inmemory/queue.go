package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finlens/loansight/internal/session"
)

// Queue is a channel-backed analysis job queue, suitable for a
// single-instance deployment. A handful of workers drain it; each job is
// handled by exactly one worker, so a session's progress counter has a single
// writer. Failed jobs are not retried: the external model call has no
// retry/backoff contract, and the session ends in the failed state instead.
type Queue struct {
	jobChan   chan *session.AnalysisJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	workers   int
	closed    bool
}

// NewQueue creates a queue. bufferSize bounds how many uploads can wait
// before Publish blocks; workers is the number of concurrent sessions.
func NewQueue(bufferSize, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobChan:   make(chan *session.AnalysisJob, bufferSize),
		closeChan: make(chan struct{}),
		workers:   workers,
	}
}

// Publish implements session.Publisher.
func (q *Queue) Publish(ctx context.Context, job *session.AnalysisJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements session.Consumer.
func (q *Queue) Start(ctx context.Context, handler session.Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler session.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			// Errors are terminal for the session; the handler records them
			// against the session store.
			_ = handler(ctx, job)
		}
	}
}

// Stop implements session.Consumer. It stops accepting jobs and waits for
// in-flight sessions to finish, or for the context to expire.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements session.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ session.Publisher = (*Queue)(nil)
	_ session.Consumer  = (*Queue)(nil)
)
