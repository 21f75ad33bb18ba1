package inmemory

import (
	"testing"
	"time"

	"github.com/finlens/loansight/internal/pipeline"
	"github.com/finlens/loansight/internal/session"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()
	store.Create("tok-1")

	rec, ok := store.Get("tok-1")
	if !ok {
		t.Fatal("session not found after Create")
	}
	if rec.Status != session.StatusPending || rec.Step != pipeline.StepQueued {
		t.Errorf("fresh record = %+v", rec)
	}

	store.SetStep("tok-1", 3)
	rec, _ = store.Get("tok-1")
	if rec.Status != session.StatusRunning || rec.Step != 3 {
		t.Errorf("after SetStep record = %+v", rec)
	}

	report := &pipeline.Report{SessionID: "tok-1", Score: 70, Status: pipeline.StatusSuccess}
	store.Complete("tok-1", report)
	rec, _ = store.Get("tok-1")
	if rec.Status != session.StatusCompleted {
		t.Errorf("status = %q, want completed", rec.Status)
	}
	if rec.Step != pipeline.StepReportReady {
		t.Errorf("step = %d, want %d", rec.Step, pipeline.StepReportReady)
	}
	if rec.Report == nil || rec.Report.Score != 70 {
		t.Errorf("report = %+v", rec.Report)
	}
}

func TestStoreFail(t *testing.T) {
	store := NewStore()
	store.Create("tok-2")
	store.Fail("tok-2", "document unreadable")

	rec, _ := store.Get("tok-2")
	if rec.Status != session.StatusFailed {
		t.Errorf("status = %q, want failed", rec.Status)
	}
	if rec.Step != pipeline.StepFailed {
		t.Errorf("step = %d, want %d", rec.Step, pipeline.StepFailed)
	}
	if rec.Error != "document unreadable" {
		t.Errorf("error = %q", rec.Error)
	}
}

func TestStoreUnknownTokenIgnored(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("missing"); ok {
		t.Error("Get on unknown token should report not found")
	}
	// Writes against unknown tokens must be no-ops, not panics or inserts.
	store.SetStep("missing", 4)
	store.Complete("missing", &pipeline.Report{})
	store.Fail("missing", "boom")
	if store.Len() != 0 {
		t.Errorf("store has %d sessions after writes to unknown token", store.Len())
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Create("tok-3")

	rec, _ := store.Get("tok-3")
	rec.Step = 99
	rec.Status = session.StatusFailed

	fresh, _ := store.Get("tok-3")
	if fresh.Step != pipeline.StepQueued || fresh.Status != session.StatusPending {
		t.Errorf("mutating a returned record leaked into the store: %+v", fresh)
	}
}

func TestStorePurgeOlderThan(t *testing.T) {
	store := NewStore()
	store.Create("old")
	store.Create("fresh")

	// Age the first record directly; the clock is real time here.
	store.mu.Lock()
	store.sessions["old"].UpdatedAt = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	if removed := store.PurgeOlderThan(time.Hour); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := store.Get("old"); ok {
		t.Error("stale session survived the purge")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("fresh session was purged")
	}
}
