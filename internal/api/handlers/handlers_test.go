package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/finlens/loansight/internal/pipeline"
	"github.com/finlens/loansight/internal/session"
	"github.com/finlens/loansight/internal/session/inmemory"
)

type fakePublisher struct {
	jobs []*session.AnalysisJob
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, job *session.AnalysisJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newHandler(pub session.Publisher) (*AnalysisHandler, *inmemory.Store) {
	store := inmemory.NewStore()
	return NewAnalysisHandler(store, pub, 32<<20, zerolog.Nop()), store
}

func multipartRequest(t *testing.T, loanAmount string, withFile bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if loanAmount != "" {
		if err := mw.WriteField("loan_amount", loanAmount); err != nil {
			t.Fatal(err)
		}
	}
	if withFile {
		fw, err := mw.CreateFormFile("file", "statement.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("%PDF-1.4 fake statement")); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeAcceptsUpload(t *testing.T) {
	pub := &fakePublisher{}
	h, store := newHandler(pub)

	rec := httptest.NewRecorder()
	h.Analyze(rec, multipartRequest(t, "12500.50", true))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID   string `json:"session_id"`
		CurrentStep int    `json:"current_step"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("response has no session_id")
	}
	if resp.CurrentStep != pipeline.StepQueued || resp.Status != string(session.StatusPending) {
		t.Errorf("response = %+v", resp)
	}

	if len(pub.jobs) != 1 {
		t.Fatalf("published %d jobs, want 1", len(pub.jobs))
	}
	job := pub.jobs[0]
	if job.SessionID != resp.SessionID {
		t.Errorf("job session = %q, response session = %q", job.SessionID, resp.SessionID)
	}
	if job.RequestedAmount != 12500.50 {
		t.Errorf("job amount = %v, want 12500.50", job.RequestedAmount)
	}
	if len(job.DocumentBytes) == 0 {
		t.Error("job carries no document bytes")
	}

	if _, ok := store.Get(resp.SessionID); !ok {
		t.Error("session was not registered in the store")
	}
}

func TestAnalyzeRejectsBadLoanAmount(t *testing.T) {
	for _, amount := range []string{"", "abc", "0", "-100"} {
		t.Run("amount="+amount, func(t *testing.T) {
			h, _ := newHandler(&fakePublisher{})
			rec := httptest.NewRecorder()
			h.Analyze(rec, multipartRequest(t, amount, true))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnalyzeRejectsMissingFile(t *testing.T) {
	h, _ := newHandler(&fakePublisher{})
	rec := httptest.NewRecorder()
	h.Analyze(rec, multipartRequest(t, "5000", false))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzePublishFailureFailsSession(t *testing.T) {
	h, store := newHandler(&fakePublisher{err: errors.New("queue full")})
	rec := httptest.NewRecorder()
	h.Analyze(rec, multipartRequest(t, "5000", true))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d sessions, want 1", store.Len())
	}
}

func TestProgress(t *testing.T) {
	h, store := newHandler(&fakePublisher{})
	store.Create("tok")
	store.SetStep("tok", 4)

	rec := httptest.NewRecorder()
	h.Progress(rec, httptest.NewRequest(http.MethodGet, "/api/progress/tok", nil), "tok")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["current_step"] != 4 {
		t.Errorf("current_step = %d, want 4", resp["current_step"])
	}
}

func TestProgressUnknownSession(t *testing.T) {
	h, _ := newHandler(&fakePublisher{})
	rec := httptest.NewRecorder()
	h.Progress(rec, httptest.NewRequest(http.MethodGet, "/api/progress/nope", nil), "nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestResultStates(t *testing.T) {
	h, store := newHandler(&fakePublisher{})

	store.Create("pending")
	store.SetStep("pending", 2)

	store.Create("done")
	store.Complete("done", &pipeline.Report{SessionID: "done", Score: 81, Status: pipeline.StatusSuccess})

	store.Create("broken")
	store.Fail("broken", "document unreadable")

	t.Run("pending", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Result(rec, httptest.NewRequest(http.MethodGet, "/api/result/pending", nil), "pending")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp["status"] != string(session.StatusRunning) {
			t.Errorf("status = %v", resp["status"])
		}
	})

	t.Run("completed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Result(rec, httptest.NewRequest(http.MethodGet, "/api/result/done", nil), "done")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var report pipeline.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatal(err)
		}
		if report.Score != 81 || report.Status != pipeline.StatusSuccess {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("failed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Result(rec, httptest.NewRequest(http.MethodGet, "/api/result/broken", nil), "broken")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp["status"] != pipeline.StatusFailed || resp["error"] != "document unreadable" {
			t.Errorf("response = %v", resp)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Result(rec, httptest.NewRequest(http.MethodGet, "/api/result/nope", nil), "nope")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
