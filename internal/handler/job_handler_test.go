package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/service/job"
)

type fakeRunner struct {
	name   string
	calls  int
	gotNow time.Time
	gotRun string
	err    error
}

func (f *fakeRunner) respond(ctx context.Context, now time.Time) (*job.Response, error) {
	f.calls++
	f.gotNow = now
	f.gotRun = job.RunIDFromContext(ctx)

	if f.err != nil {
		return &job.Response{RunID: f.gotRun, Job: f.name, Now: now, Results: []job.ResultItem{}}, f.err
	}

	return &job.Response{
		RunID:          f.gotRun,
		Job:            f.name,
		Now:            now,
		ProcessedCount: 1,
		SentCount:      1,
		Results: []job.ResultItem{
			{SubjectID: "rec-1", Outcome: job.OutcomeSent, LedgerKey: "due_date:rec-1"},
		},
	}, nil
}

func (f *fakeRunner) Run(ctx context.Context) (*job.Response, error) {
	return f.respond(ctx, time.Time{})
}

func (f *fakeRunner) RunAt(ctx context.Context, now time.Time) (*job.Response, error) {
	return f.respond(ctx, now)
}

func setupRouter(dueDate, habit JobRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewJobHandler(dueDate, habit).Register(r.Group("/api/v1"))
	return r
}

func TestJobHandler(t *testing.T) {
	virtualNow := time.Date(2024, 5, 15, 8, 40, 0, 0, time.UTC)

	tests := []struct {
		name       string
		path       string
		runID      string
		err        error
		wantStatus int
		wantJob    string
		wantNow    time.Time
		wantCalls  int
	}{
		{
			name:       "due date at service clock",
			path:       "/api/v1/jobs/due-date",
			runID:      "run-1",
			wantStatus: http.StatusOK,
			wantJob:    "due_date",
			wantCalls:  1,
		},
		{
			name:       "habit at virtual time",
			path:       "/api/v1/jobs/habit?from=2024-05-15T08:40:00Z",
			runID:      "run-2",
			wantStatus: http.StatusOK,
			wantJob:    "habit",
			wantNow:    virtualNow,
			wantCalls:  1,
		},
		{
			name:       "invalid from",
			path:       "/api/v1/jobs/habit?from=yesterday",
			wantStatus: http.StatusBadRequest,
			wantJob:    "habit",
			wantCalls:  0,
		},
		{
			name:       "enumeration failure",
			path:       "/api/v1/jobs/due-date",
			runID:      "run-3",
			err:        domain.ErrRecordStoreUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantJob:    "due_date",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dueDate := &fakeRunner{name: "due_date", err: tt.err}
			habit := &fakeRunner{name: "habit", err: tt.err}
			r := setupRouter(dueDate, habit)

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.runID != "" {
				req.Header.Set(RunIDHeader, tt.runID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}

			runner := dueDate
			if tt.wantJob == "habit" {
				runner = habit
			}
			if runner.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", runner.calls, tt.wantCalls)
			}
			if tt.wantCalls == 0 {
				return
			}
			if runner.gotRun != tt.runID {
				t.Errorf("run id = %q, want %q", runner.gotRun, tt.runID)
			}
			if got := w.Header().Get(RunIDHeader); got != tt.runID {
				t.Errorf("response run id header = %q, want %q", got, tt.runID)
			}
			if !runner.gotNow.Equal(tt.wantNow) {
				t.Errorf("now = %v, want %v", runner.gotNow, tt.wantNow)
			}

			if tt.err != nil {
				var body errorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Summary == nil || body.Summary.SentCount != 0 {
					t.Errorf("summary = %+v, want zero-send summary", body.Summary)
				}
				return
			}

			var body job.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Job != tt.wantJob || body.SentCount != 1 {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestJobHandler_GeneratesRunID(t *testing.T) {
	dueDate := &fakeRunner{name: "due_date"}
	r := setupRouter(dueDate, &fakeRunner{name: "habit"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/due-date", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if dueDate.gotRun == "" {
		t.Fatal("expected generated run id")
	}
	if w.Header().Get(RunIDHeader) != dueDate.gotRun {
		t.Errorf("header = %q, want %q", w.Header().Get(RunIDHeader), dueDate.gotRun)
	}
}

func TestJobHandler_ErrorWrapping(t *testing.T) {
	wrapped := errors.Join(errors.New("enumerate"), domain.ErrRecordStoreUnavailable)
	r := setupRouter(&fakeRunner{name: "due_date", err: wrapped}, &fakeRunner{name: "habit"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/due-date", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
