package pushstub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/push"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(t *testing.T, router http.Handler, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleSend(t *testing.T) {
	msg := push.Message{Token: "tok", Title: "t", Body: "b", Data: map[string]string{"type": "habit_reminder"}}

	tests := []struct {
		name       string
		setup      func(s *Storage)
		message    push.Message
		key        string
		wantStatus int
	}{
		{name: "accepted", setup: func(*Storage) {}, message: msg, key: "habit:u:2024-05-01", wantStatus: http.StatusCreated},
		{name: "missing token", setup: func(*Storage) {}, message: push.Message{Title: "t"}, wantStatus: http.StatusBadRequest},
		{name: "invalid token", setup: func(s *Storage) { s.InvalidateToken("tok") }, message: msg, wantStatus: http.StatusGone},
		{name: "injected failure", setup: func(s *Storage) { s.FailNext(1) }, message: msg, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewStorage()
			tt.setup(storage)
			router := NewRouter(storage)

			w := postJSON(t, router, "/v1/messages", tt.message, map[string]string{push.IdempotencyKeyHeader: tt.key})
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleSend_Replay(t *testing.T) {
	storage := NewStorage()
	router := NewRouter(storage)
	msg := push.Message{Token: "tok", Title: "t", Body: "b"}
	header := map[string]string{push.IdempotencyKeyHeader: "due_date:rec-1"}

	first := postJSON(t, router, "/v1/messages", msg, header)
	second := postJSON(t, router, "/v1/messages", msg, header)

	if first.Code != http.StatusCreated || second.Code != http.StatusOK {
		t.Fatalf("unexpected statuses %d, %d", first.Code, second.Code)
	}

	var a, b push.Receipt
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)
	if a.MessageID == "" || a.MessageID != b.MessageID {
		t.Errorf("expected replay to return %q, got %q", a.MessageID, b.MessageID)
	}
	if len(storage.Delivered()) != 1 {
		t.Errorf("expected 1 delivery, got %d", len(storage.Delivered()))
	}
}

func TestHandleReset(t *testing.T) {
	storage := NewStorage()
	router := NewRouter(storage)

	postJSON(t, router, "/v1/messages", push.Message{Token: "tok"}, nil)
	postJSON(t, router, "/reset", struct{}{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Count != 0 {
		t.Errorf("expected empty storage after reset, got %d", body.Count)
	}
}
