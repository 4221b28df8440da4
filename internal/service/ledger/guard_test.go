package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/repository"
)

func newTestGuard(ledger domain.NotificationLedger) *Guard {
	g := NewGuard(ledger, time.Minute, time.Second)
	g.newID = func() string { return "res-1" }
	return g
}

func TestDeliver_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	key := domain.DueDateKey("record-1")

	gomock.InOrder(
		mockLedger.EXPECT().
			Reserve(gomock.Any(), gomock.Any(), time.Minute).
			DoAndReturn(func(_ context.Context, res domain.Reservation, _ time.Duration) (bool, error) {
				if res.Key != key {
					t.Errorf("reservation key: got %v, want %v", res.Key, key)
				}
				if res.ID != "res-1" {
					t.Errorf("reservation id: got %q, want res-1", res.ID)
				}
				return true, nil
			}),
		mockLedger.EXPECT().
			RecordSent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry *domain.NotificationLogEntry) error {
				if entry.Key != key {
					t.Errorf("entry key: got %v, want %v", entry.Key, key)
				}
				if entry.Target != "2024-01-04" {
					t.Errorf("entry target: got %q", entry.Target)
				}
				if entry.MessageID != "msg-1" {
					t.Errorf("entry message id: got %q", entry.MessageID)
				}
				return nil
			}),
	)

	dispatched := 0
	delivery, err := newTestGuard(mockLedger).Deliver(context.Background(), key, "2024-01-04", func(ctx context.Context) (string, error) {
		dispatched++
		return "msg-1", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivery.Outcome != OutcomeSent {
		t.Errorf("Outcome: got %v, want %v", delivery.Outcome, OutcomeSent)
	}
	if delivery.MessageID != "msg-1" {
		t.Errorf("MessageID: got %q, want msg-1", delivery.MessageID)
	}
	if dispatched != 1 {
		t.Errorf("dispatch calls: got %d, want 1", dispatched)
	}
}

func TestDeliver_AlreadyClaimed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	mockLedger.EXPECT().
		Reserve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, nil)

	delivery, err := newTestGuard(mockLedger).Deliver(context.Background(), domain.DueDateKey("record-1"), "", func(ctx context.Context) (string, error) {
		t.Error("dispatch must not run for a claimed key")
		return "", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivery.Outcome != OutcomeClaimed {
		t.Errorf("Outcome: got %v, want %v", delivery.Outcome, OutcomeClaimed)
	}
}

func TestDeliver_ReserveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	expectedErr := errors.New("redis down")
	mockLedger.EXPECT().
		Reserve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, expectedErr)

	_, err := newTestGuard(mockLedger).Deliver(context.Background(), domain.DueDateKey("record-1"), "", func(ctx context.Context) (string, error) {
		t.Error("dispatch must not run without a reservation")
		return "", nil
	})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestDeliver_DispatchFailureReleases(t *testing.T) {
	tests := []struct {
		name        string
		dispatchErr error
	}{
		{name: "transient", dispatchErr: domain.ErrDispatchTransient},
		{name: "invalid token", dispatchErr: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLedger := domain.NewMockNotificationLedger(ctrl)
			key := domain.HabitKey("user-1", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

			mockLedger.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
			mockLedger.EXPECT().
				Release(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, res domain.Reservation) error {
					if res.Key != key || res.ID != "res-1" {
						t.Errorf("released wrong reservation: %+v", res)
					}
					return nil
				})
			mockLedger.EXPECT().RecordSent(gomock.Any(), gomock.Any()).Times(0)

			delivery, err := newTestGuard(mockLedger).Deliver(context.Background(), key, "09:00", func(ctx context.Context) (string, error) {
				return "", tt.dispatchErr
			})
			if !errors.Is(err, tt.dispatchErr) {
				t.Errorf("expected error %v, got %v", tt.dispatchErr, err)
			}
			if delivery.Outcome != OutcomeFailed {
				t.Errorf("Outcome: got %v, want %v", delivery.Outcome, OutcomeFailed)
			}
		})
	}
}

func TestDeliver_LedgerWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	mockLedger.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	mockLedger.EXPECT().
		RecordSent(gomock.Any(), gomock.Any()).
		Return(errors.New("write failed")).
		Times(recordSentMaxRetries)

	delivery, err := newTestGuard(mockLedger).Deliver(context.Background(), domain.DueDateKey("record-1"), "", func(ctx context.Context) (string, error) {
		return "msg-1", nil
	})
	if !IsLedgerWriteError(err) {
		t.Fatalf("expected ledger write error, got %v", err)
	}
	if delivery.Outcome != OutcomeSent {
		t.Errorf("Outcome: got %v, want %v", delivery.Outcome, OutcomeSent)
	}
}

func TestDeliver_LedgerWriteRecoversOnRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	mockLedger.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	gomock.InOrder(
		mockLedger.EXPECT().RecordSent(gomock.Any(), gomock.Any()).Return(errors.New("timeout")),
		mockLedger.EXPECT().RecordSent(gomock.Any(), gomock.Any()).Return(nil),
	)

	_, err := newTestGuard(mockLedger).Deliver(context.Background(), domain.DueDateKey("record-1"), "", func(ctx context.Context) (string, error) {
		return "msg-1", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeliver_CancelledAfterReserveStillRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	ctx, cancel := context.WithCancel(context.Background())

	mockLedger.EXPECT().
		Reserve(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.Reservation, time.Duration) (bool, error) {
			cancel()
			return true, nil
		})
	mockLedger.EXPECT().
		RecordSent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *domain.NotificationLogEntry) error {
			return ctx.Err()
		})

	_, err := newTestGuard(mockLedger).Deliver(ctx, domain.DueDateKey("record-1"), "", func(ctx context.Context) (string, error) {
		if ctx.Err() != nil {
			t.Errorf("dispatch context cancelled: %v", ctx.Err())
		}
		return "msg-1", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMinPendingTTL(t *testing.T) {
	tests := []struct {
		name            string
		dispatchTimeout time.Duration
		want            time.Duration
	}{
		{"100ms dispatch", 100 * time.Millisecond, 700 * time.Millisecond},
		{"1s dispatch", time.Second, 4300 * time.Millisecond},
		{"10s dispatch", 10 * time.Second, 40300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinPendingTTL(tt.dispatchTimeout); got != tt.want {
				t.Errorf("MinPendingTTL(%s) = %s, want %s", tt.dispatchTimeout, got, tt.want)
			}
		})
	}
}

func TestNewGuard_RaisesShortPendingTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := domain.NewMockNotificationLedger(ctrl)
	dispatchTimeout := 100 * time.Millisecond
	want := MinPendingTTL(dispatchTimeout) + time.Second

	mockLedger.EXPECT().Reserve(gomock.Any(), gomock.Any(), want).Return(false, nil)

	g := NewGuard(mockLedger, 150*time.Millisecond, dispatchTimeout)
	if _, err := g.Deliver(context.Background(), domain.DueDateKey("record-1"), "", func(context.Context) (string, error) {
		t.Fatal("dispatch must not run for a claimed key")
		return "", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// failingRecorder keeps real reservation expiry but never records a send.
type failingRecorder struct {
	*repository.MemoryLedger
	calls  int
	onCall func(call int)
}

func (f *failingRecorder) RecordSent(_ context.Context, _ *domain.NotificationLogEntry) error {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	return errors.New("ledger unavailable")
}

func TestDeliver_ReservationOutlivesLedgerWriteRetries(t *testing.T) {
	backend := &failingRecorder{MemoryLedger: repository.NewMemoryLedger()}
	key := domain.DueDateKey("record-1")

	// Shorter than the retry backoff alone; NewGuard must raise it.
	g := NewGuard(backend, 150*time.Millisecond, 100*time.Millisecond)

	dispatched := 0
	dispatch := func(context.Context) (string, error) {
		dispatched++
		return "msg-1", nil
	}

	var overlap Delivery
	backend.onCall = func(call int) {
		if call != recordSentMaxRetries {
			return
		}
		var err error
		overlap, err = g.Deliver(context.Background(), key, "", dispatch)
		if err != nil {
			t.Errorf("overlapping Deliver: %v", err)
		}
	}

	_, err := g.Deliver(context.Background(), key, "", dispatch)
	if !errors.Is(err, domain.ErrLedgerWrite) {
		t.Fatalf("expected ledger write error, got %v", err)
	}
	if overlap.Outcome != OutcomeClaimed {
		t.Errorf("overlapping Outcome: got %v, want %v", overlap.Outcome, OutcomeClaimed)
	}
	if dispatched != 1 {
		t.Errorf("dispatched %d times, want 1", dispatched)
	}
}
