package repository

import (
	"context"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

func TestMemoryLedgerContract(t *testing.T) {
	testLedgerContract(t, NewMemoryLedger())
}

func TestMemoryLedgerPendingExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	ledger := NewMemoryLedger()
	ledger.now = func() time.Time { return now }

	key := domain.DueDateKey("rec-expiry")
	if ok, _ := ledger.Reserve(ctx, reservation(key, "a"), 15*time.Minute); !ok {
		t.Fatal("expected first reserve to succeed")
	}

	now = now.Add(14 * time.Minute)
	if ok, _ := ledger.Reserve(ctx, reservation(key, "b"), 15*time.Minute); ok {
		t.Fatal("expected reserve before expiry to fail")
	}

	now = now.Add(time.Minute)
	if sent, _ := ledger.HasSent(ctx, key); sent {
		t.Error("expected expired reservation to be gone")
	}
	if ok, _ := ledger.Reserve(ctx, reservation(key, "c"), 15*time.Minute); !ok {
		t.Error("expected reserve after expiry to succeed")
	}
}

func TestMemoryLedgerEntries(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	sentKey := domain.DueDateKey("rec-1")
	if err := ledger.RecordSent(ctx, domain.NewNotificationLogEntry(sentKey, "2024-05-04", "msg-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ledger.Reserve(ctx, reservation(domain.DueDateKey("rec-2"), "p"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := ledger.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 recorded entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Key != sentKey {
		t.Errorf("expected key %v, got %v", sentKey, got.Key)
	}
	if got.Target != "2024-05-04" || got.MessageID != "msg-1" {
		t.Errorf("unexpected entry: %+v", got)
	}
}
