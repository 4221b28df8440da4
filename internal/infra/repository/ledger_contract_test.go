package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

func reservation(key domain.LedgerKey, id string) domain.Reservation {
	return domain.Reservation{Key: key, ID: id, ReservedAt: time.Now().UTC()}
}

// testLedgerContract exercises the behavior every NotificationLedger backend
// must share. Each case uses its own subject so backends can be reused.
func testLedgerContract(t *testing.T, ledger domain.NotificationLedger) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty ledger has not sent", func(t *testing.T) {
		sent, err := ledger.HasSent(ctx, domain.DueDateKey("rec-empty"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent {
			t.Error("expected HasSent false on empty ledger")
		}
	})

	t.Run("second reserve loses", func(t *testing.T) {
		key := domain.DueDateKey("rec-reserve")

		ok, err := ledger.Reserve(ctx, reservation(key, "a"), time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected first reserve to succeed")
		}

		ok, err = ledger.Reserve(ctx, reservation(key, "b"), time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected second reserve to fail")
		}

		sent, err := ledger.HasSent(ctx, key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sent {
			t.Error("expected pending reservation to count as claimed")
		}
	})

	t.Run("release only by owner", func(t *testing.T) {
		key := domain.DueDateKey("rec-release")
		owner := reservation(key, "owner")

		if ok, err := ledger.Reserve(ctx, owner, time.Minute); err != nil || !ok {
			t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
		}

		if err := ledger.Release(ctx, reservation(key, "intruder")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent, _ := ledger.HasSent(ctx, key); !sent {
			t.Fatal("expected reservation to survive a foreign release")
		}

		if err := ledger.Release(ctx, owner); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent, _ := ledger.HasSent(ctx, key); sent {
			t.Fatal("expected key to be free after owner release")
		}

		ok, err := ledger.Reserve(ctx, reservation(key, "next"), time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected reserve after release to succeed")
		}
	})

	t.Run("recorded entry is permanent", func(t *testing.T) {
		key := domain.DueDateKey("rec-sent")
		res := reservation(key, "r1")

		if ok, err := ledger.Reserve(ctx, res, time.Minute); err != nil || !ok {
			t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
		}
		if err := ledger.RecordSent(ctx, domain.NewNotificationLogEntry(key, "2024-05-04", "msg-1")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := ledger.Release(ctx, res); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sent, err := ledger.HasSent(ctx, key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sent {
			t.Error("expected recorded entry to survive release")
		}

		ok, err := ledger.Reserve(ctx, reservation(key, "r2"), time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected reserve on recorded key to fail")
		}
	})

	t.Run("habit keys are scoped by day", func(t *testing.T) {
		today := domain.HabitKey("user-day", day)
		tomorrow := domain.HabitKey("user-day", day.AddDate(0, 0, 1))

		if err := ledger.RecordSent(ctx, domain.NewNotificationLogEntry(today, "09:00", "msg")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ok, err := ledger.Reserve(ctx, reservation(tomorrow, "t"), time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected next day key to be independent")
		}
	})

	t.Run("concurrent reserve has exactly one winner", func(t *testing.T) {
		key := domain.HabitKey("user-race", day)

		const workers = 16
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := ledger.Reserve(ctx, reservation(key, string(rune('a'+i))), time.Minute)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if wins != 1 {
			t.Errorf("expected exactly 1 winner, got %d", wins)
		}
	})

	t.Run("nil entry rejected", func(t *testing.T) {
		if err := ledger.RecordSent(ctx, nil); err == nil {
			t.Error("expected error for nil entry")
		}
	})
}
