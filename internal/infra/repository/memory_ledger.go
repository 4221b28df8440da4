package repository

import (
	"context"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

type memoryEntry struct {
	record    ledgerRecord
	expiresAt time.Time
}

// MemoryLedger keeps the ledger in process memory. It only guards a single
// instance and loses its state on restart.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// lookup returns the live entry for k, dropping it if its reservation expired.
func (m *MemoryLedger) lookup(k string) (memoryEntry, bool) {
	entry, ok := m.entries[k]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, k)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryLedger) HasSent(_ context.Context, key domain.LedgerKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key.String())
	return ok, nil
}

func (m *MemoryLedger) Reserve(_ context.Context, res domain.Reservation, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := res.Key.String()
	if _, ok := m.lookup(k); ok {
		return false, nil
	}
	m.entries[k] = memoryEntry{
		record:    pendingRecord(res),
		expiresAt: m.now().Add(ttl),
	}
	return true, nil
}

func (m *MemoryLedger) RecordSent(_ context.Context, entry *domain.NotificationLogEntry) error {
	if entry == nil {
		return ErrInvalidLedgerEntry
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entry.Key.String()] = memoryEntry{record: sentRecord(entry)}
	return nil
}

func (m *MemoryLedger) Release(_ context.Context, res domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := res.Key.String()
	entry, ok := m.lookup(k)
	if ok && entry.record.State == statePending && entry.record.ReservationID == res.ID {
		delete(m.entries, k)
	}
	return nil
}

// Entries returns the recorded (sent) entries, for inspection in tests and
// local tooling.
func (m *MemoryLedger) Entries() []domain.NotificationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.NotificationLogEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.record.State != stateSent {
			continue
		}
		var sentAt time.Time
		if e.record.SentAt != nil {
			sentAt = *e.record.SentAt
		}
		out = append(out, domain.NotificationLogEntry{
			Key: domain.LedgerKey{
				SubjectID: e.record.SubjectID,
				Type:      domain.ReminderType(e.record.ReminderType),
				Day:       e.record.Day,
			},
			SentAt:    sentAt,
			Target:    e.record.Target,
			MessageID: e.record.MessageID,
		})
	}
	return out
}
