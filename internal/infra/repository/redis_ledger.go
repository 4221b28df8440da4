package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

const ledgerKeyPrefix = "reminder:ledger:"

// releaseScript deletes a key only while it is still the caller's pending
// reservation.
var releaseScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 0
end
local ok, rec = pcall(cjson.decode, raw)
if ok and rec['state'] == 'pending' and rec['reservation_id'] == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

type redisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) domain.NotificationLedger {
	return &redisLedger{
		client: client,
	}
}

func redisLedgerKey(key domain.LedgerKey) string {
	return ledgerKeyPrefix + key.String()
}

func (r *redisLedger) HasSent(ctx context.Context, key domain.LedgerKey) (bool, error) {
	exists, err := r.client.Exists(ctx, redisLedgerKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRedisConnection, err)
	}

	return exists > 0, nil
}

func (r *redisLedger) Reserve(ctx context.Context, res domain.Reservation, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(pendingRecord(res))
	if err != nil {
		return false, ErrInvalidLedgerEntry
	}

	acquired, err := r.client.SetNX(ctx, redisLedgerKey(res.Key), data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRedisConnection, err)
	}

	return acquired, nil
}

// RecordSent overwrites any reservation and clears its expiry.
func (r *redisLedger) RecordSent(ctx context.Context, entry *domain.NotificationLogEntry) error {
	if entry == nil {
		return ErrInvalidLedgerEntry
	}

	data, err := json.Marshal(sentRecord(entry))
	if err != nil {
		return ErrInvalidLedgerEntry
	}

	if err := r.client.Set(ctx, redisLedgerKey(entry.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisConnection, err)
	}

	return nil
}

func (r *redisLedger) Release(ctx context.Context, res domain.Reservation) error {
	if err := releaseScript.Run(ctx, r.client, []string{redisLedgerKey(res.Key)}, res.ID).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisConnection, err)
	}

	return nil
}
