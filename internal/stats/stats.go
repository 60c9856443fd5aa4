// Package stats keeps per-day check-in counters in Redis. The worker writes
// them, the API reads them back for the daily stats endpoint.
package stats

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "gympoint:stats:checkins:"

	// Counters outlive the day they describe by one day, then expire.
	counterTTL = 48 * time.Hour
)

// Tracker accumulates daily check-in totals.
type Tracker struct {
	client *redis.Client
}

// NewTracker creates a tracker over an existing redis client.
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// RecordCheckin increments the counter for the day the check-in happened.
func (t *Tracker) RecordCheckin(ctx context.Context, at time.Time) error {
	key := dayKey(at)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// CountForDay returns the recorded total for the given day, zero when the
// counter is absent or expired.
func (t *Tracker) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	n, err := t.client.Get(ctx, dayKey(day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func dayKey(t time.Time) string {
	return keyPrefix + t.Format("2006-01-02")
}
