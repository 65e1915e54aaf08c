package webhookguard

import (
	"context"
	"time"

	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/redis"
)

// DefaultTTL bounds how long a processed event id blocks replays. The
// database terminal-state gate is the durable defense; this guard only spares
// it the traffic of short-interval provider retries.
const DefaultTTL = 24 * time.Hour

// Guard is a redis-backed first-seen filter for webhook event ids.
type Guard struct {
	store  redis.IdempotencyStore
	logger *logger.Logger
	ttl    time.Duration
}

// New returns a Guard. A nil store disables the guard: CheckAndMark then
// always reports the event as unseen.
func New(store redis.IdempotencyStore, logg *logger.Logger, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, logger: logg, ttl: ttl}
}

// CheckAndMark records the event id and reports whether this delivery is the
// first. Redis trouble fails open: the event is treated as unseen and the
// database gate decides.
func (g *Guard) CheckAndMark(ctx context.Context, scope, eventID string) bool {
	if g == nil || g.store == nil || eventID == "" {
		return true
	}

	key := g.store.IdempotencyKey(scope, eventID)
	first, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn(ctx, "webhook guard unavailable, falling through to database gate")
		}
		return true
	}
	return first
}

// Release forgets an event id so the provider's retry can be reprocessed.
// Called when handling failed after the mark was set.
func (g *Guard) Release(ctx context.Context, scope, eventID string) {
	if g == nil || g.store == nil || eventID == "" {
		return
	}
	if err := g.store.Del(ctx, g.store.IdempotencyKey(scope, eventID)); err != nil && g.logger != nil {
		g.logger.Warn(ctx, "webhook guard release failed")
	}
}
