package paymob

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenState is the cached result of one OAuth2 password-grant exchange.
type tokenState struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// tokenFetcher performs the actual credential exchange against the provider.
type tokenFetcher func(ctx context.Context) (tokenState, error)

// TokenCache holds the provider bearer token for the whole process. The token
// is refreshed proactively once inside the expiry buffer; concurrent callers
// share a single in-flight refresh instead of racing the provider.
type TokenCache struct {
	mu     sync.Mutex
	state  tokenState
	buffer time.Duration
	now    func() time.Time

	group singleflight.Group
	fetch tokenFetcher
}

// NewTokenCache builds a cache around the provided fetcher.
func NewTokenCache(fetch tokenFetcher, buffer time.Duration) *TokenCache {
	if buffer < 0 {
		buffer = 0
	}
	return &TokenCache{
		buffer: buffer,
		now:    time.Now,
		fetch:  fetch,
	}
}

// Token returns a bearer token, refreshing it when expired or inside the
// buffer window.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	state := c.state
	fresh := state.accessToken != "" && c.now().Before(state.expiresAt.Add(-c.buffer))
	c.mu.Unlock()

	if fresh {
		return state.accessToken, nil
	}

	result, err, _ := c.group.Do("refresh", func() (any, error) {
		// Re-check under the lock: a refresh that completed while this
		// caller waited on the singleflight slot is good enough.
		c.mu.Lock()
		state := c.state
		c.mu.Unlock()
		if state.accessToken != "" && c.now().Before(state.expiresAt.Add(-c.buffer)) {
			return state, nil
		}

		refreshed, err := c.fetch(ctx)
		if err != nil {
			return tokenState{}, err
		}

		c.mu.Lock()
		c.state = refreshed
		c.mu.Unlock()
		return refreshed, nil
	})
	if err != nil {
		return "", err
	}

	return result.(tokenState).accessToken, nil
}

// Invalidate drops the cached token so the next caller re-authenticates.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.state = tokenState{}
	c.mu.Unlock()
}
