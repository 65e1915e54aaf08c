package paymob

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTokenCacheReusesFreshToken(t *testing.T) {
	fetches := 0
	cache := NewTokenCache(func(ctx context.Context) (tokenState, error) {
		fetches++
		return tokenState{
			accessToken: "token-1",
			expiresAt:   time.Now().Add(time.Hour),
		}, nil
	}, 2*time.Minute)

	for i := 0; i < 5; i++ {
		token, err := cache.Token(context.Background())
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if token != "token-1" {
			t.Fatalf("token = %q", token)
		}
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}
}

func TestTokenCacheRefreshesInsideBuffer(t *testing.T) {
	now := time.Now()
	fetches := 0
	cache := NewTokenCache(func(ctx context.Context) (tokenState, error) {
		fetches++
		return tokenState{
			accessToken: "token",
			// Expires one minute from now, inside the two-minute buffer.
			expiresAt: now.Add(time.Minute),
		}, nil
	}, 2*time.Minute)
	cache.now = func() time.Time { return now }

	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("a token inside the buffer must be refreshed, fetches = %d", fetches)
	}
}

func TestTokenCacheInvalidateForcesRefresh(t *testing.T) {
	fetches := 0
	cache := NewTokenCache(func(ctx context.Context) (tokenState, error) {
		fetches++
		return tokenState{
			accessToken: "token",
			expiresAt:   time.Now().Add(time.Hour),
		}, nil
	}, 0)

	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("fetches = %d, want 2", fetches)
	}
}

func TestTokenCachePropagatesFetchError(t *testing.T) {
	wantErr := errors.New("provider down")
	cache := NewTokenCache(func(ctx context.Context) (tokenState, error) {
		return tokenState{}, wantErr
	}, 0)

	if _, err := cache.Token(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestTokenCacheSharesConcurrentRefresh(t *testing.T) {
	var mu sync.Mutex
	fetches := 0
	release := make(chan struct{})

	cache := NewTokenCache(func(ctx context.Context) (tokenState, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		<-release
		return tokenState{
			accessToken: "shared",
			expiresAt:   time.Now().Add(time.Hour),
		}, nil
	}, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.Token(context.Background())
			if err != nil {
				t.Errorf("token: %v", err)
				return
			}
			if token != "shared" {
				t.Errorf("token = %q", token)
			}
		}()
	}

	// Give the goroutines time to pile onto the singleflight slot.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if fetches != 1 {
		t.Fatalf("fetches = %d, want a single shared refresh", fetches)
	}
}
