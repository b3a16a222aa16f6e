package rates

import (
	"context"
	"errors"
	"sync"
	"time"
)

type cachedQuote struct {
	Quote     Quote
	ExpiresAt time.Time
}

type inFlightFetch struct {
	done  chan struct{}
	quote Quote
	err   error
}

const maxCleanupInterval = 5 * time.Minute

// CachedSource wraps a rate Source with in-memory TTL caching, keyed by
// source name. Concurrent fetches for the same source are collapsed into
// one upstream call.
type CachedSource struct {
	inner Source
	ttl   time.Duration

	mu          sync.RWMutex
	quotes      map[string]cachedQuote
	inFlight    map[string]*inFlightFetch
	lastCleanup time.Time
}

// NewCachedSource returns a source that caches quotes in memory.
func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedSource{
		inner:    inner,
		ttl:      ttl,
		quotes:   make(map[string]cachedQuote),
		inFlight: make(map[string]*inFlightFetch),
	}
}

// FetchRate returns the cached quote when fresh, otherwise fetches one.
func (s *CachedSource) FetchRate(ctx context.Context, source string) (Quote, error) {
	if s.inner == nil {
		return Quote{}, errors.New("inner rate source is required")
	}

	now := time.Now()

	s.mu.RLock()
	entry, ok := s.quotes[source]
	s.mu.RUnlock()
	if ok && now.Before(entry.ExpiresAt) {
		return entry.Quote, nil
	}

	s.mu.Lock()
	// Re-check under write lock in case another goroutine refreshed it.
	entry, ok = s.quotes[source]
	if ok && now.Before(entry.ExpiresAt) {
		s.mu.Unlock()
		return entry.Quote, nil
	}
	if ok && !now.Before(entry.ExpiresAt) {
		delete(s.quotes, source)
	}

	if fetch, waiting := s.inFlight[source]; waiting {
		s.mu.Unlock()
		return waitForFetch(ctx, fetch)
	}

	fetch := &inFlightFetch{done: make(chan struct{})}
	s.inFlight[source] = fetch
	s.mu.Unlock()

	// Run the fetch with cancellation detached from a single caller so one
	// deadline-bound caller cannot fail all concurrent waiters.
	go s.fetchAndBroadcast(context.WithoutCancel(ctx), source, fetch)
	return waitForFetch(ctx, fetch)
}

func (s *CachedSource) fetchAndBroadcast(ctx context.Context, source string, fetch *inFlightFetch) {
	quote, err := s.inner.FetchRate(ctx, source)
	if err == nil && quote.Rate <= 0 {
		err = errors.New("rate must be positive")
	}

	fetchedAt := time.Now()
	s.mu.Lock()
	if err == nil {
		s.quotes[source] = cachedQuote{
			Quote:     quote,
			ExpiresAt: fetchedAt.Add(s.ttl),
		}
		s.cleanupExpiredLocked(fetchedAt)
	}
	fetch.quote = quote
	fetch.err = err
	delete(s.inFlight, source)
	close(fetch.done)
	s.mu.Unlock()
}

func waitForFetch(ctx context.Context, fetch *inFlightFetch) (Quote, error) {
	select {
	case <-ctx.Done():
		return Quote{}, ctx.Err()
	case <-fetch.done:
		if fetch.err != nil {
			return Quote{}, fetch.err
		}
		return fetch.quote, nil
	}
}

func (s *CachedSource) cleanupExpiredLocked(now time.Time) {
	interval := min(s.ttl, maxCleanupInterval)
	if !s.lastCleanup.IsZero() && now.Sub(s.lastCleanup) < interval {
		return
	}
	for source, entry := range s.quotes {
		if !now.Before(entry.ExpiresAt) {
			delete(s.quotes, source)
		}
	}
	s.lastCleanup = now
}
