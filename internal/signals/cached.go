package signals

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/relief-match/internal/cache"
	"github.com/sells-group/relief-match/internal/model"
)

type cachedSignals struct {
	signals   model.TrustVettingSignals
	uncovered bool
}

// Cached memoizes a provider's answers, including "not covered". Errors are
// not cached so a flaky provider gets another chance on the next request.
type Cached struct {
	next  Provider
	store cache.Store[cachedSignals]
	ttl   time.Duration
}

// NewCached wraps next with a cache of at most size entries held for ttl.
func NewCached(next Provider, size int, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		store: cache.New[cachedSignals]("signals", cache.WithMaxSize(size), cache.WithDefaultTTL(ttl)),
		ttl:   ttl,
	}
}

// Lookup serves from cache or asks the wrapped provider.
func (c *Cached) Lookup(ctx context.Context, cand model.NonprofitCandidate) (model.TrustVettingSignals, error) {
	key := cand.Slug
	if key == "" {
		key = "ein:" + normalizeEIN(cand.EIN)
	}
	if v, ok := c.store.Get(key); ok {
		if v.uncovered {
			return model.TrustVettingSignals{}, ErrNotCovered
		}
		return v.signals, nil
	}
	sig, err := c.next.Lookup(ctx, cand)
	switch {
	case errors.Is(err, ErrNotCovered):
		c.store.Set(key, cachedSignals{uncovered: true}, c.ttl)
	case err == nil:
		c.store.Set(key, cachedSignals{signals: sig}, c.ttl)
	}
	return sig, err
}

// Stats reports the underlying cache.
func (c *Cached) Stats() cache.Stats {
	return c.store.Stats()
}
