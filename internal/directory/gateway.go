// Package directory puts the nonprofit directory client behind a gateway that
// adds per-call timeouts, retry, a circuit breaker per operation, an adaptive
// rate limit, sub-result caching and call accounting.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/relief-match/internal/cache"
	"github.com/sells-group/relief-match/internal/cost"
	"github.com/sells-group/relief-match/internal/metrics"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/resilience"
	"github.com/sells-group/relief-match/internal/textnorm"
	"github.com/sells-group/relief-match/pkg/everyorg"
)

// Config controls the gateway.
type Config struct {
	Timeout       time.Duration
	SearchTake    int
	BrowseTake    int
	RatePerSecond float64
	Burst         int
	ListTTL       time.Duration
	DetailTTL     time.Duration
	CacheSize     int
	Retry         resilience.RetryConfig
	Circuit       resilience.BreakerConfig
}

// DefaultConfig returns the gateway defaults: 10s per call, 6h list and 24h
// detail caching.
func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		SearchTake:    50,
		BrowseTake:    50,
		RatePerSecond: 10,
		Burst:         10,
		ListTTL:       6 * time.Hour,
		DetailTTL:     24 * time.Hour,
		CacheSize:     2000,
		Retry:         resilience.DefaultRetryConfig(),
		Circuit:       resilience.DefaultBreakerConfig(),
	}
}

// Gateway is the only path to the directory. It is safe for concurrent use.
type Gateway struct {
	client   everyorg.Client
	cfg      Config
	lists    cache.Store[[]everyorg.Nonprofit]
	details  cache.Store[*everyorg.Details]
	breakers *resilience.Breakers
	limiter  *resilience.AdaptiveLimiter
	calc     *cost.Calculator
	usage    *cost.Tracker
	metrics  *metrics.Metrics
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMetrics records calls on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithCalculator prices calls with c instead of the default rates.
func WithCalculator(c *cost.Calculator) Option {
	return func(g *Gateway) { g.calc = c }
}

// WithListCache replaces the search/browse cache.
func WithListCache(s cache.Store[[]everyorg.Nonprofit]) Option {
	return func(g *Gateway) { g.lists = s }
}

// WithDetailCache replaces the profile detail cache.
func WithDetailCache(s cache.Store[*everyorg.Details]) Option {
	return func(g *Gateway) { g.details = s }
}

// New creates a gateway over client. Zero config fields take their defaults.
func New(client everyorg.Client, cfg Config, opts ...Option) *Gateway {
	cfg = applyDefaults(cfg)
	g := &Gateway{
		client:   client,
		cfg:      cfg,
		lists:    cache.New[[]everyorg.Nonprofit]("directory_lists", cache.WithMaxSize(cfg.CacheSize), cache.WithDefaultTTL(cfg.ListTTL)),
		details:  cache.New[*everyorg.Details]("directory_details", cache.WithMaxSize(cfg.CacheSize), cache.WithDefaultTTL(cfg.DetailTTL)),
		breakers: resilience.NewBreakers(cfg.Circuit),
		limiter:  resilience.NewAdaptiveLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		calc:     cost.NewCalculator(cost.DefaultRates()),
		usage:    cost.NewTracker(),
	}
	for _, o := range opts {
		o(g)
	}
	g.metrics.WatchCache(g.lists)
	g.metrics.WatchCache(g.details)
	return g
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.SearchTake <= 0 {
		cfg.SearchTake = def.SearchTake
	}
	if cfg.BrowseTake <= 0 {
		cfg.BrowseTake = def.BrowseTake
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.DetailTTL <= 0 {
		cfg.DetailTTL = def.DetailTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	return cfg
}

// Search runs a free-text search, optionally narrowed to directory cause tags.
func (g *Gateway) Search(ctx context.Context, term string, causes []string) ([]everyorg.Nonprofit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	key := "search:" + textnorm.Fold(term) + "|" + strings.Join(causes, ",")
	opts := everyorg.SearchOptions{Causes: causes, Take: g.cfg.SearchTake}
	return cachedCall(ctx, g, g.lists, key, cost.OpSearch, func(ctx context.Context) ([]everyorg.Nonprofit, error) {
		return g.client.Search(ctx, term, opts)
	})
}

// Browse lists the organizations filed under a directory cause tag.
func (g *Gateway) Browse(ctx context.Context, cause string) ([]everyorg.Nonprofit, error) {
	cause = strings.TrimSpace(cause)
	if cause == "" {
		return nil, nil
	}
	opts := everyorg.BrowseOptions{Take: g.cfg.BrowseTake, Page: 1}
	return cachedCall(ctx, g, g.lists, "browse:"+cause, cost.OpBrowse, func(ctx context.Context) ([]everyorg.Nonprofit, error) {
		return g.client.Browse(ctx, cause, opts)
	})
}

// Details fetches a full profile. A missing organization yields an error
// matching everyorg.ErrNotFound; not-found results are not cached.
func (g *Gateway) Details(ctx context.Context, slug string) (*everyorg.Details, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, &everyorg.APIError{StatusCode: 404, Body: "empty slug"}
	}
	return cachedCall(ctx, g, g.details, slug, cost.OpDetails, func(ctx context.Context) (*everyorg.Details, error) {
		return g.client.GetDetails(ctx, slug)
	})
}

// Usage returns the process-wide call counters.
func (g *Gateway) Usage() cost.Usage {
	return g.usage.Usage()
}

// EstimateCost prices a usage record.
func (g *Gateway) EstimateCost(u cost.Usage) float64 {
	return g.calc.Estimate(u)
}

// CacheStats reports the list and detail caches.
func (g *Gateway) CacheStats() []cache.Stats {
	return []cache.Stats{g.lists.Stats(), g.details.Stats()}
}

// CircuitStates reports each operation's breaker state.
func (g *Gateway) CircuitStates() map[string]string {
	return g.breakers.States()
}

// ClearCaches empties the list and detail caches.
func (g *Gateway) ClearCaches() {
	g.lists.Clear()
	g.details.Clear()
}

func cachedCall[T any](ctx context.Context, g *Gateway, store cache.Store[T], key string, op cost.Op, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := store.Get(key); ok {
		g.usage.RecordCacheHit()
		cost.FromContext(ctx).RecordCacheHit()
		g.metrics.ObserveDirectoryCall(string(op), "cache_hit", 0)
		return v, nil
	}
	v, err := call(ctx, g, op, fn)
	if err != nil {
		return v, err
	}
	store.Set(key, v, 0)
	return v, nil
}

func call[T any](ctx context.Context, g *Gateway, op cost.Op, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	retry := g.cfg.Retry
	retry.OnRetry = resilience.RetryLogger(string(op))
	cb := g.breakers.For(string(op))

	v, err := resilience.Retry(ctx, retry, func(ctx context.Context) (T, error) {
		return resilience.Guard(ctx, cb, func(ctx context.Context) (T, error) {
			if err := g.limiter.Wait(ctx); err != nil {
				var zero T
				return zero, err
			}
			callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
			defer cancel()

			g.usage.Record(op)
			cost.FromContext(ctx).Record(op)
			v, err := fn(callCtx)
			switch {
			case err == nil:
				g.limiter.OnSuccess()
			case statusOf(err) == 429:
				g.limiter.OnRateLimit()
			}
			return v, err
		})
	})

	result := resultLabel(err)
	g.metrics.ObserveDirectoryCall(string(op), result, time.Since(start).Seconds())
	if err != nil && result != resilience.KindNotFound.String() {
		zap.L().Debug("directory call failed",
			zap.String("op", string(op)),
			zap.String("result", result),
			zap.Error(err),
		)
	}
	return v, err
}

func statusOf(err error) int {
	var sc resilience.StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	default:
		return resilience.Classify(err).String()
	}
}

// ToCandidate converts a directory hit into a pipeline candidate. Directory
// tags become the candidate's causes as-is; the reranker normalizes them.
func ToCandidate(n everyorg.Nonprofit) model.NonprofitCandidate {
	return model.NonprofitCandidate{
		Slug:            n.Slug,
		Name:            strings.TrimSpace(n.Name),
		Description:     strings.TrimSpace(n.Description),
		LocationAddress: strings.TrimSpace(n.Location),
		WebsiteURL:      n.WebsiteURL,
		EIN:             n.EIN,
		Causes:          append([]string(nil), n.Tags...),
		LogoURL:         n.LogoURL,
		NTEECode:        n.NTEECode,
	}
}
