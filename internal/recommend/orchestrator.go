// Package recommend composes candidate generation, reranking and enrichment
// into one request, with a whole-result cache in front.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relief-match/internal/cache"
	"github.com/sells-group/relief-match/internal/candidate"
	"github.com/sells-group/relief-match/internal/cost"
	"github.com/sells-group/relief-match/internal/enrich"
	"github.com/sells-group/relief-match/internal/metrics"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/rerank"
	"github.com/sells-group/relief-match/internal/signals"
)

// Defaults for the orchestrator.
const (
	DefaultTopN      = 10
	DefaultResultTTL = time.Hour
	DefaultCacheSize = 500
)

// ErrEmptyArticle is returned for an article with no title, description or
// content.
var ErrEmptyArticle = eris.New("recommend: article has no title, description or content")

// Directory is the directory access the pipeline needs.
type Directory interface {
	candidate.Directory
	enrich.Detailer
}

// StatsReporter reports the statistics of caches owned elsewhere.
type StatsReporter interface {
	CacheStats() []cache.Stats
}

// Orchestrator runs the recommendation pipeline. It is safe for concurrent
// use.
type Orchestrator struct {
	generator *candidate.Generator
	reranker  *rerank.Reranker
	enricher  *enrich.Enricher
	results   cache.Store[*Result]
	resultTTL time.Duration
	calc      *cost.Calculator
	metrics   *metrics.Metrics
	stats     []StatsReporter

	trust   signals.Provider
	vetting signals.Provider
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGenerator replaces the default candidate generator.
func WithGenerator(g *candidate.Generator) Option {
	return func(o *Orchestrator) { o.generator = g }
}

// WithReranker replaces the default reranker.
func WithReranker(r *rerank.Reranker) Option {
	return func(o *Orchestrator) { o.reranker = r }
}

// WithEnricher replaces the default enricher.
func WithEnricher(e *enrich.Enricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithResultCache replaces the result cache.
func WithResultCache(s cache.Store[*Result], ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.results = s
		if ttl > 0 {
			o.resultTTL = ttl
		}
	}
}

// WithCalculator prices directory usage in debug output.
func WithCalculator(c *cost.Calculator) Option {
	return func(o *Orchestrator) { o.calc = c }
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithStatsReporter adds caches to the debug cache statistics.
func WithStatsReporter(r StatsReporter) Option {
	return func(o *Orchestrator) { o.stats = append(o.stats, r) }
}

// WithProviders sets the trust and vetting providers used when a request
// does not supply its own. Either may be nil.
func WithProviders(trust, vetting signals.Provider) Option {
	return func(o *Orchestrator) {
		o.trust = trust
		o.vetting = vetting
	}
}

// New creates an Orchestrator over dir.
func New(dir Directory, opts ...Option) *Orchestrator {
	o := &Orchestrator{resultTTL: DefaultResultTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.generator == nil {
		o.generator = candidate.New(dir, nil)
	}
	if o.reranker == nil {
		o.reranker = rerank.New(nil)
	}
	if o.enricher == nil {
		o.enricher = enrich.New(dir)
	}
	if o.results == nil {
		o.results = cache.New[*Result]("results",
			cache.WithMaxSize(DefaultCacheSize),
			cache.WithDefaultTTL(o.resultTTL),
		)
	}
	if o.calc == nil {
		o.calc = cost.NewCalculator(cost.DefaultRates())
	}
	o.metrics.WatchCache(o.results)
	return o
}

// request holds the per-call options.
type request struct {
	debug    bool
	topN     int
	useCache bool
	trust    signals.Provider
	vetting  signals.Provider
}

// RequestOption configures one Recommend call.
type RequestOption func(*request)

// WithDebug attaches the debug block to the result.
func WithDebug(on bool) RequestOption {
	return func(r *request) { r.debug = on }
}

// WithTopN sets how many recommendations to return.
func WithTopN(n int) RequestOption {
	return func(r *request) {
		if n > 0 {
			r.topN = n
		}
	}
}

// WithoutCache bypasses the result cache for lookup and store.
func WithoutCache() RequestOption {
	return func(r *request) { r.useCache = false }
}

// WithTrustProvider overrides the trust provider for this call.
func WithTrustProvider(p signals.Provider) RequestOption {
	return func(r *request) { r.trust = p }
}

// WithVettingProvider overrides the vetting provider for this call.
func WithVettingProvider(p signals.Provider) RequestOption {
	return func(r *request) { r.vetting = p }
}

// Recommend returns ranked, enriched organizations for article. The only
// error for a well-formed article is ErrEmptyArticle; directory and provider
// failures shrink the result and are noted in the debug block.
//
// The pipeline does not observe ctx cancellation. If the caller gives up,
// the run still finishes in the background and its result is cached.
func (o *Orchestrator) Recommend(ctx context.Context, article model.ArticleContext, opts ...RequestOption) (*Result, error) {
	start := time.Now()
	req := request{topN: DefaultTopN, useCache: true, trust: o.trust, vetting: o.vetting}
	for _, opt := range opts {
		opt(&req)
	}

	if article.IsEmpty() {
		o.metrics.IncRecommendations(metrics.OutcomeError)
		return nil, ErrEmptyArticle
	}

	key := CacheKey(article, req.topN)
	if req.useCache {
		if cached, ok := o.results.Get(key); ok {
			o.metrics.IncRecommendations(metrics.OutcomeCacheHit)
			return o.fromCache(cached, key, req.debug, start), nil
		}
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := o.run(context.WithoutCancel(ctx), article, req, key, start)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("recommend: caller gave up, run continues in background: %w", ctx.Err())
	}
}

// fromCache refreshes the debug block of a cached result. The payload is
// copied, never modified.
func (o *Orchestrator) fromCache(cached *Result, key string, debug bool, start time.Time) *Result {
	out := cached.clone()
	if !debug {
		out.Debug = nil
		return out
	}
	if out.Debug == nil {
		out.Debug = &Debug{}
	}
	out.Debug.RequestID = uuid.NewString()
	out.Debug.CacheHit = true
	out.Debug.CacheKey = key
	out.Debug.APICalls = 0
	out.Debug.APICacheHits = 0
	out.Debug.EstimatedCost = 0
	out.Debug.CacheStats = o.cacheStats()
	out.Debug.ElapsedMs = time.Since(start).Milliseconds()
	return out
}

func (o *Orchestrator) run(ctx context.Context, article model.ArticleContext, req request, key string, start time.Time) (*Result, error) {
	requestID := uuid.NewString()
	log := zap.L().With(zap.String("request_id", requestID))
	tracker := cost.NewTracker()
	ctx = cost.WithTracker(ctx, tracker)

	res := &Result{Nonprofits: []model.EnrichedNonprofit{}}
	dbg := &Debug{RequestID: requestID, CacheKey: key, GeoTierCounts: map[model.GeoTier]int{}}

	// Generate.
	stageStart := time.Now()
	gen, err := o.generator.Generate(ctx, article)
	allFailed := errors.Is(err, candidate.ErrAllCallsFailed)
	if err != nil && !allFailed {
		o.metrics.IncRecommendations(metrics.OutcomeError)
		return nil, eris.Wrap(err, "recommend: generate candidates")
	}
	o.metrics.ObserveStage("generate", time.Since(stageStart).Seconds())

	dbg.CausesUsed = gen.Meta.CausesUsed
	dbg.SearchTermsUsed = gen.Meta.SearchTermsUsed
	dbg.RawCount = gen.Meta.CandidateCount
	dbg.CandidateCount = len(gen.Candidates)
	switch {
	case allFailed:
		dbg.Degradations = append(dbg.Degradations, "every directory call failed; no candidates were retrieved")
	case gen.Meta.Degraded():
		dbg.Degradations = append(dbg.Degradations,
			fmt.Sprintf("%d of %d directory calls failed; candidate pool is partial", gen.Meta.FailedCalls, gen.Meta.Calls))
	}
	if req.trust == nil {
		dbg.Degradations = append(dbg.Degradations, "no trust provider configured; trust scores unavailable")
	}
	if req.vetting == nil {
		dbg.Degradations = append(dbg.Degradations, "no vetting provider configured; vetting used profile completeness checks")
	}

	if len(gen.Candidates) > 0 {
		// Rerank.
		stageStart = time.Now()
		rr := o.reranker.Rerank(ctx, rerank.Input{
			Candidates: gen.Candidates,
			Entities:   article.Entities,
			Causes:     article.Causes,
			Keywords:   article.Keywords,
			Text:       article.Text(),
			Trust:      req.trust,
			Vetting:    req.vetting,
			Limit:      req.topN,
		})
		o.metrics.ObserveStage("rerank", time.Since(stageStart).Seconds())
		o.metrics.AddExcluded("geo", rr.Excluded.Geo)
		o.metrics.AddExcluded("cause", rr.Excluded.Cause)
		o.metrics.AddExcluded("vetting", rr.Excluded.Vetting)
		o.metrics.AddExcluded("diversity", rr.Excluded.Diversity)

		dbg.GeoTierCounts = rr.GeoTierCounts
		dbg.Excluded = rr.Excluded
		dbg.TrustCoverage = rr.TrustCoverage
		dbg.SurvivorCount = rr.SurvivorCount
		res.TotalFound = rr.SurvivorCount

		if len(rr.Ranked) > 0 {
			// Enrich.
			stageStart = time.Now()
			er := o.enricher.Enrich(ctx, rr.Ranked, req.topN)
			o.metrics.ObserveStage("enrich", time.Since(stageStart).Seconds())
			o.metrics.AddEnrichments("ok", er.EnrichmentCount)
			o.metrics.AddEnrichments("failed", er.FailedCount)

			res.Nonprofits = er.Items
			dbg.EnrichmentCount = er.EnrichmentCount
			dbg.FailedCount = er.FailedCount
			if er.FailedCount > 0 {
				dbg.Degradations = append(dbg.Degradations,
					fmt.Sprintf("%d of %d profiles could not be enriched", er.FailedCount, len(er.Items)))
			}
		}
	}

	usage := tracker.Usage()
	dbg.APICalls = usage.Calls()
	dbg.APICacheHits = usage.CacheHits
	dbg.EstimatedCost = o.calc.Estimate(usage)
	dbg.ElapsedMs = time.Since(start).Milliseconds()
	res.Debug = dbg

	if req.useCache && !allFailed {
		o.results.Set(key, res.clone(), o.resultTTL)
	}
	dbg.CacheStats = o.cacheStats()

	switch {
	case allFailed || gen.Meta.Degraded():
		o.metrics.IncRecommendations(metrics.OutcomeDegraded)
	case len(res.Nonprofits) == 0:
		o.metrics.IncRecommendations(metrics.OutcomeEmpty)
	default:
		o.metrics.IncRecommendations(metrics.OutcomeComputed)
	}

	log.Info("recommendation complete",
		zap.Int("candidates", dbg.CandidateCount),
		zap.Int("survivors", dbg.SurvivorCount),
		zap.Int("returned", len(res.Nonprofits)),
		zap.Int("api_calls", dbg.APICalls),
		zap.Int64("elapsed_ms", dbg.ElapsedMs),
	)

	if !req.debug {
		res.Debug = nil
	}
	return res, nil
}

// CacheStats reports the result cache followed by any registered caches.
func (o *Orchestrator) CacheStats() []cache.Stats {
	return o.cacheStats()
}

func (o *Orchestrator) cacheStats() []cache.Stats {
	out := []cache.Stats{o.results.Stats()}
	for _, r := range o.stats {
		out = append(out, r.CacheStats()...)
	}
	return out
}

// ClearCache empties the result cache.
func (o *Orchestrator) ClearCache() {
	o.results.Clear()
}
