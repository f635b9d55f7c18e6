package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relief-match/internal/cache"
	"github.com/sells-group/relief-match/internal/candidate"
	"github.com/sells-group/relief-match/internal/config"
	"github.com/sells-group/relief-match/internal/cost"
	"github.com/sells-group/relief-match/internal/directory"
	"github.com/sells-group/relief-match/internal/enrich"
	"github.com/sells-group/relief-match/internal/metrics"
	"github.com/sells-group/relief-match/internal/recommend"
	"github.com/sells-group/relief-match/internal/rerank"
	"github.com/sells-group/relief-match/internal/resilience"
	"github.com/sells-group/relief-match/internal/signals"
	"github.com/sells-group/relief-match/pkg/everyorg"
)

// pipelineEnv holds the directory gateway, the orchestrator and the metrics
// needed by the recommend and serve commands.
type pipelineEnv struct {
	Gateway      *directory.Gateway
	Orchestrator *recommend.Orchestrator
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	Signals      signals.Provider // may be nil
}

// initPipeline validates cfg for mode and builds the pipeline. signalsFile
// overrides the configured signals file when non-empty.
func initPipeline(c *config.Config, mode, signalsFile string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}
	return buildPipeline(c, everyorg.NewClient(c.Directory.Key, everyorg.WithBaseURL(c.Directory.BaseURL)), signalsFile)
}

// buildPipeline wires every component over client.
func buildPipeline(c *config.Config, client everyorg.Client, signalsFile string) (*pipelineEnv, error) {
	env := &pipelineEnv{
		Metrics:  metrics.NewMetrics(),
		Registry: prometheus.NewRegistry(),
	}
	if err := env.Metrics.Register(env.Registry); err != nil {
		return nil, eris.Wrap(err, "register metrics")
	}

	calc := cost.NewCalculator(c.Pricing)
	env.Gateway = directory.New(client, gatewayConfig(c),
		directory.WithMetrics(env.Metrics),
		directory.WithCalculator(calc),
	)

	if signalsFile == "" {
		signalsFile = c.Signals.File
	}
	if signalsFile != "" {
		static, err := signals.LoadStaticFile(signalsFile)
		if err != nil {
			return nil, err
		}
		cached := signals.NewCached(static, c.Cache.SignalsSize, time.Duration(c.Cache.ResultTTLMins)*time.Minute)
		env.Metrics.WatchCache(cached)
		env.Signals = cached
		zap.L().Info("signals provider loaded",
			zap.String("file", signalsFile),
			zap.Int("organizations", static.Len()),
		)
	} else {
		zap.L().Debug("no signals file configured, trust and vetting fall back to heuristics")
	}

	ttl := time.Duration(c.Cache.ResultTTLMins) * time.Minute
	results := cache.New[*recommend.Result]("results",
		cache.WithMaxSize(c.Cache.ResultSize),
		cache.WithDefaultTTL(ttl),
	)

	env.Orchestrator = recommend.New(env.Gateway,
		recommend.WithGenerator(candidate.New(env.Gateway, nil,
			candidate.WithPoolCap(c.Pipeline.PoolCap),
			candidate.WithConcurrency(c.Pipeline.GenerateConcurrency),
		)),
		recommend.WithReranker(rerank.New(nil,
			rerank.WithDiversityCap(c.Pipeline.DiversityCap),
			rerank.WithLookupConcurrency(c.Pipeline.LookupConcurrency),
			rerank.WithLookupTimeout(time.Duration(c.Pipeline.LookupTimeoutSecs)*time.Second),
		)),
		recommend.WithEnricher(enrich.New(env.Gateway, enrich.WithConcurrency(c.Pipeline.EnrichConcurrency))),
		recommend.WithResultCache(results, ttl),
		recommend.WithCalculator(calc),
		recommend.WithMetrics(env.Metrics),
		recommend.WithStatsReporter(env.Gateway),
		recommend.WithProviders(env.Signals, env.Signals),
	)
	return env, nil
}

func gatewayConfig(c *config.Config) directory.Config {
	return directory.Config{
		Timeout:       time.Duration(c.Directory.TimeoutSecs) * time.Second,
		SearchTake:    c.Directory.SearchTake,
		BrowseTake:    c.Directory.BrowseTake,
		RatePerSecond: c.Directory.RatePerSecond,
		Burst:         c.Directory.Burst,
		ListTTL:       time.Duration(c.Cache.ListTTLHours) * time.Hour,
		DetailTTL:     time.Duration(c.Cache.DetailTTLHours) * time.Hour,
		CacheSize:     c.Cache.DirectorySize,
		Retry:         resilience.FromRetryConfig(c.Retry),
		Circuit:       resilience.FromCircuitConfig(c.Circuit),
	}
}
