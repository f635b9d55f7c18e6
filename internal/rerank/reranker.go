// Package rerank orders a candidate pool by policy: geography first, cause
// second, trust as a tiebreaker, with vetting as a hard gate. Every surfaced
// organization carries the reasons it was placed where it is.
package rerank

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/relief-match/internal/geo"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/signals"
)

// Defaults for the reranker.
const (
	DefaultDiversityCap      = 2
	DefaultLookupConcurrency = 8
	DefaultLookupTimeout     = 10 * time.Second
)

// Input is one reranking request.
type Input struct {
	Candidates []model.NonprofitCandidate
	Entities   model.Entities
	Causes     []string
	Keywords   []string
	// Text is the article text, used to infer a primary cause when Causes
	// is empty.
	Text    string
	Trust   signals.Provider
	Vetting signals.Provider
	// Limit caps the returned list; zero means no cap.
	Limit int
}

// ExcludedCounts tallies candidates removed by each gate.
type ExcludedCounts struct {
	Geo       int `json:"geo"`
	Cause     int `json:"cause"`
	Vetting   int `json:"vetting"`
	Diversity int `json:"diversity"`
}

// Result is a ranked list with its accounting.
type Result struct {
	Ranked        []model.NonprofitRanked `json:"ranked"`
	GeoTierCounts map[model.GeoTier]int   `json:"geo_tier_counts"`
	Excluded      ExcludedCounts          `json:"excluded"`
	// TrustCoverage is the percent of returned candidates with a trust score.
	TrustCoverage float64 `json:"trust_coverage"`
	// SurvivorCount is the number of candidates left after every gate and
	// the diversity cap, before Limit.
	SurvivorCount int `json:"survivor_count"`
}

// Reranker applies the ranking policy. It is safe for concurrent use.
type Reranker struct {
	kb                *geo.KnowledgeBase
	diversityCap      int
	lookupConcurrency int
	lookupTimeout     time.Duration
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithDiversityCap sets how many organizations of one NTEE category may be
// surfaced. Zero or negative disables the cap.
func WithDiversityCap(n int) Option {
	return func(r *Reranker) { r.diversityCap = n }
}

// WithLookupConcurrency bounds concurrent provider lookups.
func WithLookupConcurrency(n int) Option {
	return func(r *Reranker) {
		if n > 0 {
			r.lookupConcurrency = n
		}
	}
}

// WithLookupTimeout sets the per-lookup timeout.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Reranker) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

// New creates a Reranker. A nil kb uses the embedded tables.
func New(kb *geo.KnowledgeBase, opts ...Option) *Reranker {
	if kb == nil {
		kb = geo.Default()
	}
	r := &Reranker{
		kb:                kb,
		diversityCap:      DefaultDiversityCap,
		lookupConcurrency: DefaultLookupConcurrency,
		lookupTimeout:     DefaultLookupTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// gated is a candidate that passed the geo and cause gates.
type gated struct {
	ranked
	geoReason   string
	causeReason string
}

// Rerank gates, scores, sorts and trims in. Provider failures degrade the
// affected candidate to "unknown"; they never fail the call.
func (r *Reranker) Rerank(ctx context.Context, in Input) *Result {
	log := zap.L().With(zap.String("stage", "rerank"))
	res := &Result{GeoTierCounts: make(map[model.GeoTier]int, 5)}

	cr := resolveCrisis(r.kb, in.Entities.Geography)
	cc := resolveCauses(in.Causes, in.Text, in.Entities, in.Keywords)

	var pass []gated
	for i, c := range in.Candidates {
		p := buildProfile(r.kb, c)
		tier, geoReason := geoTier(r.kb, cr, p)
		res.GeoTierCounts[tier]++
		if tier == model.GeoTierExcluded {
			res.Excluded.Geo++
			continue
		}
		level, causeReason := causeLevel(cc, p)
		if level == model.CauseLevelNone {
			res.Excluded.Cause++
			continue
		}
		g := gated{geoReason: geoReason, causeReason: causeReason}
		g.index = i
		g.NonprofitCandidate = c
		g.GeoTier = tier
		g.CauseMatchLevel = level
		g.Category = category(c.NTEECode)
		pass = append(pass, g)
	}

	trust, vetting := r.lookup(ctx, in, pass)

	survivors := make([]ranked, 0, len(pass))
	for i := range pass {
		g := &pass[i]
		d := vet(g.NonprofitCandidate, vetting[i])
		if !d.pass {
			res.Excluded.Vetting++
			continue
		}
		g.VettedStatus = d.status
		g.Reasons = []string{g.geoReason, g.causeReason}
		t := trust[i]
		if _, ok := t.TrustScore(); !ok {
			// A vetting provider may carry a score too.
			t = vetting[i]
		}
		if s, ok := t.TrustScore(); ok {
			g.TrustScore = &s
			g.Reasons = append(g.Reasons, trustReason(s, t))
		}
		if d.reason != "" {
			g.Reasons = append(g.Reasons, d.reason)
		}
		g.SignalSource = signalSource(t, vetting[i])
		score(&g.NonprofitRanked)
		survivors = append(survivors, g.ranked)
	}

	slices.SortStableFunc(survivors, compareRanked)
	survivors = r.diversify(survivors, &res.Excluded)
	res.SurvivorCount = len(survivors)

	if in.Limit > 0 && len(survivors) > in.Limit {
		survivors = survivors[:in.Limit]
	}
	res.Ranked = make([]model.NonprofitRanked, len(survivors))
	withTrust := 0
	for i, s := range survivors {
		res.Ranked[i] = s.NonprofitRanked
		if s.TrustScore != nil {
			withTrust++
		}
	}
	if len(res.Ranked) > 0 {
		res.TrustCoverage = 100 * float64(withTrust) / float64(len(res.Ranked))
	}

	log.Debug("reranked",
		zap.Int("pool", len(in.Candidates)),
		zap.Int("survivors", res.SurvivorCount),
		zap.Int("excluded_geo", res.Excluded.Geo),
		zap.Int("excluded_cause", res.Excluded.Cause),
		zap.Int("excluded_vetting", res.Excluded.Vetting),
		zap.Int("excluded_diversity", res.Excluded.Diversity),
	)
	return res
}

// lookup resolves trust and vetting signals for every gated candidate, at
// most lookupConcurrency at a time.
func (r *Reranker) lookup(ctx context.Context, in Input, pass []gated) (trust, vetting []signals.Outcome) {
	trust = make([]signals.Outcome, len(pass))
	vetting = make([]signals.Outcome, len(pass))
	if in.Trust == nil && in.Vetting == nil {
		return trust, vetting
	}

	resolve := func(p signals.Provider, c model.NonprofitCandidate) signals.Outcome {
		if p == nil {
			return signals.Outcome{Kind: signals.Absent}
		}
		lctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
		defer cancel()
		o := signals.Resolve(lctx, p, c)
		if o.Kind == signals.Errored {
			zap.L().Warn("signal lookup failed, treating as unknown",
				zap.String("slug", c.Slug),
				zap.Error(o.Err),
			)
		}
		return o
	}

	var eg errgroup.Group
	eg.SetLimit(r.lookupConcurrency)
	for i := range pass {
		c := pass[i].NonprofitCandidate
		eg.Go(func() error {
			trust[i] = resolve(in.Trust, c)
			vetting[i] = resolve(in.Vetting, c)
			return nil
		})
	}
	_ = eg.Wait()
	return trust, vetting
}

func (r *Reranker) diversify(in []ranked, ex *ExcludedCounts) []ranked {
	if r.diversityCap <= 0 {
		return in
	}
	counts := make(map[string]int)
	out := in[:0]
	for _, c := range in {
		if c.Category != "" {
			if counts[c.Category] >= r.diversityCap {
				ex.Diversity++
				continue
			}
			counts[c.Category]++
		}
		out = append(out, c)
	}
	return out
}
