package recommend

import (
	"maps"
	"slices"

	"github.com/sells-group/relief-match/internal/cache"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/rerank"
)

// Result is the answer to one Recommend call.
type Result struct {
	Nonprofits []model.EnrichedNonprofit `json:"nonprofits"`
	// TotalFound counts every candidate that survived ranking, including
	// those cut by the result size.
	TotalFound int    `json:"total_found"`
	Debug      *Debug `json:"debug,omitempty"`
}

// Debug is the telemetry block returned when debug output is requested.
type Debug struct {
	RequestID       string                `json:"request_id"`
	CacheHit        bool                  `json:"cache_hit"`
	CacheKey        string                `json:"cache_key,omitempty"`
	CausesUsed      []string              `json:"causes_used"`
	SearchTermsUsed []string              `json:"search_terms_used"`
	CandidateCount  int                   `json:"candidate_count"`
	RawCount        int                   `json:"raw_candidate_count"`
	SurvivorCount   int                   `json:"survivor_count"`
	GeoTierCounts   map[model.GeoTier]int `json:"geo_tier_counts"`
	Excluded        rerank.ExcludedCounts `json:"excluded_counts"`
	TrustCoverage   float64               `json:"trust_coverage"`
	EnrichmentCount int                   `json:"enrichment_count"`
	FailedCount     int                   `json:"enrichment_failed_count"`
	APICalls        int                   `json:"api_calls"`
	APICacheHits    int                   `json:"api_cache_hits"`
	EstimatedCost   float64               `json:"estimated_cost_usd"`
	Degradations    []string              `json:"degradations,omitempty"`
	CacheStats      []cache.Stats         `json:"cache_stats"`
	ElapsedMs       int64                 `json:"elapsed_ms"`
}

// clone copies r deeply enough that callers cannot mutate a cached payload.
func (r *Result) clone() *Result {
	out := &Result{
		Nonprofits: make([]model.EnrichedNonprofit, len(r.Nonprofits)),
		TotalFound: r.TotalFound,
	}
	copy(out.Nonprofits, r.Nonprofits)
	for i := range out.Nonprofits {
		n := &out.Nonprofits[i]
		n.Reasons = slices.Clone(n.Reasons)
		n.Causes = slices.Clone(n.Causes)
		n.OperatingCountries = slices.Clone(n.OperatingCountries)
		n.AddressedNeeds = slices.Clone(n.AddressedNeeds)
		n.TrustScore = clonePtr(n.TrustScore)
		n.Global = clonePtr(n.Global)
		n.Flexibility = clonePtr(n.Flexibility)
		if n.Detail != nil {
			d := *n.Detail
			d.Categories = slices.Clone(d.Categories)
			n.Detail = &d
		}
	}
	if r.Debug != nil {
		d := *r.Debug
		d.CausesUsed = slices.Clone(d.CausesUsed)
		d.SearchTermsUsed = slices.Clone(d.SearchTermsUsed)
		d.Degradations = slices.Clone(d.Degradations)
		d.GeoTierCounts = maps.Clone(d.GeoTierCounts)
		d.CacheStats = slices.Clone(d.CacheStats)
		out.Debug = &d
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
