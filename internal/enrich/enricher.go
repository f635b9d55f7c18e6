// Package enrich fetches full directory profiles for the top of a ranked
// list.
package enrich

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/pkg/everyorg"
)

// Defaults for the enricher.
const (
	DefaultTopN        = 20
	DefaultConcurrency = 5
)

const profileBaseURL = "https://www.every.org/"

// Detailer fetches one full profile.
type Detailer interface {
	Details(ctx context.Context, slug string) (*everyorg.Details, error)
}

// Result is an enriched list and its accounting.
type Result struct {
	Items           []model.EnrichedNonprofit
	EnrichmentCount int
	FailedCount     int
}

// Enricher attaches profile details to ranked candidates.
type Enricher struct {
	dir         Detailer
	concurrency int
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithConcurrency bounds concurrent detail fetches.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an Enricher.
func New(dir Detailer, opts ...Option) *Enricher {
	e := &Enricher{dir: dir, concurrency: DefaultConcurrency}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich fetches details for the first topN items of ranked, keeping order.
// Items past topN are dropped. A failed fetch marks only that item.
func (e *Enricher) Enrich(ctx context.Context, ranked []model.NonprofitRanked, topN int) *Result {
	if topN <= 0 {
		topN = DefaultTopN
	}
	n := min(topN, len(ranked))
	res := &Result{Items: make([]model.EnrichedNonprofit, n)}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range n {
		res.Items[i].NonprofitRanked = ranked[i]
		g.Go(func() error {
			e.enrichOne(ctx, &res.Items[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, it := range res.Items {
		if it.Enriched {
			res.EnrichmentCount++
		} else {
			res.FailedCount++
		}
	}
	zap.L().Debug("enriched",
		zap.String("stage", "enrich"),
		zap.Int("requested", n),
		zap.Int("enriched", res.EnrichmentCount),
		zap.Int("failed", res.FailedCount),
	)
	return res
}

func (e *Enricher) enrichOne(ctx context.Context, item *model.EnrichedNonprofit) {
	d, err := e.dir.Details(ctx, item.Slug)
	switch {
	case errors.Is(err, everyorg.ErrNotFound):
		item.EnrichmentError = "not found"
		return
	case err != nil:
		item.EnrichmentError = err.Error()
		zap.L().Warn("enrich: detail fetch failed",
			zap.String("slug", item.Slug),
			zap.Error(err),
		)
		return
	case d == nil:
		item.EnrichmentError = "empty profile"
		return
	}
	item.Detail = ToDetail(item.Slug, d)
	item.Enriched = true
}

// ToDetail maps a directory profile onto the pipeline's detail record.
func ToDetail(slug string, d *everyorg.Details) *model.ProfileDetail {
	city, state, country := d.Locality()
	profileURL := strings.TrimSpace(d.Nonprofit.ProfileURL)
	if profileURL == "" {
		s := d.Nonprofit.PrimarySlug
		if s == "" {
			s = slug
		}
		profileURL = profileBaseURL + s
	}
	return &model.ProfileDetail{
		LocationAddress: d.Nonprofit.LocationAddress,
		City:            city,
		State:           state,
		Country:         country,
		Categories:      d.TagNames(),
		IsDisbursable:   d.Nonprofit.IsDisbursable,
		ProfileURL:      profileURL,
		NTEECode:        d.Nonprofit.NTEECode,
		NTEEMeaning:     d.Nonprofit.NTEEMeaning.String(),
		DescriptionLong: d.Nonprofit.DescriptionLong,
	}
}
