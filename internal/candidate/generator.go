// Package candidate builds the raw pool of organizations for an article by
// fanning out browse and search calls to the nonprofit directory.
package candidate

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/relief-match/internal/directory"
	"github.com/sells-group/relief-match/internal/geo"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/taxonomy"
	"github.com/sells-group/relief-match/internal/textnorm"
	"github.com/sells-group/relief-match/pkg/everyorg"
)

// Defaults for the generator.
const (
	DefaultMaxCauses   = 3
	DefaultMaxTerms    = 5
	DefaultPoolCap     = 200
	DefaultConcurrency = 8
)

// fallbackTerms pad the search terms when the article yields fewer than the max.
var fallbackTerms = []string{"disaster relief", "emergency response"}

// ErrAllCallsFailed is returned when not a single directory call succeeded.
var ErrAllCallsFailed = eris.New("candidate: every directory call failed")

// Directory is the subset of the directory gateway the generator needs.
type Directory interface {
	Search(ctx context.Context, term string, causes []string) ([]everyorg.Nonprofit, error)
	Browse(ctx context.Context, cause string) ([]everyorg.Nonprofit, error)
}

// Metadata describes how a pool was built.
type Metadata struct {
	CausesUsed      []string `json:"causes_used"`
	SearchTermsUsed []string `json:"search_terms_used"`
	CandidateCount  int      `json:"candidate_count"` // before dedupe and cap
	Calls           int      `json:"calls"`
	FailedCalls     int      `json:"failed_calls"`
}

// Degraded reports whether some but not all calls failed.
func (m Metadata) Degraded() bool {
	return m.FailedCalls > 0 && m.FailedCalls < m.Calls
}

// Result is a deduplicated candidate pool.
type Result struct {
	Candidates []model.NonprofitCandidate
	Meta       Metadata
}

// Generator builds candidate pools.
type Generator struct {
	dir         Directory
	kb          *geo.KnowledgeBase
	maxCauses   int
	maxTerms    int
	poolCap     int
	concurrency int
}

// Option configures a Generator.
type Option func(*Generator)

// WithPoolCap overrides the maximum pool size.
func WithPoolCap(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.poolCap = n
		}
	}
}

// WithConcurrency overrides the number of directory calls in flight.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// New creates a generator. A nil kb uses the embedded tables.
func New(dir Directory, kb *geo.KnowledgeBase, opts ...Option) *Generator {
	if kb == nil {
		kb = geo.Default()
	}
	g := &Generator{
		dir:         dir,
		kb:          kb,
		maxCauses:   DefaultMaxCauses,
		maxTerms:    DefaultMaxTerms,
		poolCap:     DefaultPoolCap,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type call struct {
	browse bool
	arg    string
	hits   []everyorg.Nonprofit
	err    error
}

// Generate builds the pool for article. A failed call contributes nothing;
// only when every call fails does Generate return ErrAllCallsFailed, along
// with the metadata. An empty pool is not an error.
func (g *Generator) Generate(ctx context.Context, article model.ArticleContext) (*Result, error) {
	log := zap.L().With(zap.String("stage", "generate"))

	causes := g.SelectCauses(article)
	terms := g.SearchTerms(article)
	res := &Result{Meta: Metadata{CausesUsed: causes, SearchTermsUsed: terms}}

	calls := make([]*call, 0, len(causes)+len(terms))
	for _, c := range causes {
		calls = append(calls, &call{browse: true, arg: c})
	}
	for _, t := range terms {
		calls = append(calls, &call{arg: t})
	}
	res.Meta.Calls = len(calls)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, c := range calls {
		eg.Go(func() error {
			if c.browse {
				c.hits, c.err = g.dir.Browse(gctx, taxonomy.Tag(c.arg))
			} else {
				c.hits, c.err = g.dir.Search(gctx, c.arg, nil)
			}
			return nil // a failed call degrades the pool, it does not abort it
		})
	}
	_ = eg.Wait()

	seen := make(map[string]bool)
	for _, c := range calls {
		if c.err != nil {
			res.Meta.FailedCalls++
			log.Warn("directory call failed",
				zap.Bool("browse", c.browse),
				zap.String("arg", c.arg),
				zap.Error(c.err),
			)
			continue
		}
		res.Meta.CandidateCount += len(c.hits)
		for _, hit := range c.hits {
			if hit.Slug == "" || seen[hit.Slug] {
				continue
			}
			seen[hit.Slug] = true
			if len(res.Candidates) < g.poolCap {
				res.Candidates = append(res.Candidates, directory.ToCandidate(hit))
			}
		}
	}

	if res.Meta.Calls > 0 && res.Meta.FailedCalls == res.Meta.Calls {
		return res, ErrAllCallsFailed
	}

	log.Debug("candidate pool built",
		zap.Strings("causes", causes),
		zap.Strings("terms", terms),
		zap.Int("raw", res.Meta.CandidateCount),
		zap.Int("pool", len(res.Candidates)),
		zap.Int("failed_calls", res.Meta.FailedCalls),
	)
	return res, nil
}

// SelectCauses picks the causes to browse: the article's own causes first,
// then causes inferred from its text, capped at three.
func (g *Generator) SelectCauses(article model.ArticleContext) []string {
	out := make([]string, 0, g.maxCauses)
	add := func(id string) {
		if len(out) < g.maxCauses && taxonomy.IsCause(id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, c := range taxonomy.Normalize(article.Causes) {
		add(c)
	}
	for _, c := range taxonomy.Infer(article.Text() + "\n" + strings.Join(article.Keywords, "\n")) {
		add(c)
	}
	return out
}

// SearchTerms derives the free-text search terms: disaster type, then the
// country, region and city, then affected group. Generic fallbacks fill any
// room left under the cap.
func (g *Generator) SearchTerms(article model.ArticleContext) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(term string) {
		term = strings.TrimSpace(term)
		key := textnorm.Fold(term)
		if key == "" || seen[key] || len(out) >= g.maxTerms {
			return
		}
		seen[key] = true
		out = append(out, term)
	}

	e := article.Entities
	add(e.DisasterType)
	for _, t := range g.geographyTerms(e.Geography) {
		add(t)
	}
	add(e.AffectedGroup)
	for _, f := range fallbackTerms {
		add(f)
	}
	return out
}

// geographyTerms lists the country, region and city in that order. A country
// given as a code is spelled out so it matches directory text.
func (g *Generator) geographyTerms(geog model.Geography) []string {
	country := strings.TrimSpace(geog.Country)
	if name := g.kb.CountryName(country); name != "" {
		country = name
	}
	return []string{country, geog.Region, geog.City}
}
