package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/pkg/everyorg"
)

type fakeDetailer struct {
	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	errs     map[string]error
}

func (f *fakeDetailer) Details(_ context.Context, slug string) (*everyorg.Details, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, slug)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[slug]; err != nil {
		return nil, err
	}
	return &everyorg.Details{
		Nonprofit: everyorg.DetailNonprofit{
			PrimarySlug:     slug,
			LocationAddress: "Santa Barbara, CA",
			IsDisbursable:   true,
			NTEECode:        "M20",
			NTEEMeaning:     everyorg.NTEEMeaning{MajorMeaning: "Public Safety", DecileMeaning: "Disaster Preparedness"},
			DescriptionLong: "Long description of " + slug,
		},
		Tags: []everyorg.Tag{{TagName: "disasters"}, {TagName: "health"}},
	}, nil
}

func rankedList(n int) []model.NonprofitRanked {
	out := make([]model.NonprofitRanked, n)
	for i := range out {
		out[i].Slug = fmt.Sprintf("org-%02d", i)
	}
	return out
}

func TestEnrich_AllSucceed(t *testing.T) {
	f := &fakeDetailer{}
	res := New(f).Enrich(context.Background(), rankedList(3), 10)

	require.Len(t, res.Items, 3)
	assert.Equal(t, 3, res.EnrichmentCount)
	assert.Zero(t, res.FailedCount)

	it := res.Items[1]
	assert.Equal(t, "org-01", it.Slug)
	assert.True(t, it.Enriched)
	require.NotNil(t, it.Detail)
	assert.Equal(t, "Santa Barbara", it.Detail.City)
	assert.Equal(t, "CA", it.Detail.State)
	assert.Equal(t, "US", it.Detail.Country)
	assert.Equal(t, []string{"disasters", "health"}, it.Detail.Categories)
	assert.True(t, it.Detail.IsDisbursable)
	assert.Equal(t, "https://www.every.org/org-01", it.Detail.ProfileURL)
	assert.Equal(t, "Public Safety / Disaster Preparedness", it.Detail.NTEEMeaning)
}

func TestEnrich_TopNTruncates(t *testing.T) {
	f := &fakeDetailer{}
	res := New(f).Enrich(context.Background(), rankedList(30), 0)

	assert.Len(t, res.Items, DefaultTopN)
	assert.Len(t, f.calls, DefaultTopN)
	assert.NotContains(t, f.calls, "org-25")
	for i, it := range res.Items {
		assert.Equal(t, fmt.Sprintf("org-%02d", i), it.Slug)
	}
}

func TestEnrich_FailuresIsolated(t *testing.T) {
	f := &fakeDetailer{errs: map[string]error{
		"org-00": fmt.Errorf("directory: %w", &everyorg.APIError{StatusCode: 404}),
		"org-02": errors.New("connection reset by peer"),
	}}
	res := New(f).Enrich(context.Background(), rankedList(4), 10)

	assert.Equal(t, 2, res.EnrichmentCount)
	assert.Equal(t, 2, res.FailedCount)

	assert.False(t, res.Items[0].Enriched)
	assert.Equal(t, "not found", res.Items[0].EnrichmentError)
	assert.Nil(t, res.Items[0].Detail)

	assert.False(t, res.Items[2].Enriched)
	assert.Contains(t, res.Items[2].EnrichmentError, "connection reset")

	assert.True(t, res.Items[1].Enriched)
	assert.True(t, res.Items[3].Enriched)
}

func TestEnrich_ConcurrencyBound(t *testing.T) {
	f := &fakeDetailer{delay: 20 * time.Millisecond}
	res := New(f).Enrich(context.Background(), rankedList(15), 15)

	assert.Equal(t, 15, res.EnrichmentCount)
	assert.LessOrEqual(t, f.peak.Load(), int32(DefaultConcurrency))
}

func TestEnrich_Empty(t *testing.T) {
	res := New(&fakeDetailer{}).Enrich(context.Background(), nil, 10)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.EnrichmentCount)
	assert.Zero(t, res.FailedCount)
}

func TestToDetail_ProfileURL(t *testing.T) {
	d := &everyorg.Details{Nonprofit: everyorg.DetailNonprofit{
		ProfileURL:      "https://www.every.org/custom",
		LocationAddress: "Istanbul, Turkey",
	}}
	got := ToDetail("akut", d)
	assert.Equal(t, "https://www.every.org/custom", got.ProfileURL)
	assert.Equal(t, "Istanbul", got.City)
	assert.Equal(t, "Turkey", got.Country)
	assert.Empty(t, got.State)

	d.Nonprofit.ProfileURL = ""
	assert.Equal(t, "https://www.every.org/akut", ToDetail("akut", d).ProfileURL)
}
