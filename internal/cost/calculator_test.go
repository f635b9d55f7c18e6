package cost

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{Directory: DirectoryRate{PerSearch: 0.01, PerBrowse: 0.02, PerDetail: 0.005}}
}

func TestCalculator_Call(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		op   Op
		want float64
	}{
		{OpSearch, 0.01},
		{OpBrowse, 0.02},
		{OpDetails, 0.005},
		{Op("unknown"), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Call(tt.op), 1e-9)
		})
	}
}

func TestCalculator_Estimate(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	u := Usage{Search: 3, Browse: 2, Details: 10, CacheHits: 7}
	// 3*0.01 + 2*0.02 + 10*0.005; cache hits are free.
	assert.InDelta(t, 0.12, calc.Estimate(u), 1e-9)
	assert.Equal(t, 15, u.Calls())
	assert.Zero(t, calc.Estimate(Usage{}))
}

func TestUsage_Add(t *testing.T) {
	t.Parallel()
	got := Usage{Search: 1, CacheHits: 2}.Add(Usage{Search: 1, Browse: 1, Details: 3})
	assert.Equal(t, Usage{Search: 2, Browse: 1, Details: 3, CacheHits: 2}, got)
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.Greater(t, r.Directory.PerSearch, 0.0)
	assert.Greater(t, r.Directory.PerBrowse, 0.0)
	assert.Greater(t, r.Directory.PerDetail, 0.0)
}

func TestTracker(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(OpSearch)
			tr.Record(OpDetails)
			tr.RecordCacheHit()
		}()
	}
	wg.Wait()
	tr.Record(OpBrowse)

	assert.Equal(t, Usage{Search: 20, Browse: 1, Details: 20, CacheHits: 20}, tr.Usage())
}

func TestTracker_Context(t *testing.T) {
	t.Parallel()
	assert.Nil(t, FromContext(context.Background()))

	var nilTracker *Tracker
	nilTracker.Record(OpSearch)
	nilTracker.RecordCacheHit()
	assert.Equal(t, Usage{}, nilTracker.Usage())

	tr := NewTracker()
	ctx := WithTracker(context.Background(), tr)
	FromContext(ctx).Record(OpBrowse)
	FromContext(context.WithoutCancel(ctx)).Record(OpBrowse)
	assert.Equal(t, 2, tr.Usage().Browse)
}
