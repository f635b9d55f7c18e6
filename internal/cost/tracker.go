package cost

import (
	"context"
	"sync"
)

// Tracker accumulates usage. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	usage Usage
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record counts one upstream call to op.
func (t *Tracker) Record(op Op) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch op {
	case OpSearch:
		t.usage.Search++
	case OpBrowse:
		t.usage.Browse++
	case OpDetails:
		t.usage.Details++
	}
}

// RecordCacheHit counts a call answered from cache.
func (t *Tracker) RecordCacheHit() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.CacheHits++
}

// Usage returns a snapshot of the counters.
func (t *Tracker) Usage() Usage {
	if t == nil {
		return Usage{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

type trackerKey struct{}

// WithTracker returns a context carrying t. Directory calls made with the
// context are recorded on it as well as on the process-wide tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// FromContext returns the tracker carried by ctx, or nil. A nil tracker
// ignores records.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
