// Package resilience wraps calls to the nonprofit directory with error
// classification, retry with backoff, a circuit breaker and an adaptive rate
// limit.
package resilience

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState is the state of one breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a breaker rejects a call without making it.
var ErrCircuitOpen = eris.New("resilience: circuit breaker is open")

// BreakerConfig controls when a breaker opens and how long it stays open.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures that
	// opens the breaker.
	FailureThreshold int

	// Cooldown is how long an open breaker rejects calls before letting a
	// single probe through.
	Cooldown time.Duration
}

// DefaultBreakerConfig opens after 5 transient failures for 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Cooldown: 30 * time.Second}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultBreakerConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	return c
}

// Breaker guards one directory operation. Only transient failures count
// toward the threshold: a 404 or a 429 says nothing about whether the
// service is up.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker creates a closed breaker. name labels its log lines.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	return &Breaker{name: name, cfg: cfg.withDefaults(), now: time.Now}
}

// Guard runs fn unless b is open. While half-open only one probe runs at a
// time; concurrent callers are rejected until it reports back.
func Guard[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	if !b.admit() {
		var zero T
		return zero, ErrCircuitOpen
	}
	v, err := fn(ctx)
	b.record(err)
	return v, err
}

// State reports the current state. An open breaker whose cooldown has
// elapsed reads as half-open.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitOpen && b.cooled() {
		return CircuitHalfOpen
	}
	return b.state
}

func (b *Breaker) cooled() bool {
	return b.now().Sub(b.openedAt) >= b.cfg.Cooldown
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen && b.cooled() {
		b.moveTo(CircuitHalfOpen)
	}
	switch b.state {
	case CircuitOpen:
		return false
	case CircuitHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.state == CircuitHalfOpen
	b.probing = false

	if err == nil || !Retryable(err) {
		b.failures = 0
		if wasProbe {
			b.moveTo(CircuitClosed)
		}
		return
	}

	b.failures++
	if wasProbe || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		b.moveTo(CircuitOpen)
	}
}

func (b *Breaker) moveTo(to CircuitState) {
	if b.state == to {
		return
	}
	zap.L().Info("directory circuit state change",
		zap.String("operation", b.name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
		zap.Int("consecutive_failures", b.failures),
	)
	b.state = to
}

// Breakers holds one breaker per directory operation, so a failing detail
// endpoint does not block search.
type Breakers struct {
	cfg BreakerConfig

	mu sync.Mutex
	m  map[string]*Breaker
}

// NewBreakers creates an empty registry; breakers are made on first use.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, m: make(map[string]*Breaker)}
}

// For returns the breaker for op.
func (bs *Breakers) For(op string) *Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.m[op]
	if !ok {
		b = NewBreaker(op, bs.cfg)
		bs.m[op] = b
	}
	return b
}

// States reports every breaker's state by operation.
func (bs *Breakers) States() map[string]string {
	bs.mu.Lock()
	snapshot := maps.Clone(bs.m)
	bs.mu.Unlock()

	out := make(map[string]string, len(snapshot))
	for op, b := range snapshot {
		out[op] = b.State().String()
	}
	return out
}
