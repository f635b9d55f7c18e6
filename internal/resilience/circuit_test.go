package resilience

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(b *Breaker, err error) error {
	_, got := Guard(context.Background(), b, func(context.Context) (struct{}, error) {
		return struct{}{}, err
	})
	return got
}

func failN(b *Breaker, n int, err error) {
	for range n {
		_ = call(b, err)
	}
}

// testBreaker returns a breaker on a controllable clock.
func testBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	now := time.Now()
	b := NewBreaker("search", BreakerConfig{FailureThreshold: threshold, Cooldown: cooldown})
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterTransientFailures(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)
	failN(b, 3, errServer)
	assert.Equal(t, CircuitOpen, b.State())

	called := false
	_, err := Guard(context.Background(), b, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	b, _ := testBreaker(2, time.Minute)
	failN(b, 5, statusErr{404})
	failN(b, 5, statusErr{429})
	failN(b, 5, statusErr{400})
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)
	failN(b, 2, errServer)
	require.NoError(t, call(b, nil))
	failN(b, 2, errServer)
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	b, now := testBreaker(1, 10*time.Second)
	failN(b, 1, errServer)
	assert.Equal(t, CircuitOpen, b.State())

	*now = now.Add(5 * time.Second)
	assert.ErrorIs(t, call(b, nil), ErrCircuitOpen)

	*now = now.Add(6 * time.Second)
	assert.Equal(t, CircuitHalfOpen, b.State())
	require.NoError(t, call(b, nil))
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, now := testBreaker(3, time.Second)
	failN(b, 3, errServer)

	*now = now.Add(2 * time.Second)
	failN(b, 1, errServer)
	assert.Equal(t, CircuitOpen, b.State())
	assert.ErrorIs(t, call(b, nil), ErrCircuitOpen)
}

func TestBreaker_SingleProbeInFlight(t *testing.T) {
	b, now := testBreaker(1, time.Second)
	failN(b, 1, errServer)
	*now = now.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Guard(context.Background(), b, func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- err
	}()
	<-started

	assert.ErrorIs(t, call(b, nil), ErrCircuitOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreaker_ConcurrentAccess(t *testing.T) {
	b := NewBreaker("details", BreakerConfig{FailureThreshold: 1000})
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = call(b, errServer)
				return
			}
			_ = call(b, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreakers(t *testing.T) {
	bs := NewBreakers(BreakerConfig{FailureThreshold: 1})
	search := bs.For("search")
	assert.Same(t, search, bs.For("search"))
	assert.NotSame(t, search, bs.For("details"))

	failN(search, 1, errServer)
	assert.Equal(t, map[string]string{"search": "open", "details": "closed"}, bs.States())
}

func TestBreakerConfig_Defaults(t *testing.T) {
	b := NewBreaker("browse", BreakerConfig{})
	assert.Equal(t, DefaultBreakerConfig(), b.cfg)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
