// Package signals resolves trust and vetting signals for candidates from
// pluggable providers. A provider can have nothing to say, fail, or answer;
// callers see those as three distinct outcomes and never a made-up default.
package signals

import (
	"context"
	"errors"

	"github.com/sells-group/relief-match/internal/model"
)

// ErrNotCovered is returned by a provider that has no record of a candidate.
var ErrNotCovered = errors.New("signals: candidate not covered")

// Provider looks up trust/vetting signals for one candidate.
type Provider interface {
	Lookup(ctx context.Context, c model.NonprofitCandidate) (model.TrustVettingSignals, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, c model.NonprofitCandidate) (model.TrustVettingSignals, error)

// Lookup calls f.
func (f ProviderFunc) Lookup(ctx context.Context, c model.NonprofitCandidate) (model.TrustVettingSignals, error) {
	return f(ctx, c)
}

// Kind is the outcome of a lookup.
type Kind int

const (
	// Absent means no provider was configured or it does not cover the candidate.
	Absent Kind = iota
	// Errored means the provider failed.
	Errored
	// Present means the provider answered.
	Present
)

func (k Kind) String() string {
	switch k {
	case Errored:
		return "errored"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Outcome is a resolved lookup. Signals is only meaningful when Kind is Present.
type Outcome struct {
	Kind    Kind
	Signals model.TrustVettingSignals
	Err     error
}

// TrustScore returns the score if the provider supplied one.
func (o Outcome) TrustScore() (float64, bool) {
	if o.Kind != Present || o.Signals.TrustScore == nil {
		return 0, false
	}
	return *o.Signals.TrustScore, true
}

// Status returns the vetted status, or VettedUnknown unless the provider
// answered with a valid status.
func (o Outcome) Status() model.VettedStatus {
	if o.Kind != Present || !o.Signals.VettedStatus.Valid() {
		return model.VettedUnknown
	}
	return o.Signals.VettedStatus
}

// Verdict returns the vetted status when the provider gave one. A present
// answer with an empty status carries trust only and is no verdict.
func (o Outcome) Verdict() (model.VettedStatus, bool) {
	if o.Kind != Present || o.Signals.VettedStatus == "" {
		return "", false
	}
	return o.Status(), true
}

// Resolve runs one lookup and folds the result into an Outcome. A nil
// provider is Absent.
func Resolve(ctx context.Context, p Provider, c model.NonprofitCandidate) Outcome {
	if p == nil {
		return Outcome{Kind: Absent}
	}
	s, err := p.Lookup(ctx, c)
	switch {
	case errors.Is(err, ErrNotCovered):
		return Outcome{Kind: Absent}
	case err != nil:
		return Outcome{Kind: Errored, Err: err}
	}
	if s.TrustScore != nil {
		v := clampScore(*s.TrustScore)
		s.TrustScore = &v
	}
	if s.VettedStatus != "" && !s.VettedStatus.Valid() {
		s.VettedStatus = model.VettedUnknown
	}
	return Outcome{Kind: Present, Signals: s}
}

func clampScore(v float64) float64 {
	return max(0, min(100, v))
}
