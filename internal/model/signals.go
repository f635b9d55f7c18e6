package model

// VettedStatus is the verification state reported by a vetting provider.
type VettedStatus string

const (
	VettedVerified   VettedStatus = "verified"
	VettedUnverified VettedStatus = "unverified"
	VettedUnknown    VettedStatus = "unknown"
)

// Valid reports whether s is one of the known statuses.
func (s VettedStatus) Valid() bool {
	switch s {
	case VettedVerified, VettedUnverified, VettedUnknown:
		return true
	default:
		return false
	}
}

// TrustVettingSignals is what an external provider knows about a candidate.
// A nil TrustScore means the provider has no score; it is never defaulted.
type TrustVettingSignals struct {
	TrustScore   *float64     `json:"trust_score,omitempty" yaml:"trust_score,omitempty"`
	VettedStatus VettedStatus `json:"vetted_status" yaml:"vetted_status"`
	Source       string       `json:"source,omitempty" yaml:"source,omitempty"`
}
