package signals

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/relief-match/internal/model"
)

// staticFile is the on-disk layout of a signals file:
//
//	source: charity-navigator-2026
//	organizations:
//	  directrelief:
//	    ein: "951831116"
//	    trust_score: 95
//	    vetted_status: verified
type staticFile struct {
	Source        string                  `yaml:"source"`
	Organizations map[string]staticRecord `yaml:"organizations"`
}

type staticRecord struct {
	EIN          string             `yaml:"ein"`
	TrustScore   *float64           `yaml:"trust_score"`
	VettedStatus model.VettedStatus `yaml:"vetted_status"`
}

// Static serves signals from a fixed table keyed by slug, with EIN as a
// fallback key.
type Static struct {
	source string
	bySlug map[string]model.TrustVettingSignals
	byEIN  map[string]model.TrustVettingSignals
}

// LoadStaticFile reads a YAML signals file.
func LoadStaticFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "signals: read %s", path)
	}
	return ParseStatic(data)
}

// ParseStatic parses a YAML signals document.
func ParseStatic(data []byte) (*Static, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "signals: parse static file")
	}
	source := f.Source
	if source == "" {
		source = "static"
	}
	s := &Static{
		source: source,
		bySlug: make(map[string]model.TrustVettingSignals, len(f.Organizations)),
		byEIN:  make(map[string]model.TrustVettingSignals),
	}
	for slug, rec := range f.Organizations {
		// An omitted status leaves vetting to the caller's fallback checks.
		status := rec.VettedStatus
		if status != "" && !status.Valid() {
			return nil, eris.Errorf("signals: %s has invalid vetted_status %q", slug, rec.VettedStatus)
		}
		if rec.TrustScore != nil && (*rec.TrustScore < 0 || *rec.TrustScore > 100) {
			return nil, eris.Errorf("signals: %s trust_score %v outside 0-100", slug, *rec.TrustScore)
		}
		sig := model.TrustVettingSignals{TrustScore: rec.TrustScore, VettedStatus: status, Source: source}
		s.bySlug[strings.ToLower(slug)] = sig
		if ein := normalizeEIN(rec.EIN); ein != "" {
			s.byEIN[ein] = sig
		}
	}
	return s, nil
}

// Len returns the number of organizations in the table.
func (s *Static) Len() int {
	return len(s.bySlug)
}

// Lookup returns the signals for c, or ErrNotCovered.
func (s *Static) Lookup(_ context.Context, c model.NonprofitCandidate) (model.TrustVettingSignals, error) {
	if sig, ok := s.bySlug[strings.ToLower(c.Slug)]; ok {
		return sig, nil
	}
	if sig, ok := s.byEIN[normalizeEIN(c.EIN)]; ok {
		return sig, nil
	}
	return model.TrustVettingSignals{}, ErrNotCovered
}

func normalizeEIN(ein string) string {
	return strings.ReplaceAll(strings.TrimSpace(ein), "-", "")
}
