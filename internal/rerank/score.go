package rerank

import (
	"cmp"
	"strings"

	"github.com/sells-group/relief-match/internal/model"
)

var (
	geoScores   = map[model.GeoTier]float64{1: 1.0, 2: 0.75, 3: 0.5, 4: 0.25}
	causeScores = map[model.CauseLevel]float64{1: 1.0, 2: 0.7, 3: 0.4}
)

// qualityScore rewards profile completeness: description, website, logo,
// EIN and NTEE code are worth 0.2 each.
func qualityScore(c model.NonprofitCandidate) float64 {
	q := 0.0
	for _, f := range []string{c.Description, c.WebsiteURL, c.LogoURL, c.EIN, c.NTEECode} {
		if strings.TrimSpace(f) != "" {
			q += 0.2
		}
	}
	return min(q, 1)
}

func score(r *model.NonprofitRanked) {
	r.Score = model.Score{
		Geo:     geoScores[r.GeoTier],
		Cause:   causeScores[r.CauseMatchLevel],
		Quality: qualityScore(r.NonprofitCandidate),
	}
	if r.TrustScore != nil {
		r.Score.Trust = *r.TrustScore / 100
	}
	r.Score.Total = r.Score.ComputeTotal()
}

// ranked pairs a surviving candidate with its input position.
type ranked struct {
	model.NonprofitRanked
	index int
}

// compareRanked orders by tier, then cause level, then trust (scored before
// unscored, higher first), then total score, then input order.
func compareRanked(a, b ranked) int {
	if c := cmp.Compare(a.GeoTier, b.GeoTier); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CauseMatchLevel, b.CauseMatchLevel); c != 0 {
		return c
	}
	switch {
	case a.TrustScore != nil && b.TrustScore == nil:
		return -1
	case a.TrustScore == nil && b.TrustScore != nil:
		return 1
	case a.TrustScore != nil && b.TrustScore != nil:
		if c := cmp.Compare(*b.TrustScore, *a.TrustScore); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
		return c
	}
	return cmp.Compare(a.index, b.index)
}

// category is the NTEE major group plus decile ("M20"), or "" when the code
// is missing or malformed.
func category(ntee string) string {
	ntee = strings.ToUpper(strings.TrimSpace(ntee))
	r := []rune(ntee)
	if len(r) < 3 {
		return ""
	}
	if r[0] < 'A' || r[0] > 'Z' || !isASCIIDigit(r[1]) || !isASCIIDigit(r[2]) {
		return ""
	}
	return string(r[:3])
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
