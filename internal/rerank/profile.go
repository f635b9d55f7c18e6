package rerank

import (
	"slices"
	"strings"

	"github.com/sells-group/relief-match/internal/geo"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/taxonomy"
	"github.com/sells-group/relief-match/internal/textnorm"
)

// GlobalFlexibilityThreshold splits rapid-deployment global organizations
// (tier 3) from partner-network ones (tier 4).
const GlobalFlexibilityThreshold = 7

const (
	baseFlexibility    = 4
	globalCountryCount = 4
)

var (
	globalMarkers  = []string{"global", "worldwide", "international", "around the world"}
	rapidMarkers   = []string{"rapid", "emergency", "first respon", "deploy", "on the ground", "search and rescue", "within hours", "24/7"}
	partnerMarkers = []string{"partner", "grant", "fund local", "through local"}
)

// profile is what the reranker knows about an organization's footprint and
// mission, declared or derived.
type profile struct {
	countries   []string // ISO codes
	places      []string // folded address tokens
	global      bool
	flexibility int
	needs       []string
	causes      []string // cause ids
}

func buildProfile(kb *geo.KnowledgeBase, c model.NonprofitCandidate) profile {
	var p profile
	text := c.Name + "\n" + c.Description

	for _, part := range strings.Split(c.LocationAddress, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p.places = append(p.places, textnorm.Fold(part))
		switch {
		case geo.IsUSState(part):
			p.countries = appendUnique(p.countries, "US")
		default:
			if code := kb.CountryOfPlace(part); code != "" {
				p.countries = appendUnique(p.countries, code)
			}
		}
	}

	described := kb.FindCountries(c.Description)
	if len(c.OperatingCountries) > 0 {
		for _, oc := range c.OperatingCountries {
			if code := kb.Resolve(oc); code != "" {
				p.countries = appendUnique(p.countries, code)
			}
		}
	} else {
		for _, code := range described {
			p.countries = appendUnique(p.countries, code)
		}
	}

	folded := textnorm.Fold(c.Description)
	if c.Global != nil {
		p.global = *c.Global
	} else {
		p.global = len(described) >= globalCountryCount || containsAny(folded, globalMarkers)
	}

	if c.Flexibility != nil {
		p.flexibility = max(0, min(10, *c.Flexibility))
	} else {
		p.flexibility = deriveFlexibility(c.Description)
	}

	if len(c.AddressedNeeds) > 0 {
		p.needs = slices.Clone(c.AddressedNeeds)
	} else {
		p.needs = taxonomy.NeedsInText(text)
	}

	p.causes = taxonomy.Normalize(c.Causes)
	for _, id := range taxonomy.Infer(text) {
		p.causes = appendUnique(p.causes, id)
	}
	return p
}

// deriveFlexibility scores 0-10 how quickly an organization can stand up
// operations somewhere new, from wording in its description.
func deriveFlexibility(description string) int {
	lower := strings.ToLower(description)
	score := baseFlexibility
	for _, m := range rapidMarkers {
		if strings.Contains(lower, m) {
			score += 2
		}
	}
	for _, m := range partnerMarkers {
		if strings.Contains(lower, m) {
			score -= 2
			break
		}
	}
	return max(0, min(10, score))
}

func containsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if textnorm.ContainsFolded(folded, textnorm.Fold(p)) {
			return true
		}
	}
	return false
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
