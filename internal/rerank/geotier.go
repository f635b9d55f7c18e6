package rerank

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sells-group/relief-match/internal/geo"
	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/textnorm"
)

// crisis is the resolved location of the article.
type crisis struct {
	country string   // ISO code, "" when unresolvable
	places  []string // folded region and city
}

func (c crisis) located() bool {
	return c.country != "" || len(c.places) > 0
}

func resolveCrisis(kb *geo.KnowledgeBase, g model.Geography) crisis {
	var c crisis
	c.country = kb.Resolve(g.Country)
	for _, place := range []string{g.Region, g.City} {
		if strings.TrimSpace(place) == "" {
			continue
		}
		c.places = append(c.places, textnorm.Fold(place))
		if c.country == "" {
			c.country = kb.CountryOfPlace(place)
		}
	}
	return c
}

// geoTier places an organization relative to the crisis and explains why.
func geoTier(kb *geo.KnowledgeBase, cr crisis, p profile) (model.GeoTier, string) {
	if cr.country != "" && slices.Contains(p.countries, cr.country) {
		return model.GeoTierDirect, "Operates directly in " + kb.CountryName(cr.country)
	}
	for _, place := range p.places {
		if place != "" && slices.Contains(cr.places, place) {
			return model.GeoTierDirect, "Based in " + textnorm.Title(place) + ", the crisis location"
		}
	}

	if cr.country != "" {
		for _, c := range p.countries {
			if kb.AreNeighbors(c, cr.country) {
				return model.GeoTierNearby, fmt.Sprintf("Operates in %s, a neighbor of %s", kb.CountryName(c), kb.CountryName(cr.country))
			}
		}
		for _, c := range p.countries {
			if region, ok := kb.SharedRegion(c, cr.country); ok {
				return model.GeoTierNearby, fmt.Sprintf("Operates in %s, in the same region as %s (%s)",
					kb.CountryName(c), kb.CountryName(cr.country), kb.RegionName(region))
			}
		}
	}

	if p.global {
		if p.flexibility >= GlobalFlexibilityThreshold {
			return model.GeoTierRapidGlobal, "Global organization with rapid-deployment capability"
		}
		return model.GeoTierGlobal, "Global organization working through local partners"
	}

	if cr.country == "" {
		// Nothing to measure distance against.
		return model.GeoTierGlobal, "Location-agnostic match; no crisis country identified"
	}
	return model.GeoTierExcluded, ""
}
