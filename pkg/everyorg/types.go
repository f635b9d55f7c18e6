package everyorg

import (
	"strings"

	"github.com/sells-group/relief-match/internal/geo"
)

// Nonprofit is a directory search or browse hit.
type Nonprofit struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	EIN              string   `json:"ein"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	WebsiteURL       string   `json:"websiteUrl"`
	ProfileURL       string   `json:"profileUrl"`
	LogoURL          string   `json:"logoUrl"`
	LogoCloudinaryID string   `json:"logoCloudinaryId"`
	NTEECode         string   `json:"nteeCode"`
	Tags             []string `json:"tags"`
	MatchedTerms     []string `json:"matchedTerms"`
}

// SearchOptions narrows a search.
type SearchOptions struct {
	Causes []string
	Take   int
}

// BrowseOptions pages through a cause listing.
type BrowseOptions struct {
	Take int
	Page int
}

type listResponse struct {
	Nonprofits []Nonprofit `json:"nonprofits"`
}

// NTEEMeaning describes an NTEE classification code.
type NTEEMeaning struct {
	MajorCode     string `json:"majorCode"`
	MajorMeaning  string `json:"majorMeaning"`
	DecileCode    string `json:"decileCode"`
	DecileMeaning string `json:"decileMeaning"`
}

// String renders the most specific meaning available.
func (m NTEEMeaning) String() string {
	switch {
	case m.DecileMeaning != "" && m.MajorMeaning != "":
		return m.MajorMeaning + " / " + m.DecileMeaning
	case m.DecileMeaning != "":
		return m.DecileMeaning
	default:
		return m.MajorMeaning
	}
}

// DetailNonprofit is the full profile returned by the nonprofit endpoint.
type DetailNonprofit struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	PrimarySlug     string      `json:"primarySlug"`
	EIN             string      `json:"ein"`
	IsDisbursable   bool        `json:"isDisbursable"`
	Description     string      `json:"description"`
	DescriptionLong string      `json:"descriptionLong"`
	LocationAddress string      `json:"locationAddress"`
	NTEECode        string      `json:"nteeCode"`
	NTEEMeaning     NTEEMeaning `json:"nteeCodeMeaning"`
	LogoURL         string      `json:"logoUrl"`
	WebsiteURL      string      `json:"websiteUrl"`
	ProfileURL      string      `json:"profileUrl"`
}

// Tag is a cause tag attached to a nonprofit profile.
type Tag struct {
	TagName       string `json:"tagName"`
	Title         string `json:"title"`
	CauseCategory string `json:"causeCategory"`
}

// Details is a nonprofit profile with its tags.
type Details struct {
	Nonprofit DetailNonprofit `json:"nonprofit"`
	Tags      []Tag           `json:"nonprofitTags"`
}

// TagNames returns the tag names in response order.
func (d *Details) TagNames() []string {
	out := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t.TagName != "" {
			out = append(out, t.TagName)
		}
	}
	return out
}

// Locality splits LocationAddress into city, state and country. Addresses are
// "City, ST" for US organizations and "City, Country" elsewhere.
func (d *Details) Locality() (city, state, country string) {
	var parts []string
	for _, p := range strings.Split(d.Nonprofit.LocationAddress, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		if geo.IsUSState(parts[1]) {
			return parts[0], strings.Fields(parts[1])[0], "US"
		}
		return parts[0], "", parts[1]
	default:
		return parts[0], parts[1], parts[len(parts)-1]
	}
}

type detailsResponse struct {
	Data Details `json:"data"`
}
