// Package geo answers region and neighbor questions about countries. The
// tables are static and embedded; every lookup is pure and unknown inputs
// yield empty results rather than errors.
package geo

import (
	_ "embed"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/relief-match/internal/textnorm"
)

//go:embed data/countries.yaml
var countriesYAML []byte

// ambiguousNames are country names that are too often something else (a US
// state, a person) to be trusted when scanning free text.
var ambiguousNames = map[string]bool{
	"georgia": true,
	"jordan":  true,
	"chad":    true,
	"niger":   true,
	"korea":   true,
}

type countryRecord struct {
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	Regions   []string `yaml:"regions"`
	Neighbors []string `yaml:"neighbors"`
}

type tables struct {
	Regions   map[string]string        `yaml:"regions"`
	Countries map[string]countryRecord `yaml:"countries"`
	Places    map[string]string        `yaml:"places"`
}

// KnowledgeBase holds the region and neighbor tables.
type KnowledgeBase struct {
	countryNames map[string]string              // code -> display name
	names        map[string]string              // folded name or alias -> code
	regions      map[string][]string            // code -> region ids
	regionNames  map[string]string              // region id -> display name
	neighbors    map[string]map[string]struct{} // code -> neighbor codes
	places       map[string]string              // folded place -> code
	maxNameWords int
}

var (
	defaultOnce sync.Once
	defaultKB   *KnowledgeBase
)

// Default returns the knowledge base built from the embedded tables.
func Default() *KnowledgeBase {
	defaultOnce.Do(func() {
		kb, err := Load(countriesYAML)
		if err != nil {
			panic(err)
		}
		defaultKB = kb
	})
	return defaultKB
}

// Load parses a tables document. Neighbor edges are mirrored so a border only
// has to be listed once.
func Load(data []byte) (*KnowledgeBase, error) {
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "geo: parse tables")
	}
	if len(t.Countries) == 0 {
		return nil, eris.New("geo: tables contain no countries")
	}

	kb := &KnowledgeBase{
		countryNames: make(map[string]string, len(t.Countries)),
		names:        make(map[string]string, len(t.Countries)*2),
		regions:      make(map[string][]string, len(t.Countries)),
		regionNames:  make(map[string]string, len(t.Regions)),
		neighbors:    make(map[string]map[string]struct{}, len(t.Countries)),
		places:       make(map[string]string, len(t.Places)),
	}

	for id, name := range t.Regions {
		kb.regionNames[id] = name
	}

	for rawCode, rec := range t.Countries {
		code := strings.ToUpper(rawCode)
		kb.countryNames[code] = rec.Name
		kb.addName(rec.Name, code)
		for _, alias := range rec.Aliases {
			kb.addName(alias, code)
		}
		for _, r := range rec.Regions {
			if _, ok := kb.regionNames[r]; !ok {
				return nil, eris.Errorf("geo: country %s references unknown region %q", code, r)
			}
			kb.regions[code] = append(kb.regions[code], r)
		}
		slices.Sort(kb.regions[code])
	}

	for rawCode, rec := range t.Countries {
		code := strings.ToUpper(rawCode)
		for _, rawNeighbor := range rec.Neighbors {
			n := strings.ToUpper(rawNeighbor)
			if _, ok := kb.countryNames[n]; !ok {
				return nil, eris.Errorf("geo: country %s lists unknown neighbor %s", code, n)
			}
			if n == code {
				continue
			}
			kb.link(code, n)
			kb.link(n, code)
		}
	}

	for place, rawCode := range t.Places {
		code := strings.ToUpper(rawCode)
		if _, ok := kb.countryNames[code]; !ok {
			return nil, eris.Errorf("geo: place %q maps to unknown country %s", place, code)
		}
		kb.places[textnorm.Fold(place)] = code
	}

	return kb, nil
}

func (kb *KnowledgeBase) addName(name, code string) {
	folded := textnorm.Fold(name)
	if folded == "" {
		return
	}
	kb.names[folded] = code
	if n := len(strings.Fields(folded)); n > kb.maxNameWords {
		kb.maxNameWords = n
	}
}

func (kb *KnowledgeBase) link(a, b string) {
	set, ok := kb.neighbors[a]
	if !ok {
		set = make(map[string]struct{})
		kb.neighbors[a] = set
	}
	set[b] = struct{}{}
}

// Resolve maps an ISO alpha-2 code, English name or alias to a canonical code.
// It returns "" for anything it does not know.
func (kb *KnowledgeBase) Resolve(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if len(token) == 2 {
		code := strings.ToUpper(token)
		if _, ok := kb.countryNames[code]; ok {
			return code
		}
	}
	folded := textnorm.Fold(token)
	if code, ok := kb.names[folded]; ok {
		return code
	}
	if code, ok := kb.names[strings.TrimPrefix(folded, "the ")]; ok {
		return code
	}
	return ""
}

// CountryOfPlace resolves a sub-national place (or a country) to a country code.
func (kb *KnowledgeBase) CountryOfPlace(place string) string {
	if code, ok := kb.places[textnorm.Fold(place)]; ok {
		return code
	}
	return kb.Resolve(place)
}

// IsPlace reports whether token names a known sub-national place.
func (kb *KnowledgeBase) IsPlace(token string) bool {
	_, ok := kb.places[textnorm.Fold(token)]
	return ok
}

// CountryName returns the display name for a country, or "" if unknown.
func (kb *KnowledgeBase) CountryName(country string) string {
	return kb.countryNames[kb.Resolve(country)]
}

// RegionName returns the display name of a region id, or "" if unknown.
func (kb *KnowledgeBase) RegionName(id string) string {
	return kb.regionNames[id]
}

// RegionsOf returns the sorted region ids a country belongs to.
func (kb *KnowledgeBase) RegionsOf(country string) []string {
	return slices.Clone(kb.regions[kb.Resolve(country)])
}

// SameRegion reports whether two countries share at least one region.
func (kb *KnowledgeBase) SameRegion(a, b string) bool {
	_, ok := kb.SharedRegion(a, b)
	return ok
}

// SharedRegion returns the first region id (in sorted order) shared by a and b.
func (kb *KnowledgeBase) SharedRegion(a, b string) (string, bool) {
	ra := kb.regions[kb.Resolve(a)]
	rb := kb.regions[kb.Resolve(b)]
	for _, r := range ra {
		if slices.Contains(rb, r) {
			return r, true
		}
	}
	return "", false
}

// AreNeighbors reports whether a and b share a direct land or maritime border.
// Transitive neighbors are not neighbors.
func (kb *KnowledgeBase) AreNeighbors(a, b string) bool {
	set, ok := kb.neighbors[kb.Resolve(a)]
	if !ok {
		return false
	}
	_, ok = set[kb.Resolve(b)]
	return ok
}

// Neighbors returns the sorted direct neighbors of a country.
func (kb *KnowledgeBase) Neighbors(country string) []string {
	set := kb.neighbors[kb.Resolve(country)]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Countries returns every known country code, sorted.
func (kb *KnowledgeBase) Countries() []string {
	out := make([]string, 0, len(kb.countryNames))
	for c := range kb.countryNames {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// FindCountries returns the countries named in free text, in order of first
// mention. Longer names win over their prefixes ("south sudan" over "sudan").
// Codes are not matched; two-letter words are too noisy.
func (kb *KnowledgeBase) FindCountries(text string) []string {
	words := textnorm.Words(text)
	var found []string
	seen := make(map[string]bool)
	for i := 0; i < len(words); {
		matched := 0
		for n := min(kb.maxNameWords, len(words)-i); n >= 1; n-- {
			phrase := strings.Join(words[i:i+n], " ")
			if ambiguousNames[phrase] {
				continue
			}
			code, ok := kb.names[phrase]
			if !ok {
				if code, ok = kb.places[phrase]; !ok {
					continue
				}
			}
			if !seen[code] {
				seen[code] = true
				found = append(found, code)
			}
			matched = n
			break
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}
	return found
}

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "DC": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true,
	"IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true,
	"NV": true, "NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true,
	"OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "PR": true, "GU": true, "VI": true,
}

// IsUSState reports whether token is a US state or territory abbreviation,
// optionally followed by a ZIP code ("NY 10001").
func IsUSState(token string) bool {
	fields := strings.Fields(strings.TrimSpace(token))
	if len(fields) == 0 || len(fields) > 2 {
		return false
	}
	if len(fields) == 2 && !isZIP(fields[1]) {
		return false
	}
	return usStates[strings.ToUpper(fields[0])] && len(fields[0]) == 2
}

func isZIP(s string) bool {
	if len(s) != 5 && len(s) != 10 {
		return false
	}
	for i, r := range s {
		if i == 5 && r == '-' {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
