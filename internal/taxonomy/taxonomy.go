// Package taxonomy defines the cause vocabulary shared by candidate generation
// and reranking: cause ids, their directory tags, which causes are adjacent,
// and the needs a crisis creates.
package taxonomy

import (
	"slices"
	"strings"

	"github.com/sells-group/relief-match/internal/textnorm"
)

// Cause ids.
const (
	DisasterRelief     = "disaster_relief"
	HumanitarianCrisis = "humanitarian_crisis"
	ClimateEvents      = "climate_events"
	Refugees           = "refugees"
	Health             = "health"
	FoodSecurity       = "food_security"
	WaterSanitation    = "water_sanitation"
	Children           = "children"
	Poverty            = "poverty"
	Housing            = "housing"
	Education          = "education"
	Animals            = "animals"
	Environment        = "environment"
	ArtsCulture        = "arts_culture"
)

type causeDef struct {
	id       string
	tag      string   // directory browse tag
	aliases  []string // other directory tags that map to this cause
	keywords []string
}

// causes is ordered by inference priority: when an article matches several,
// earlier entries are inferred first.
var causes = []causeDef{
	{DisasterRelief, "disasters", []string{"disaster-relief", "disaster relief", "disaster", "emergency"},
		[]string{"earthquake", "flood", "flooding", "hurricane", "cyclone", "typhoon", "tornado", "wildfire",
			"tsunami", "landslide", "mudslide", "volcano", "eruption", "disaster", "aftershock", "storm surge"}},
	{HumanitarianCrisis, "humanitarian", []string{"humanitarian-aid", "humanitarian crisis", "crisis"},
		[]string{"war", "conflict", "airstrike", "siege", "ceasefire", "humanitarian", "civil war", "shelling",
			"invasion", "militia", "violence"}},
	{Refugees, "refugees", []string{"refugee", "immigrants", "immigration"},
		[]string{"refugee", "refugees", "displaced", "displacement", "asylum", "migrants", "evacuees", "exodus"}},
	{ClimateEvents, "climate", []string{"climate-change", "climate change"},
		[]string{"climate", "drought", "heatwave", "heat wave", "extreme weather", "sea level", "monsoon"}},
	{Health, "health", []string{"medical", "public-health", "disease"},
		[]string{"outbreak", "epidemic", "pandemic", "cholera", "disease", "hospital", "injured", "casualties",
			"medical", "vaccine", "ebola", "malaria"}},
	{FoodSecurity, "hunger", []string{"food-security", "food", "hunger-relief"},
		[]string{"famine", "hunger", "malnutrition", "food insecurity", "starvation", "food shortage"}},
	{WaterSanitation, "water", []string{"water-sanitation", "clean-water", "sanitation"},
		[]string{"clean water", "drinking water", "sanitation", "water shortage", "contaminated water"}},
	{Children, "kids", []string{"children", "youth", "child"},
		[]string{"children", "child", "orphans", "kids", "infants", "unaccompanied minors"}},
	{Housing, "housing", []string{"homelessness", "shelter"},
		[]string{"homeless", "homelessness", "housing", "evictions", "destroyed homes"}},
	{Poverty, "poverty", []string{"economic-development"},
		[]string{"poverty", "livelihoods", "unemployment", "economic collapse"}},
	{Education, "education", []string{"schools", "literacy"},
		[]string{"school", "schools", "education", "students", "teachers"}},
	{Animals, "animals", []string{"animal-welfare", "wildlife"},
		[]string{"animals", "pets", "livestock", "wildlife"}},
	{Environment, "environment", []string{"conservation", "oceans"},
		[]string{"oil spill", "deforestation", "pollution", "habitat"}},
	{ArtsCulture, "art", []string{"arts", "culture", "museums", "music", "theater"},
		[]string{"museum", "art", "artists", "heritage site", "theater", "gallery"}},
}

// adjacency lists causes that are related but not the same. It is symmetric.
var adjacency = map[string][]string{
	DisasterRelief:     {HumanitarianCrisis, ClimateEvents, Housing},
	HumanitarianCrisis: {DisasterRelief, Refugees, FoodSecurity, Health},
	ClimateEvents:      {DisasterRelief, Environment},
	Refugees:           {HumanitarianCrisis, Housing, Children},
	Health:             {HumanitarianCrisis, WaterSanitation},
	FoodSecurity:       {HumanitarianCrisis, Poverty},
	WaterSanitation:    {Health},
	Children:           {Refugees, Education},
	Housing:            {DisasterRelief, Refugees, Poverty},
	Poverty:            {FoodSecurity, Housing},
	Education:          {Children},
	Animals:            {Environment},
	Environment:        {ClimateEvents, Animals},
	ArtsCulture:        nil,
}

var (
	byID  = make(map[string]causeDef, len(causes))
	byTag = make(map[string]string, len(causes)*4)
)

func init() {
	for _, c := range causes {
		byID[c.id] = c
		byTag[textnorm.Fold(c.tag)] = c.id
		byTag[textnorm.Fold(c.id)] = c.id
		for _, a := range c.aliases {
			byTag[textnorm.Fold(a)] = c.id
		}
	}
}

// Causes returns every cause id in inference priority order.
func Causes() []string {
	out := make([]string, len(causes))
	for i, c := range causes {
		out[i] = c.id
	}
	return out
}

// IsCause reports whether id is a known cause id.
func IsCause(id string) bool {
	_, ok := byID[id]
	return ok
}

// Tag returns the directory browse tag for a cause id, or "" if unknown.
func Tag(id string) string {
	return byID[id].tag
}

// FromTag maps a directory tag (or a cause id) to a cause id.
func FromTag(tag string) (string, bool) {
	id, ok := byTag[textnorm.Fold(tag)]
	return id, ok
}

// Normalize maps each tag to a cause id, dropping unknown tags and duplicates
// while keeping order.
func Normalize(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		id, ok := FromTag(t)
		if ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// Adjacent returns the causes adjacent to id.
func Adjacent(id string) []string {
	return slices.Clone(adjacency[id])
}

// AreAdjacent reports whether a and b are adjacent causes.
func AreAdjacent(a, b string) bool {
	return slices.Contains(adjacency[a], b)
}

// Infer returns the cause ids whose keywords appear in text, in priority order.
func Infer(text string) []string {
	folded := textnorm.Fold(text)
	if folded == "" {
		return nil
	}
	var out []string
	for _, c := range causes {
		for _, kw := range c.keywords {
			if textnorm.ContainsFolded(folded, textnorm.Fold(kw)) {
				out = append(out, c.id)
				break
			}
		}
	}
	return out
}

// Label renders a cause id for display: "disaster_relief" -> "disaster relief".
func Label(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}
