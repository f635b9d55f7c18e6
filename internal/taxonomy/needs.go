package taxonomy

import (
	"slices"

	"github.com/sells-group/relief-match/internal/textnorm"
)

// Specific needs a crisis creates and an organization can address.
const (
	NeedShelter      = "shelter"
	NeedMedical      = "medical"
	NeedFood         = "food"
	NeedWater        = "water"
	NeedSearchRescue = "search_rescue"
	NeedHygiene      = "hygiene"
	NeedCash         = "cash"
	NeedPsychosocial = "psychosocial"
	NeedEducation    = "education"
	NeedProtection   = "protection"
)

var needKeywords = map[string][]string{
	NeedShelter:      {"shelter", "shelters", "tents", "housing", "blankets", "temporary homes"},
	NeedMedical:      {"medical", "medicine", "medicines", "health care", "healthcare", "doctors", "surgeons", "clinics", "hospital", "trauma care", "first aid"},
	NeedFood:         {"food", "meals", "hunger", "nutrition", "feeding", "food parcels"},
	NeedWater:        {"water", "clean water", "drinking water", "water purification"},
	NeedSearchRescue: {"search and rescue", "rescue teams", "rescuers", "rubble"},
	NeedHygiene:      {"hygiene", "sanitation", "hygiene kits", "latrines"},
	NeedCash:         {"cash assistance", "cash transfers", "cash grants", "direct cash"},
	NeedPsychosocial: {"psychosocial", "mental health", "trauma counseling", "counseling"},
	NeedEducation:    {"education", "schooling", "learning", "schools"},
	NeedProtection:   {"protection", "safe spaces", "gender based violence", "child protection"},
}

// needOrder fixes iteration order over needKeywords.
var needOrder = []string{
	NeedShelter, NeedMedical, NeedFood, NeedWater, NeedSearchRescue,
	NeedHygiene, NeedCash, NeedPsychosocial, NeedEducation, NeedProtection,
}

// disasterNeeds lists the needs each disaster type typically creates.
var disasterNeeds = map[string][]string{
	"earthquake": {NeedSearchRescue, NeedShelter, NeedMedical, NeedWater},
	"tsunami":    {NeedSearchRescue, NeedShelter, NeedMedical, NeedWater},
	"flood":      {NeedShelter, NeedWater, NeedFood, NeedHygiene},
	"hurricane":  {NeedShelter, NeedWater, NeedFood, NeedMedical},
	"cyclone":    {NeedShelter, NeedWater, NeedFood, NeedMedical},
	"typhoon":    {NeedShelter, NeedWater, NeedFood, NeedMedical},
	"tornado":    {NeedShelter, NeedSearchRescue, NeedCash},
	"wildfire":   {NeedShelter, NeedMedical, NeedCash},
	"landslide":  {NeedSearchRescue, NeedShelter},
	"volcano":    {NeedShelter, NeedMedical},
	"drought":    {NeedWater, NeedFood},
	"famine":     {NeedFood, NeedMedical, NeedWater},
	"conflict":   {NeedMedical, NeedShelter, NeedFood, NeedProtection, NeedPsychosocial},
	"war":        {NeedMedical, NeedShelter, NeedFood, NeedProtection, NeedPsychosocial},
	"epidemic":   {NeedMedical, NeedHygiene, NeedWater},
	"outbreak":   {NeedMedical, NeedHygiene, NeedWater},
	"refugee":    {NeedShelter, NeedFood, NeedMedical, NeedEducation, NeedProtection},
	"heatwave":   {NeedWater, NeedMedical},
}

// Needs returns every need id in a fixed order.
func Needs() []string {
	return slices.Clone(needOrder)
}

// NeedsForDisaster returns the needs a disaster type creates. Matching is on
// folded words, so "Earthquakes" and "flash flood" both resolve.
func NeedsForDisaster(disasterType string) []string {
	for _, w := range textnorm.Words(disasterType) {
		for _, cand := range []string{w, singular(w)} {
			if needs, ok := disasterNeeds[cand]; ok {
				return slices.Clone(needs)
			}
		}
	}
	return nil
}

// NeedsInText returns the needs whose keywords appear in text.
func NeedsInText(text string) []string {
	folded := textnorm.Fold(text)
	if folded == "" {
		return nil
	}
	var out []string
	for _, need := range needOrder {
		for _, kw := range needKeywords[need] {
			if textnorm.ContainsFolded(folded, textnorm.Fold(kw)) {
				out = append(out, need)
				break
			}
		}
	}
	return out
}

// CrisisNeeds combines the disaster-type needs with needs named in keywords.
func CrisisNeeds(disasterType string, keywords []string) []string {
	out := NeedsForDisaster(disasterType)
	for _, kw := range keywords {
		for _, n := range NeedsInText(kw) {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// NeedLabel renders a need id for display.
func NeedLabel(id string) string {
	if id == NeedSearchRescue {
		return "search and rescue"
	}
	return Label(id)
}

func singular(w string) string {
	if len(w) > 3 && w[len(w)-1] == 's' {
		return w[:len(w)-1]
	}
	return w
}
