package rerank

import (
	"slices"
	"strings"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/taxonomy"
)

// crisisCauses is what the article is about.
type crisisCauses struct {
	primary   string   // "" when nothing could be identified
	secondary []string // remaining article causes
	needs     []string
}

func resolveCauses(causes []string, text string, e model.Entities, keywords []string) crisisCauses {
	ids := taxonomy.Normalize(causes)
	if len(ids) == 0 {
		ids = taxonomy.Infer(text)
	}
	var cc crisisCauses
	if len(ids) > 0 {
		cc.primary = ids[0]
		cc.secondary = ids[1:]
	}
	cc.needs = taxonomy.CrisisNeeds(e.DisasterType, keywords)
	return cc
}

// causeLevel grades an organization's mission against the crisis and
// explains why.
func causeLevel(cc crisisCauses, p profile) (model.CauseLevel, string) {
	if cc.primary == "" {
		// No crisis cause to match against: any recognizable mission is
		// treated as adjacent, none is excluded.
		if len(p.causes) > 0 {
			return model.CauseLevelAdjacent, "Works on " + taxonomy.Label(p.causes[0]) + "; article cause not identified"
		}
		return model.CauseLevelNone, ""
	}

	if slices.Contains(p.causes, cc.primary) {
		var met []string
		for _, n := range cc.needs {
			if slices.Contains(p.needs, n) {
				met = append(met, taxonomy.NeedLabel(n))
			}
		}
		if len(met) > 0 {
			return model.CauseLevelExact, "Primary cause match (" + taxonomy.Label(cc.primary) + ") addressing " + strings.Join(met, ", ")
		}
		return model.CauseLevelPrimary, "Primary cause match (" + taxonomy.Label(cc.primary) + ")"
	}

	for _, c := range p.causes {
		if taxonomy.AreAdjacent(cc.primary, c) {
			return model.CauseLevelAdjacent, "Adjacent cause (" + taxonomy.Label(c) + ") to " + taxonomy.Label(cc.primary)
		}
	}
	for _, c := range p.causes {
		if slices.Contains(cc.secondary, c) {
			return model.CauseLevelAdjacent, "Matches secondary cause (" + taxonomy.Label(c) + ")"
		}
	}
	return model.CauseLevelNone, ""
}
