package rerank

import (
	"regexp"
	"strings"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/signals"
)

// legalNameOnly matches bare registered names such as "SMITH FAMILY
// FOUNDATION" or "J R TRUST INC": one to three all-caps words and an entity
// suffix.
var legalNameOnly = regexp.MustCompile(`^(?:[A-Z0-9&'.\-]+\s+){1,3}(?:FOUNDATION|INC|TRUST|FUND|CORP|CORPORATION|LLC)\.?$`)

// descriptiveWords mark a name that says what the organization does, which
// a bare legal name does not.
var descriptiveWords = []string{
	"RELIEF", "AID", "RESCUE", "HUMANITARIAN", "DISASTER", "EMERGENCY", "MEDICAL",
	"HEALTH", "REFUGEE", "CHILDREN", "FOOD", "WATER", "SHELTER", "HOPE", "HELP",
}

func isLegalNameOnly(name string) bool {
	name = strings.TrimSpace(name)
	if !legalNameOnly.MatchString(name) {
		return false
	}
	for _, w := range strings.Fields(name) {
		for _, d := range descriptiveWords {
			if strings.Trim(w, ".,'") == d {
				return false
			}
		}
	}
	return true
}

// vetDecision is the result of the vetting gate.
type vetDecision struct {
	pass   bool
	status model.VettedStatus
	reason string
}

// vet applies the vetting gate. A provider verdict is final and only
// "verified" passes. Without one (no provider, not covered, or the lookup
// failed) the profile must have a description and website and a name that is
// more than a registered entity name.
func vet(c model.NonprofitCandidate, o signals.Outcome) vetDecision {
	if status, ok := o.Verdict(); ok {
		if status == model.VettedVerified {
			return vetDecision{pass: true, status: status, reason: "Verified by " + sourceOf(o)}
		}
		return vetDecision{status: status}
	}
	d := vetDecision{status: model.VettedUnknown}
	if strings.TrimSpace(c.Description) == "" || strings.TrimSpace(c.WebsiteURL) == "" || isLegalNameOnly(c.Name) {
		return d
	}
	d.pass = true
	if o.Kind == signals.Errored {
		d.reason = "Vetting provider unavailable; passed profile completeness checks"
	} else {
		d.reason = "Passed profile completeness checks"
	}
	return d
}

func sourceOf(o signals.Outcome) string {
	if o.Signals.Source != "" {
		return o.Signals.Source
	}
	return "vetting provider"
}
