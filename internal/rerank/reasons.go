package rerank

import (
	"fmt"

	"github.com/sells-group/relief-match/internal/signals"
)

func trustReason(score float64, o signals.Outcome) string {
	if o.Signals.Source != "" {
		return fmt.Sprintf("Trust score %.0f/100 (%s)", score, o.Signals.Source)
	}
	return fmt.Sprintf("Trust score %.0f/100", score)
}

func signalSource(trust, vetting signals.Outcome) string {
	if trust.Kind == signals.Present && trust.Signals.Source != "" {
		return trust.Signals.Source
	}
	if vetting.Kind == signals.Present {
		return vetting.Signals.Source
	}
	return ""
}
