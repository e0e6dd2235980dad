package orchestrator

// #region imports
import (
	"regexp"
	"strings"
)

// #endregion imports

// #region marker

// phaseTokenRe matches the control token older prompt revisions asked the
// oracle to embed in its prose to drive transitions.
var phaseTokenRe = regexp.MustCompile(`\[PHASE_ADVANCE:(\w+)\]`)

// ExtractAdvanceMarker strips every transition marker from generated text
// and returns the cleaned text plus the last marker's target ("" if none).
// The learner must never see control tokens; transitions here are driven by
// explicit verdicts, so the target is informational. Marker absence means
// "no transition this turn", never an error.
func ExtractAdvanceMarker(text string) (clean, target string) {
	matches := phaseTokenRe.FindAllStringSubmatch(text, -1)
	if len(matches) > 0 {
		target = matches[len(matches)-1][1]
	}
	clean = phaseTokenRe.ReplaceAllString(text, "")
	clean = strings.TrimSpace(clean)
	return clean, target
}

// #endregion marker
