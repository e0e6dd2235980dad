package validate

// #region imports
import (
	"context"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/evaluate"
)

// #endregion imports

// #region rule-delegate

// RuleDelegate judges answers by local keyword/example matching. It is
// deterministic, offline, and never returns an error. Used for onboarding
// answers, and for every pedagogical answer in the simplest progression
// variant.
type RuleDelegate struct{}

// NewRuleDelegate returns the offline rule-matching delegate.
func NewRuleDelegate() *RuleDelegate {
	return &RuleDelegate{}
}

func (d *RuleDelegate) judge(candidate string, r catalog.Rubric) (Verdict, error) {
	if evaluate.MatchesRubric(candidate, r) {
		return Valid, nil
	}
	return NotValid, nil
}

func (d *RuleDelegate) Name(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

func (d *RuleDelegate) Topic(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

func (d *RuleDelegate) Observation(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

func (d *RuleDelegate) Hypothesis(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

func (d *RuleDelegate) ExperimentIdea(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

func (d *RuleDelegate) Prediction(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

func (d *RuleDelegate) Conclusion(_ context.Context, candidate string, r catalog.Rubric, _ map[string]string) (Verdict, error) {
	return d.judge(candidate, r)
}

// FreeForm accepts anything non-degenerate: in free-form chat there is no
// learning goal left to gate on.
func (d *RuleDelegate) FreeForm(_ context.Context, candidate string, _ catalog.Rubric, _ map[string]string) (Verdict, error) {
	if evaluate.IsDegenerate(candidate) {
		return NotValid, nil
	}
	return Valid, nil
}

// #endregion rule-delegate
