package validate

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/evaluate"
)

// #endregion imports

// #region judge-interface

// Judge is the single-shot classification capability. It returns free text
// that must be parsed defensively.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// #endregion judge-interface

// #region constants

// acceptToken is the one token the judge is instructed to answer with for a
// satisfactory answer. Anything else — other tokens, extra prose, empty
// output, transport errors — is NotValid. Fail-closed: ambiguous oracle
// output never advances the learner.
const acceptToken = "VALID"

var kindDescriptions = map[Kind]string{
	KindName:           "the child's name",
	KindTopic:          "the child's chosen learning topic",
	KindObservation:    "an observation the child made about the story scene",
	KindHypothesis:     "the child's hypothesis (their guess about why something happens)",
	KindExperimentIdea: "a simple 'what if' experiment the child proposed to test their hypothesis",
	KindPrediction:     "the child's prediction of the experiment's outcome",
	KindConclusion:     "what the child says they learned from the experiment and story",
	KindFreeForm:       "the child's free-form message",
}

// #endregion constants

// #region oracle-delegate

// OracleDelegate judges pedagogical answers by asking an external judgment
// oracle. Degenerate answers are rejected locally without an oracle call.
type OracleDelegate struct {
	judge Judge
}

// NewOracleDelegate wraps the given judge capability.
func NewOracleDelegate(j Judge) *OracleDelegate {
	return &OracleDelegate{judge: j}
}

func (d *OracleDelegate) ask(ctx context.Context, kind Kind, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	if evaluate.IsDegenerate(candidate) {
		return NotValid, nil
	}

	prompt := BuildJudgmentPrompt(kind, candidate, r, scratch)
	raw, err := d.judge.Judge(ctx, prompt)
	if err != nil {
		log.Printf("[VALIDATE] judge call failed for kind=%s: %v (treating as not valid)", kind, err)
		return NotValid, nil
	}
	return ParseVerdict(raw), nil
}

func (d *OracleDelegate) Name(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindName, candidate, r, scratch)
}

func (d *OracleDelegate) Topic(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindTopic, candidate, r, scratch)
}

func (d *OracleDelegate) Observation(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindObservation, candidate, r, scratch)
}

func (d *OracleDelegate) Hypothesis(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindHypothesis, candidate, r, scratch)
}

func (d *OracleDelegate) ExperimentIdea(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindExperimentIdea, candidate, r, scratch)
}

func (d *OracleDelegate) Prediction(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindPrediction, candidate, r, scratch)
}

func (d *OracleDelegate) Conclusion(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error) {
	return d.ask(ctx, KindConclusion, candidate, r, scratch)
}

func (d *OracleDelegate) FreeForm(ctx context.Context, candidate string, _ catalog.Rubric, _ map[string]string) (Verdict, error) {
	if evaluate.IsDegenerate(candidate) {
		return NotValid, nil
	}
	return Valid, nil
}

// #endregion oracle-delegate

// #region prompt

// BuildJudgmentPrompt assembles the single-shot classification prompt: the
// answer kind, the rubric, whatever prior context the scratch slots hold,
// and the candidate, with a strict one-token answer instruction.
func BuildJudgmentPrompt(kind Kind, candidate string, r catalog.Rubric, scratch map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are grading %s in a Grade 3 science lesson.\n\n", kindDescriptions[kind])

	if topic := scratch["topic"]; topic != "" {
		fmt.Fprintf(&b, "Current topic: %q\n", topic)
	}
	if hyp := scratch["last_hypothesis"]; hyp != "" && kind != KindHypothesis {
		fmt.Fprintf(&b, "The child's earlier hypothesis: %q\n", hyp)
	}
	if exp := scratch["last_experiment"]; exp != "" && (kind == KindPrediction || kind == KindConclusion) {
		fmt.Fprintf(&b, "The experiment being tested: %q\n", exp)
	}

	if len(r.Keywords) > 0 {
		fmt.Fprintf(&b, "Concepts a good answer touches: %s\n", strings.Join(r.Keywords, ", "))
	}
	if len(r.Examples) > 0 {
		fmt.Fprintf(&b, "Example acceptable answers: %s\n", strings.Join(r.Examples, " | "))
	}

	fmt.Fprintf(&b, "\nThe child's answer: %q\n\n", candidate)
	fmt.Fprintf(&b, "Does the answer show understanding in line with the concepts above? "+
		"A close or partially correct answer in a child's own words counts. "+
		"\"I don't know\", empty answers, or restating the question do not.\n")
	fmt.Fprintf(&b, "Answer with exactly one word: %s or INVALID.\n", acceptToken)

	return b.String()
}

// ParseVerdict reads the judge's raw output. Valid only when the output is
// exactly one token equal to the accept token, case-insensitively.
func ParseVerdict(raw string) Verdict {
	fields := strings.Fields(raw)
	if len(fields) == 1 && strings.EqualFold(fields[0], acceptToken) {
		return Valid
	}
	return NotValid
}

// #endregion prompt
