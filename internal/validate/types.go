package validate

// #region imports
import (
	"context"

	"github.com/sparkyed/sparky-engine/internal/catalog"
)

// #endregion imports

// #region verdict

// Verdict is the binary outcome of judging an answer.
type Verdict string

const (
	Valid    Verdict = "valid"
	NotValid Verdict = "not_valid"
)

// #endregion verdict

// #region kind

// Kind names what sort of answer is being judged. It selects the judgment
// prompt wording for the oracle strategy and labels provenance rows.
type Kind string

const (
	KindName           Kind = "name"
	KindTopic          Kind = "topic"
	KindObservation    Kind = "observation"
	KindHypothesis     Kind = "hypothesis"
	KindExperimentIdea Kind = "experiment_idea"
	KindPrediction     Kind = "prediction"
	KindConclusion     Kind = "conclusion"
	KindFreeForm       Kind = "free_form"
)

// #endregion kind

// #region delegate

// Delegate judges whether an answer satisfies a step's rubric. One
// operation per judged answer kind; scratch carries the session's named
// slots (topic, last hypothesis, ...) for context. Errors never advance a
// learner: callers treat any error as NotValid.
type Delegate interface {
	Name(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	Topic(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	Observation(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	Hypothesis(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	ExperimentIdea(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	Prediction(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	Conclusion(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
	FreeForm(ctx context.Context, candidate string, r catalog.Rubric, scratch map[string]string) (Verdict, error)
}

// #endregion delegate
