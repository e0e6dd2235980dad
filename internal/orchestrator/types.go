package orchestrator

// #region imports
import (
	"context"

	"github.com/sparkyed/sparky-engine/internal/oracle"
)

// #endregion imports

// #region generator

// Generator is the text-generation capability: given the prior transcript
// and a directive describing this turn's task, produce the tutor's reply.
type Generator interface {
	Generate(ctx context.Context, history []oracle.Message, directive string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, history []oracle.Message, directive string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, history []oracle.Message, directive string) (string, error) {
	return f(ctx, history, directive)
}

// #endregion generator

// #region reply

// Reply is what a turn hands back to the shell: the conversational text and
// optional selectable side choices (topic names, story titles).
type Reply struct {
	Text    string
	Choices []string
}

// #endregion reply

// #region scratch-keys

// Scratch slot names. Written by one step's handler, read by later ones;
// never deleted mid-story, cleared on session reset.
const (
	ScratchChildName        = "child_name"
	ScratchTopic            = "topic"
	ScratchTopicID          = "topic_id"
	ScratchStoryID          = "story_id"
	ScratchStoryMap         = "story_map" // JSON: menu number → story id
	ScratchLastObservation  = "last_observation"
	ScratchLastHypothesis   = "last_hypothesis"
	ScratchLastExperiment   = "last_experiment"
	ScratchLastPrediction   = "last_prediction"
	ScratchLastConclusion   = "last_conclusion"
	ScratchExperimentAuthor = "experiment_author" // "child" or "agent"

	// scaffoldCountPrefix prefixes per-step scaffold counters. The loop has
	// no iteration cap; the counter exists so provenance shows how long a
	// learner struggled and so a cap could be added by policy later.
	scaffoldCountPrefix = "scaffold_count:"
)

// #endregion scratch-keys
