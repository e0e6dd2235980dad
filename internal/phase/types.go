package phase

// #region step

// Step identifies a major step of the tutoring script.
type Step string

const (
	// Onboarding steps — deterministic, no oracle involvement.
	StepGotName       Step = "got_name"
	StepPickedTopic   Step = "picked_topic"
	StepStorySelected Step = "story_selected"

	// Pedagogical steps — each drives a two-turn ask/judge exchange.
	StepEntryPoint Step = "entry_point"
	StepEngagement Step = "engagement"
	StepExperiment Step = "experiment"
	StepConclusion Step = "conclusion"
	StepResolution Step = "resolution"

	// StepCompleted is the terminal sentinel: every scripted step is done
	// and the conversation is free-form.
	StepCompleted Step = "completed"
)

// Script returns the major steps in script order. StepCompleted is not a
// list entry; CurrentMajor reports it once every listed step is done.
func Script() []Step {
	return []Step{
		StepGotName,
		StepPickedTopic,
		StepStorySelected,
		StepEntryPoint,
		StepEngagement,
		StepExperiment,
		StepConclusion,
		StepResolution,
	}
}

// #endregion step

// #region sub-steps

// Sub-step flags scoped to the currently active major step. They distinguish
// "question asked" from "answer being judged" within one step.
const (
	// SubIntroAsked is set once a step's introductory narration/question has
	// gone out; from then on incoming input is judged as an answer.
	SubIntroAsked = "intro_asked"

	// SubExperimentAsked is the experiment step's second flag: set once the
	// prediction question has been asked (for either the child's experiment
	// or the teacher-authored one).
	SubExperimentAsked = "experiment_asked"
)

// SubSteps returns the sub-step flag names in order.
func SubSteps() []string {
	return []string{SubIntroAsked, SubExperimentAsked}
}

// #endregion sub-steps
