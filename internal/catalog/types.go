package catalog

// #region rubric

// Rubric is the keyword/example set used to judge whether an answer
// satisfies a step's learning goal.
type Rubric struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
	Examples []string `yaml:"examples" json:"examples"`
}

// Empty reports whether the rubric carries no keywords and no examples.
func (r Rubric) Empty() bool {
	return len(r.Keywords) == 0 && len(r.Examples) == 0
}

// #endregion rubric

// #region step-script

// StepScript is the teacher-authored content for one pedagogical step of a
// story: the scene to narrate, the question to ask, and the rubric for
// judging the answer.
type StepScript struct {
	Narrative    string `yaml:"narrative" json:"narrative"`
	MainQuestion string `yaml:"main_question" json:"main_question"`
	Rubric       Rubric `yaml:"rubric" json:"rubric"`
}

// #endregion step-script

// #region topic

// Topic is one learnable subject. Immutable after load.
type Topic struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	LearningOutcome string   `yaml:"learning_outcome" json:"learning_outcome"`
	KeyConcepts     []string `yaml:"key_concepts" json:"key_concepts"`
}

// #endregion topic

// #region story

// Story is one scripted learning narrative belonging to a topic. Steps maps
// step name → script; step order comes from the phase script, not the map.
type Story struct {
	ID      string                `yaml:"id" json:"id"`
	Title   string                `yaml:"title" json:"title"`
	TopicID string                `yaml:"topic" json:"topic"`
	Steps   map[string]StepScript `yaml:"steps" json:"steps"`
}

// Script returns the step script for the named step, if the story has one.
// A missing step means there is nothing to narrate or validate for it.
func (s Story) Script(step string) (StepScript, bool) {
	sc, ok := s.Steps[step]
	return sc, ok
}

// #endregion story
