package orchestrator

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/sparkyed/sparky-engine/internal/evaluate"
	"github.com/sparkyed/sparky-engine/internal/logging"
	"github.com/sparkyed/sparky-engine/internal/phase"
)

// #endregion imports

// Onboarding handlers are deterministic: pure local extraction against the
// catalog, no oracle call. A failed extraction re-emits the same prompt and
// leaves state unchanged — a bounded local retry, never escalated.

// #region get-name

func (e *Engine) handleGetName(_ context.Context, t *turn) (outcome, error) {
	name, ok := evaluate.ExtractName(t.input)
	if !ok {
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepGotName, logging.DecisionReprompt, "", "no name extracted")
		return outcome{reply: Reply{Text: askNameReply}}, nil
	}

	t.snap.Scratch[ScratchChildName] = name
	e.advance(t.snap, phase.StepGotName)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepGotName, logging.DecisionAdvance, "", "name="+name)

	return outcome{reply: Reply{
		Text:    greetReply(name),
		Choices: e.catalog.TopicNames(),
	}}, nil
}

// #endregion get-name

// #region pick-topic

func (e *Engine) handlePickTopic(_ context.Context, t *turn) (outcome, error) {
	names := e.catalog.TopicNames()
	topicName, ok := evaluate.ExtractTopic(t.input, names)
	if !ok {
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepPickedTopic, logging.DecisionReprompt, "", "no topic matched")
		return outcome{reply: Reply{Text: askTopicReply, Choices: names}}, nil
	}

	topic, found := e.catalog.TopicByName(topicName)
	if !found {
		// ExtractTopic only returns names from the list; treat a miss here
		// as an extraction failure anyway.
		log.Printf("[ORCH] matched topic %q has no catalog entry", topicName)
		return outcome{reply: Reply{Text: askTopicReply, Choices: names}}, nil
	}

	stories := e.catalog.StoriesForTopic(topic.ID)
	storyMap := make(map[string]string, len(stories))
	lines := make([]string, 0, len(stories))
	titles := make([]string, 0, len(stories))
	for i, st := range stories {
		num := strconv.Itoa(i + 1)
		storyMap[num] = st.ID
		lines = append(lines, fmt.Sprintf("%s. %s", num, st.Title))
		titles = append(titles, st.Title)
	}
	mapJSON, err := json.Marshal(storyMap)
	if err != nil {
		return outcome{}, fmt.Errorf("marshal story map: %w", err)
	}

	t.snap.Scratch[ScratchTopic] = topic.Name
	t.snap.Scratch[ScratchTopicID] = topic.ID
	t.snap.Scratch[ScratchStoryMap] = string(mapJSON)
	e.advance(t.snap, phase.StepPickedTopic)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepPickedTopic, logging.DecisionAdvance, "", "topic="+topic.ID)

	return outcome{reply: Reply{
		Text:    storyMenuReply(topic.Name, lines),
		Choices: titles,
	}}, nil
}

// #endregion pick-topic

// #region select-story

func (e *Engine) handleSelectStory(_ context.Context, t *turn) (outcome, error) {
	choice, ok := evaluate.ExtractStoryChoice(t.input)
	if !ok {
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepStorySelected, logging.DecisionReprompt, "", "no number extracted")
		return outcome{reply: Reply{Text: askStoryReply}}, nil
	}

	var storyMap map[string]string
	if raw := t.snap.Scratch[ScratchStoryMap]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &storyMap); err != nil {
			log.Printf("[ORCH] corrupt story map in scratch: %v", err)
		}
	}
	storyID, ok := storyMap[strconv.Itoa(choice)]
	if !ok {
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepStorySelected, logging.DecisionReprompt, "", "number not on menu")
		return outcome{reply: Reply{Text: askStoryReply}}, nil
	}

	story, found := e.catalog.StoryByID(storyID)
	if !found {
		log.Printf("[ORCH] story map points at unknown story %q", storyID)
		return outcome{reply: Reply{Text: askStoryReply}}, nil
	}

	t.snap.Scratch[ScratchStoryID] = story.ID
	e.advance(t.snap, phase.StepStorySelected)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepStorySelected, logging.DecisionAdvance, "", "story="+story.ID)

	// The entry scene starts on the child's next message ("ready!"), not on
	// this one.
	return outcome{reply: Reply{Text: fmt.Sprintf(storyReadyFormat, story.Title)}}, nil
}

// #endregion select-story
