package orchestrator

// #region imports
import (
	"fmt"
	"strings"

	"github.com/sparkyed/sparky-engine/internal/catalog"
)

// #endregion imports

// #region persona

// personaFor builds the system preamble sent with every generate call.
func personaFor(scratch map[string]string) string {
	var b strings.Builder
	b.WriteString("You are a friendly Grade 3 peer tutor named SPARKY.")
	if name := scratch[ScratchChildName]; name != "" {
		fmt.Fprintf(&b, " You are talking to %s.", name)
	}
	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Speak simply and kindly, like a curious classmate.\n")
	b.WriteString("- Use short sentences (8-12 words) and age-appropriate vocabulary.\n")
	b.WriteString("- Give hints or gentle feedback if the learner struggles. NEVER give the answer away. Always guide them.\n")
	b.WriteString("- Praise correct answers and relate ideas to real life when possible.\n")
	b.WriteString("- When narrating stories, if SPARKY is the character speaking, use first-person.\n")
	return b.String()
}

// #endregion persona

// #region onboarding-replies

// Fixed onboarding texts. These steps never call the oracle; a failed
// extraction re-emits the same prompt with no state change.
const (
	askNameReply     = "Before we start, can you please tell me your name?"
	askTopicReply    = "I didn't quite get that. What topic would you like to learn about today?"
	askStoryReply    = "I didn't quite get that. Which story number would you like to start with?"
	fallbackReply    = "Oh no! I got a little stuck. Can you try saying that again?"
	storyReadyFormat = "Great choice! Let's start our adventure: %q. Are you ready?"
)

func greetReply(name string) string {
	return fmt.Sprintf("Nice to meet you, %s! What would you like to learn about today?", name)
}

func storyMenuReply(topicName string, lines []string) string {
	return fmt.Sprintf(
		"Great choice! We're going to learn about %s.\n\n"+
			"Here are the stories you can choose from:\n%s\n\n"+
			"Please type the number of the story you'd like to start with!",
		topicName, strings.Join(lines, "\n"),
	)
}

// #endregion onboarding-replies

// #region intro-directives

func entryIntroDirective(story catalog.Story, sc catalog.StepScript) string {
	return fmt.Sprintf(
		"Start the story %q.\n"+
			"Your goal is to get the child to make an observation.\n\n"+
			"TASK:\n"+
			"1. Narrate this scene in your own simple, fun voice:\n"+
			"   \"\"\"\n   %s\n   \"\"\"\n"+
			"2. After narrating, ask an open-ended observation question that gets the child thinking about the scene, like: %s\n",
		story.Title, sc.Narrative, sc.MainQuestion,
	)
}

func engagementIntroDirective(sc catalog.StepScript, observation string) string {
	return fmt.Sprintf(
		"The child just made a correct observation: %q\n"+
			"TASK: Your job is to ask for their hypothesis (their 'guess').\n"+
			"1. Acknowledge their observation.\n"+
			"2. Ask a simple, Socratic 'why' question to get their hypothesis, like: %s\n",
		observation, sc.MainQuestion,
	)
}

func experimentAskDirective(topic, hypothesis string) string {
	return fmt.Sprintf(
		"The child's hypothesis about our topic (%q) is: %q\n\n"+
			"TASK:\n"+
			"1. Praise their hypothesis.\n"+
			"2. Ask the child if THEY can think of a simple 'what if' experiment to test their idea. "+
			"For example: \"How could we test that? Can you think of a 'what if' experiment for us to try?\"\n",
		topic, hypothesis,
	)
}

func conclusionIntroDirective(topic string) string {
	return fmt.Sprintf(
		"The experiment has concluded. Now it's time to reflect on what we've learned.\n\n"+
			"TASK:\n"+
			"1. Ask the child what they learned from the experiment and story about the topic %q.\n"+
			"2. Encourage them to explain in their own words, like: \"What did we find out? Can you tell me what you learned?\"\n",
		topic,
	)
}

// #endregion intro-directives

// #region prediction-directives

func childExperimentPredictionDirective(idea string) string {
	return fmt.Sprintf(
		"The child proposed a workable experiment idea: %q\n\n"+
			"TASK:\n"+
			"1. Praise the experiment idea.\n"+
			"2. Restate their experiment clearly.\n"+
			"3. Ask them: \"What do you THINK will happen in your experiment?\"\n",
		idea,
	)
}

func agentExperimentDirective(topic, hypothesis, idea string) string {
	return fmt.Sprintf(
		"CONTEXT:\n"+
			"The child's hypothesis is: %q.\n"+
			"We asked them to invent an experiment, but their response was: %q. They are stuck.\n"+
			"The current learning topic is: %q.\n\n"+
			"TASK: Take the lead.\n"+
			"1. Reassure them gently; it's okay to be stuck.\n"+
			"2. Propose YOUR OWN simple 'what if' experiment that tests their hypothesis.\n"+
			"3. Keep it tied to the topic and, if possible, the story scene.\n"+
			"4. Make it testable: a clear action or comparison with a real scientific outcome.\n"+
			"5. End by asking for their prediction: \"What do you think will happen in this experiment?\"\n",
		hypothesis, idea, topic,
	)
}

// #endregion prediction-directives

// #region scaffold-directive

// scaffoldDirective builds the hint-bearing re-prompt for a rejected
// answer: acknowledge gently, hint from the rubric, restate the question in
// simpler terms. Issued every time validation fails; there is no retry cap.
func scaffoldDirective(kindLabel string, sc catalog.StepScript, answer, topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The child tried to answer the %s question but wasn't quite right.\n", kindLabel)
	fmt.Fprintf(&b, "Their answer was: %q\n", answer)
	if topic != "" {
		fmt.Fprintf(&b, "The current topic is: %q\n", topic)
	}
	if sc.Narrative != "" {
		fmt.Fprintf(&b, "Story reminder:\n%q\n", sc.Narrative)
	}
	if len(sc.Rubric.Keywords) > 0 {
		fmt.Fprintf(&b, "Ideas a good answer touches (do NOT say these outright): %s\n", strings.Join(sc.Rubric.Keywords, ", "))
	}
	b.WriteString("\nTASK:\n")
	b.WriteString("1. Encourage them to think again kindly, like: \"That's an interesting thought! Let's look closer...\"\n")
	b.WriteString("2. Give a hint related to the topic and the story scene, without revealing the answer.\n")
	fmt.Fprintf(&b, "3. Re-ask the question in a simpler way: %s\n", sc.MainQuestion)
	return b.String()
}

func predictionScaffoldDirective(experiment, answer string) string {
	var b strings.Builder
	b.WriteString("The child tried to predict the experiment's outcome but wasn't quite right, or said they don't know.\n")
	fmt.Fprintf(&b, "Their answer was: %q\n", answer)
	if experiment != "" {
		fmt.Fprintf(&b, "The experiment being tested: %q\n", experiment)
	}
	b.WriteString("\nTASK:\n")
	b.WriteString("1. Gently acknowledge their answer. It's okay not to know.\n")
	b.WriteString("2. Give a hint tied directly to the experiment's setup. Remind them what we changed and ask a simpler, related question.\n")
	b.WriteString("3. Re-ask the prediction question: \"So, what do you think will happen?\"\n")
	return b.String()
}

// #endregion scaffold-directive

// #region resolution-directive

func resolutionDirective(topic string, sc catalog.StepScript, hypothesis, prediction, conclusion string) string {
	return fmt.Sprintf(
		"The child's original hypothesis was: %q.\n"+
			"Their prediction for the experiment was: %q.\n"+
			"In their own words, what they learned: %q.\n"+
			"The current topic is: %q.\n\n"+
			"TASK: Wrap the lesson up.\n"+
			"1. Praise them for working it out.\n"+
			"2. State the scientific takeaway, explicitly connecting the hypothesis, the experiment's outcome, and the topic.\n"+
			"3. Smoothly tell the final part of the story:\n"+
			"   \"\"\"\n   %s\n   \"\"\"\n"+
			"4. Finish with the real-life application question: %s\n",
		hypothesis, prediction, conclusion, topic, sc.Narrative, sc.MainQuestion,
	)
}

// #endregion resolution-directive

// #region completed-directive

func completedDirective(storyTitle, input string) string {
	if storyTitle == "" {
		return fmt.Sprintf(
			"Have a fun, free-form chat with the child. Respond to their last message: %q", input)
	}
	return fmt.Sprintf(
		"The story %q is now complete. Have a fun, free-form chat with the child. "+
			"Respond to their last message: %q", storyTitle, input)
}

// #endregion completed-directive
