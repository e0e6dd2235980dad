package orchestrator

// #region imports
import (
	"context"
	"fmt"
	"log"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/logging"
	"github.com/sparkyed/sparky-engine/internal/phase"
	"github.com/sparkyed/sparky-engine/internal/validate"
)

// #endregion imports

// Pedagogical handlers. Each major step after onboarding is a two-turn
// ask/judge exchange: the first visit (sub-step undone) narrates and asks
// the step's question; later visits judge the child's answer via the
// delegate. A rejected answer scaffolds and re-asks; an accepted answer
// records the answer in scratch, marks the step done, and proceeds the
// trampoline so the next step's question goes out in the same reply turn.

// #region step-script

// stepScript resolves the chosen story's script for a step. A story that
// does not script the step is skippable (ok=false): the step advances
// unconditionally and the trampoline moves on. Reaching a pedagogical step
// with no story selected is a hard error.
func (e *Engine) stepScript(t *turn, step phase.Step) (story catalog.Story, sc catalog.StepScript, ok bool, err error) {
	story, found := e.currentStory(t.snap)
	if !found {
		return catalog.Story{}, catalog.StepScript{}, false, fmt.Errorf("orchestrator: step %s reached with no story selected", step)
	}
	sc, ok = story.Script(string(step))
	return story, sc, ok, nil
}

// skipStep advances past a step the chosen story does not script.
func (e *Engine) skipStep(t *turn, step phase.Step) outcome {
	log.Printf("[ORCH] turn %s: story %q does not script step %s, skipping", t.turnID, t.snap.Scratch[ScratchStoryID], step)
	e.advance(t.snap, step)
	e.logDecision(t.snap.SessionID, t.turnID, step, logging.DecisionAdvance, "", "step not scripted, skipped")
	return outcome{proceed: true, carry: t.input}
}

// #endregion step-script

// #region entry-point

func (e *Engine) handleEntryPoint(ctx context.Context, t *turn) (outcome, error) {
	story, sc, ok, err := e.stepScript(t, phase.StepEntryPoint)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		return e.skipStep(t, phase.StepEntryPoint), nil
	}

	if !t.snap.Checklist.SubDone(phase.SubIntroAsked) {
		text, err := e.generate(ctx, t.snap, entryIntroDirective(story, sc))
		if err != nil {
			return outcome{}, err
		}
		t.snap.Checklist.MarkSubDone(phase.SubIntroAsked)
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepEntryPoint, logging.DecisionReply, "", "entry narration sent")
		return outcome{reply: Reply{Text: text}}, nil
	}

	v, err := e.delegate.Observation(ctx, t.input, sc.Rubric, t.snap.Scratch)
	if err != nil {
		return outcome{}, err
	}
	if v != validate.Valid {
		return e.scaffold(ctx, t, phase.StepEntryPoint, "observation", sc)
	}

	t.snap.Scratch[ScratchLastObservation] = t.input
	e.advance(t.snap, phase.StepEntryPoint)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepEntryPoint, logging.DecisionAdvance, string(v), "observation accepted")
	return outcome{proceed: true, carry: t.input}, nil
}

// #endregion entry-point

// #region engagement

func (e *Engine) handleEngagement(ctx context.Context, t *turn) (outcome, error) {
	_, sc, ok, err := e.stepScript(t, phase.StepEngagement)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		return e.skipStep(t, phase.StepEngagement), nil
	}

	if !t.snap.Checklist.SubDone(phase.SubIntroAsked) {
		text, err := e.generate(ctx, t.snap, engagementIntroDirective(sc, t.snap.Scratch[ScratchLastObservation]))
		if err != nil {
			return outcome{}, err
		}
		t.snap.Checklist.MarkSubDone(phase.SubIntroAsked)
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepEngagement, logging.DecisionReply, "", "hypothesis question sent")
		return outcome{reply: Reply{Text: text}}, nil
	}

	v, err := e.delegate.Hypothesis(ctx, t.input, sc.Rubric, t.snap.Scratch)
	if err != nil {
		return outcome{}, err
	}
	if v != validate.Valid {
		return e.scaffold(ctx, t, phase.StepEngagement, "hypothesis", sc)
	}

	t.snap.Scratch[ScratchLastHypothesis] = t.input
	e.advance(t.snap, phase.StepEngagement)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepEngagement, logging.DecisionAdvance, string(v), "hypothesis accepted")
	return outcome{proceed: true, carry: t.input}, nil
}

// #endregion engagement

// #region experiment

// handleExperiment runs the three-beat experiment exchange: ask the child
// for an experiment idea, settle on one (theirs if workable, ours if not)
// and ask for a prediction, then judge the prediction.
func (e *Engine) handleExperiment(ctx context.Context, t *turn) (outcome, error) {
	_, sc, ok, err := e.stepScript(t, phase.StepExperiment)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		return e.skipStep(t, phase.StepExperiment), nil
	}
	topic := t.snap.Scratch[ScratchTopic]
	hypothesis := t.snap.Scratch[ScratchLastHypothesis]

	if !t.snap.Checklist.SubDone(phase.SubIntroAsked) {
		text, err := e.generate(ctx, t.snap, experimentAskDirective(topic, hypothesis))
		if err != nil {
			return outcome{}, err
		}
		t.snap.Checklist.MarkSubDone(phase.SubIntroAsked)
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepExperiment, logging.DecisionReply, "", "experiment invitation sent")
		return outcome{reply: Reply{Text: text}}, nil
	}

	if !t.snap.Checklist.SubDone(phase.SubExperimentAsked) {
		// The input is the child's experiment idea. A stuck child is not
		// scaffolded here; the tutor takes the lead instead.
		v, err := e.delegate.ExperimentIdea(ctx, t.input, sc.Rubric, t.snap.Scratch)
		if err != nil {
			return outcome{}, err
		}

		var text string
		if v == validate.Valid {
			text, err = e.generate(ctx, t.snap, childExperimentPredictionDirective(t.input))
			if err != nil {
				return outcome{}, err
			}
			t.snap.Scratch[ScratchLastExperiment] = t.input
			t.snap.Scratch[ScratchExperimentAuthor] = "child"
		} else {
			text, err = e.generate(ctx, t.snap, agentExperimentDirective(topic, hypothesis, t.input))
			if err != nil {
				return outcome{}, err
			}
			// The tutor's own proposal is the experiment under test from
			// here on.
			t.snap.Scratch[ScratchLastExperiment] = text
			t.snap.Scratch[ScratchExperimentAuthor] = "agent"
		}
		t.snap.Checklist.MarkSubDone(phase.SubExperimentAsked)
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepExperiment, logging.DecisionReply, string(v),
			"prediction question sent, author="+t.snap.Scratch[ScratchExperimentAuthor])
		return outcome{reply: Reply{Text: text}}, nil
	}

	v, err := e.delegate.Prediction(ctx, t.input, sc.Rubric, t.snap.Scratch)
	if err != nil {
		return outcome{}, err
	}
	if v != validate.Valid {
		n := e.bumpScaffoldCount(t.snap, phase.StepExperiment)
		text, err := e.generate(ctx, t.snap, predictionScaffoldDirective(t.snap.Scratch[ScratchLastExperiment], t.input))
		if err != nil {
			return outcome{}, err
		}
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepExperiment, logging.DecisionScaffold, string(v),
			fmt.Sprintf("prediction scaffold #%d", n))
		return outcome{reply: Reply{Text: text}}, nil
	}

	t.snap.Scratch[ScratchLastPrediction] = t.input
	e.advance(t.snap, phase.StepExperiment)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepExperiment, logging.DecisionAdvance, string(v), "prediction accepted")
	return outcome{proceed: true, carry: t.input}, nil
}

// #endregion experiment

// #region conclusion

func (e *Engine) handleConclusion(ctx context.Context, t *turn) (outcome, error) {
	_, sc, ok, err := e.stepScript(t, phase.StepConclusion)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		return e.skipStep(t, phase.StepConclusion), nil
	}

	if !t.snap.Checklist.SubDone(phase.SubIntroAsked) {
		text, err := e.generate(ctx, t.snap, conclusionIntroDirective(t.snap.Scratch[ScratchTopic]))
		if err != nil {
			return outcome{}, err
		}
		t.snap.Checklist.MarkSubDone(phase.SubIntroAsked)
		e.logDecision(t.snap.SessionID, t.turnID, phase.StepConclusion, logging.DecisionReply, "", "conclusion question sent")
		return outcome{reply: Reply{Text: text}}, nil
	}

	v, err := e.delegate.Conclusion(ctx, t.input, sc.Rubric, t.snap.Scratch)
	if err != nil {
		return outcome{}, err
	}
	if v != validate.Valid {
		return e.scaffold(ctx, t, phase.StepConclusion, "conclusion", sc)
	}

	t.snap.Scratch[ScratchLastConclusion] = t.input
	e.advance(t.snap, phase.StepConclusion)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepConclusion, logging.DecisionAdvance, string(v), "conclusion accepted")
	return outcome{proceed: true, carry: t.input}, nil
}

// #endregion conclusion

// #region resolution

// handleResolution is a one-shot: it narrates the story's ending with the
// scientific takeaway and completes the script in the same turn. Nothing is
// judged; the child's next message lands in free-form chat.
func (e *Engine) handleResolution(ctx context.Context, t *turn) (outcome, error) {
	_, sc, ok, err := e.stepScript(t, phase.StepResolution)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		return e.skipStep(t, phase.StepResolution), nil
	}

	text, err := e.generate(ctx, t.snap, resolutionDirective(
		t.snap.Scratch[ScratchTopic],
		sc,
		t.snap.Scratch[ScratchLastHypothesis],
		t.snap.Scratch[ScratchLastPrediction],
		t.snap.Scratch[ScratchLastConclusion],
	))
	if err != nil {
		return outcome{}, err
	}

	e.advance(t.snap, phase.StepResolution)
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepResolution, logging.DecisionAdvance, "", "story resolved")
	return outcome{reply: Reply{Text: text}}, nil
}

// #endregion resolution

// #region completed

func (e *Engine) handleCompleted(ctx context.Context, t *turn) (outcome, error) {
	var title string
	if story, ok := e.currentStory(t.snap); ok {
		title = story.Title
	}
	text, err := e.generate(ctx, t.snap, completedDirective(title, t.input))
	if err != nil {
		return outcome{}, err
	}
	e.logDecision(t.snap.SessionID, t.turnID, phase.StepCompleted, logging.DecisionReply, "", "free-form chat")
	return outcome{reply: Reply{Text: text}}, nil
}

// #endregion completed

// #region scaffold

// scaffold issues a hint-bearing re-prompt for a rejected answer. The step
// stays where it is; the sub-step flags are untouched, so the next input is
// judged against the same question.
func (e *Engine) scaffold(ctx context.Context, t *turn, step phase.Step, kindLabel string, sc catalog.StepScript) (outcome, error) {
	n := e.bumpScaffoldCount(t.snap, step)
	text, err := e.generate(ctx, t.snap, scaffoldDirective(kindLabel, sc, t.input, t.snap.Scratch[ScratchTopic]))
	if err != nil {
		return outcome{}, err
	}
	e.logDecision(t.snap.SessionID, t.turnID, step, logging.DecisionScaffold, string(validate.NotValid),
		fmt.Sprintf("%s scaffold #%d", kindLabel, n))
	return outcome{reply: Reply{Text: text}}, nil
}

// #endregion scaffold
