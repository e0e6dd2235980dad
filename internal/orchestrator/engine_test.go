package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/oracle"
	"github.com/sparkyed/sparky-engine/internal/phase"
	"github.com/sparkyed/sparky-engine/internal/session"
	"github.com/sparkyed/sparky-engine/internal/validate"
)

const testContent = `
topics:
  - id: habitats
    name: Animal Habitats
    learning_outcome: Animals depend on their habitat.

stories:
  - id: dodo
    title: The Lonely Dodo
    topic: habitats
    steps:
      entry_point:
        narrative: Sailors are cutting down the dodo's fruit trees.
        main_question: What do you see happening?
        rubric:
          keywords: [trees, cut]
      engagement:
        narrative: Another tree falls.
        main_question: Why is that a problem for the dodo?
        rubric:
          keywords: [food, shelter]
      experiment:
        main_question: How could we test it?
        rubric:
          keywords: [compare, take away]
      conclusion:
        main_question: What did we learn?
        rubric:
          keywords: [habitat, survive]
      resolution:
        narrative: The islanders plant new trees.
        main_question: What could you protect near your home?
        rubric:
          keywords: [park, pond]
  - id: second
    title: The Second Story
    topic: habitats
    steps:
      entry_point:
        narrative: Another scene.
        main_question: What do you notice?
        rubric:
          keywords: [notice]
`

// countingGen returns numbered replies and records every directive.
type countingGen struct {
	calls      int
	directives []string
	failNext   bool
}

func (g *countingGen) Generate(_ context.Context, _ []oracle.Message, directive string) (string, error) {
	if g.failNext {
		g.failNext = false
		return "", errors.New("oracle unavailable")
	}
	g.calls++
	g.directives = append(g.directives, directive)
	return fmt.Sprintf("generated reply %d", g.calls), nil
}

func testEngine(t *testing.T) (*Engine, *countingGen, *session.Store) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "content.yaml"), []byte(testContent), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}
	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store, err := session.NewStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gen := &countingGen{}
	return NewEngine(cat, gen, validate.NewRuleDelegate(), store), gen, store
}

func currentStep(t *testing.T, store *session.Store, sessionID string) phase.Step {
	t.Helper()
	snap, err := store.GetOrCreate(sessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return snap.Checklist.CurrentMajor()
}

func mustTurn(t *testing.T, e *Engine, sessionID, input string) Reply {
	t.Helper()
	rep, err := e.HandleTurn(context.Background(), sessionID, input)
	if err != nil {
		t.Fatalf("HandleTurn(%q): %v", input, err)
	}
	return rep
}

func TestOnboardingFlow(t *testing.T) {
	e, _, store := testEngine(t)
	const sid = "kid"

	// No name in the first message: re-prompt, no progress.
	rep := mustTurn(t, e, sid, "hi!")
	if rep.Text != askNameReply {
		t.Fatalf("expected name prompt, got %q", rep.Text)
	}
	if got := currentStep(t, store, sid); got != phase.StepGotName {
		t.Fatalf("expected %s, got %s", phase.StepGotName, got)
	}

	rep = mustTurn(t, e, sid, "my name is timmy")
	if !strings.Contains(rep.Text, "Timmy") {
		t.Fatalf("greeting missing name: %q", rep.Text)
	}
	if len(rep.Choices) == 0 {
		t.Fatal("expected topic choices")
	}
	if got := currentStep(t, store, sid); got != phase.StepPickedTopic {
		t.Fatalf("expected %s, got %s", phase.StepPickedTopic, got)
	}

	// Unknown topic: re-prompt with choices, no progress.
	rep = mustTurn(t, e, sid, "dinosaurs")
	if rep.Text != askTopicReply {
		t.Fatalf("expected topic re-prompt, got %q", rep.Text)
	}

	rep = mustTurn(t, e, sid, "habitats please")
	if !strings.Contains(rep.Text, "The Lonely Dodo") || !strings.Contains(rep.Text, "The Second Story") {
		t.Fatalf("story menu incomplete: %q", rep.Text)
	}
	if got := currentStep(t, store, sid); got != phase.StepStorySelected {
		t.Fatalf("expected %s, got %s", phase.StepStorySelected, got)
	}

	// Number off the menu: re-prompt.
	rep = mustTurn(t, e, sid, "9")
	if rep.Text != askStoryReply {
		t.Fatalf("expected story re-prompt, got %q", rep.Text)
	}

	rep = mustTurn(t, e, sid, "1")
	if !strings.Contains(rep.Text, "The Lonely Dodo") {
		t.Fatalf("ready message missing title: %q", rep.Text)
	}
	if got := currentStep(t, store, sid); got != phase.StepEntryPoint {
		t.Fatalf("expected %s, got %s", phase.StepEntryPoint, got)
	}

	snap, _ := store.GetOrCreate(sid)
	if snap.Scratch[ScratchChildName] != "Timmy" {
		t.Fatalf("child name not recorded: %v", snap.Scratch)
	}
	if snap.Scratch[ScratchStoryID] != "dodo" {
		t.Fatalf("story id not recorded: %v", snap.Scratch)
	}
}

func onboard(t *testing.T, e *Engine, sid string) {
	t.Helper()
	mustTurn(t, e, sid, "my name is timmy")
	mustTurn(t, e, sid, "habitats")
	mustTurn(t, e, sid, "1")
}

func TestFullStoryProgression(t *testing.T) {
	e, gen, store := testEngine(t)
	const sid = "kid"
	onboard(t, e, sid)

	// "ready!" triggers the entry narration.
	rep := mustTurn(t, e, sid, "ready!")
	if rep.Text != "generated reply 1" {
		t.Fatalf("expected first generated reply, got %q", rep.Text)
	}

	// Valid observation advances and asks the hypothesis question in the
	// same reply turn.
	mustTurn(t, e, sid, "they are cutting the trees")
	if got := currentStep(t, store, sid); got != phase.StepEngagement {
		t.Fatalf("expected %s, got %s", phase.StepEngagement, got)
	}

	mustTurn(t, e, sid, "the dodo needs the trees for food")
	if got := currentStep(t, store, sid); got != phase.StepExperiment {
		t.Fatalf("expected %s, got %s", phase.StepExperiment, got)
	}

	// A workable experiment idea: prediction question goes out.
	mustTurn(t, e, sid, "take away the trees and compare")
	snap, _ := store.GetOrCreate(sid)
	if snap.Scratch[ScratchExperimentAuthor] != "child" {
		t.Fatalf("expected child-authored experiment, got %q", snap.Scratch[ScratchExperimentAuthor])
	}
	if got := currentStep(t, store, sid); got != phase.StepExperiment {
		t.Fatalf("prediction still pending, expected %s, got %s", phase.StepExperiment, got)
	}

	// Prediction rubric reuses the step rubric.
	mustTurn(t, e, sid, "if we take away the trees the dodo gets hungry")
	if got := currentStep(t, store, sid); got != phase.StepConclusion {
		t.Fatalf("expected %s, got %s", phase.StepConclusion, got)
	}

	mustTurn(t, e, sid, "animals need their habitat to survive")
	// Conclusion accepted: the resolution narrates and completes in the
	// same turn.
	if got := currentStep(t, store, sid); got != phase.StepCompleted {
		t.Fatalf("expected %s, got %s", phase.StepCompleted, got)
	}

	// Free-form chat afterwards still answers.
	rep = mustTurn(t, e, sid, "that was fun, tell me more!")
	if rep.Text == "" || rep.Text == fallbackReply {
		t.Fatalf("free-form chat broken: %q", rep.Text)
	}

	snap, _ = store.GetOrCreate(sid)
	for _, key := range []string{ScratchLastObservation, ScratchLastHypothesis, ScratchLastExperiment, ScratchLastPrediction, ScratchLastConclusion} {
		if snap.Scratch[key] == "" {
			t.Errorf("scratch slot %s empty after full story", key)
		}
	}
	if gen.calls == 0 {
		t.Fatal("generator never called")
	}
}

func TestScaffoldLoopHasNoCap(t *testing.T) {
	e, _, store := testEngine(t)
	const sid = "kid"
	onboard(t, e, sid)
	mustTurn(t, e, sid, "ready!")

	for i := 0; i < 5; i++ {
		rep := mustTurn(t, e, sid, "a totally wrong answer")
		if rep.Text == fallbackReply {
			t.Fatalf("scaffold %d fell back: %q", i, rep.Text)
		}
		if got := currentStep(t, store, sid); got != phase.StepEntryPoint {
			t.Fatalf("scaffold %d advanced to %s", i, got)
		}
	}

	snap, _ := store.GetOrCreate(sid)
	if snap.Scratch["scaffold_count:entry_point"] != "5" {
		t.Fatalf("expected scaffold count 5, got %q", snap.Scratch["scaffold_count:entry_point"])
	}

	// A correct answer still gets through after any number of tries.
	mustTurn(t, e, sid, "the trees are being cut")
	if got := currentStep(t, store, sid); got != phase.StepEngagement {
		t.Fatalf("expected %s after recovery, got %s", phase.StepEngagement, got)
	}
}

func TestAgentTakesOverStuckExperiment(t *testing.T) {
	e, _, store := testEngine(t)
	const sid = "kid"
	onboard(t, e, sid)
	mustTurn(t, e, sid, "ready!")
	mustTurn(t, e, sid, "they cut the trees")
	mustTurn(t, e, sid, "no trees means no food")

	// Stuck child: the tutor proposes its own experiment and the generated
	// proposal becomes the experiment under test.
	rep := mustTurn(t, e, sid, "i don't know")
	snap, _ := store.GetOrCreate(sid)
	if snap.Scratch[ScratchExperimentAuthor] != "agent" {
		t.Fatalf("expected agent-authored experiment, got %q", snap.Scratch[ScratchExperimentAuthor])
	}
	if snap.Scratch[ScratchLastExperiment] != rep.Text {
		t.Fatalf("agent experiment not recorded: %q vs %q", snap.Scratch[ScratchLastExperiment], rep.Text)
	}
	if got := currentStep(t, store, sid); got != phase.StepExperiment {
		t.Fatalf("expected %s, got %s", phase.StepExperiment, got)
	}
}

func TestGenerateFailureLeavesStateUntouched(t *testing.T) {
	e, gen, store := testEngine(t)
	const sid = "kid"
	onboard(t, e, sid)

	before, _ := store.GetOrCreate(sid)
	transcriptLen := len(before.Transcript)

	gen.failNext = true
	rep, err := e.HandleTurn(context.Background(), sid, "ready!")
	if err != nil {
		t.Fatalf("generation failure must not surface as turn error: %v", err)
	}
	if rep.Text != fallbackReply {
		t.Fatalf("expected fallback, got %q", rep.Text)
	}

	after, _ := store.GetOrCreate(sid)
	if got := after.Checklist.CurrentMajor(); got != phase.StepEntryPoint {
		t.Fatalf("step moved to %s", got)
	}
	if after.Checklist.SubDone(phase.SubIntroAsked) {
		t.Fatal("sub-step flag saved despite failed turn")
	}
	if len(after.Transcript) != transcriptLen {
		t.Fatalf("transcript grew from %d to %d on failed turn", transcriptLen, len(after.Transcript))
	}

	// The same input succeeds on retry.
	rep = mustTurn(t, e, sid, "ready!")
	if rep.Text == fallbackReply {
		t.Fatalf("retry still failing: %q", rep.Text)
	}
}

func TestTransitionMarkersNeverReachTheChild(t *testing.T) {
	e, _, store := testEngine(t)
	const sid = "kid"
	onboard(t, e, sid)

	marked := GeneratorFunc(func(_ context.Context, _ []oracle.Message, _ string) (string, error) {
		return "Here we go! [PHASE_ADVANCE:engagement] What do you see?", nil
	})
	e2 := NewEngine(e.catalog, marked, validate.NewRuleDelegate(), store)

	rep := mustTurn(t, e2, sid, "ready!")
	if strings.Contains(rep.Text, "PHASE_ADVANCE") {
		t.Fatalf("marker leaked: %q", rep.Text)
	}
	if !strings.Contains(rep.Text, "What do you see?") {
		t.Fatalf("surrounding text lost: %q", rep.Text)
	}
}

func TestTranscriptRecordsBothSides(t *testing.T) {
	e, _, store := testEngine(t)
	const sid = "kid"

	mustTurn(t, e, sid, "my name is zoe")
	snap, _ := store.GetOrCreate(sid)
	if len(snap.Transcript) != 2 {
		t.Fatalf("expected 2 transcript turns, got %d", len(snap.Transcript))
	}
	if snap.Transcript[0].Role != session.RoleChild || snap.Transcript[0].Text != "my name is zoe" {
		t.Fatalf("child turn wrong: %+v", snap.Transcript[0])
	}
	if snap.Transcript[1].Role != session.RoleAgent {
		t.Fatalf("agent turn wrong: %+v", snap.Transcript[1])
	}
}

func TestResetStartsOver(t *testing.T) {
	e, _, store := testEngine(t)
	const sid = "kid"
	onboard(t, e, sid)

	if err := e.ResetSession(sid); err != nil {
		t.Fatalf("ResetSession: %v", err)
	}
	if got := currentStep(t, store, sid); got != phase.StepGotName {
		t.Fatalf("expected fresh session at %s, got %s", phase.StepGotName, got)
	}
	rep := mustTurn(t, e, sid, "hello again")
	if rep.Text != askNameReply {
		t.Fatalf("expected name prompt after reset, got %q", rep.Text)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	e, _, store := testEngine(t)

	mustTurn(t, e, "kid-a", "my name is ada")
	mustTurn(t, e, "kid-b", "hi!")

	if got := currentStep(t, store, "kid-a"); got != phase.StepPickedTopic {
		t.Fatalf("kid-a at %s", got)
	}
	if got := currentStep(t, store, "kid-b"); got != phase.StepGotName {
		t.Fatalf("kid-b at %s", got)
	}
}

func TestExtractAdvanceMarker(t *testing.T) {
	cases := []struct {
		in         string
		wantClean  string
		wantTarget string
	}{
		{"plain text", "plain text", ""},
		{"before [PHASE_ADVANCE:engagement] after", "before  after", "engagement"},
		{"[PHASE_ADVANCE:a] x [PHASE_ADVANCE:b]", "x", "b"},
		{"[PHASE_ADVANCE:experiment]", "", "experiment"},
	}
	for _, c := range cases {
		clean, target := ExtractAdvanceMarker(c.in)
		if clean != c.wantClean || target != c.wantTarget {
			t.Errorf("ExtractAdvanceMarker(%q) = %q, %q; want %q, %q",
				c.in, clean, target, c.wantClean, c.wantTarget)
		}
	}
}
