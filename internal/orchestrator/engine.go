package orchestrator

// #region imports
import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/logging"
	"github.com/sparkyed/sparky-engine/internal/oracle"
	"github.com/sparkyed/sparky-engine/internal/phase"
	"github.com/sparkyed/sparky-engine/internal/session"
	"github.com/sparkyed/sparky-engine/internal/validate"
)

// #endregion imports

// #region engine

// errNoText marks a generate call that returned nothing usable. Any error
// out of a handler means "generation failed": the turn ends with the fixed
// apology and the session is not saved.
var errNoText = errors.New("orchestrator: generator returned no usable text")

// outcome is what a step handler returns to the trampoline. proceed means
// the major step resolved and the same turn should re-dispatch to the new
// current step with carry as its input (compound turn).
type outcome struct {
	reply   Reply
	proceed bool
	carry   string
}

// turn bundles the mutable per-turn state handed to handlers.
type turn struct {
	snap   *session.Snapshot
	turnID string
	input  string
}

type handlerFunc func(ctx context.Context, t *turn) (outcome, error)

// Engine is the dialogue orchestrator: it maps (current step, sub-step,
// input) to a reply and the next phase state, delegating judgment to the
// validation delegate and wording to the generator.
type Engine struct {
	catalog  *catalog.Catalog
	gen      Generator
	delegate validate.Delegate
	store    *session.Store
	handlers map[phase.Step]handlerFunc
}

// NewEngine wires a fully dispatchable engine.
func NewEngine(cat *catalog.Catalog, gen Generator, delegate validate.Delegate, store *session.Store) *Engine {
	e := &Engine{
		catalog:  cat,
		gen:      gen,
		delegate: delegate,
		store:    store,
	}
	e.handlers = map[phase.Step]handlerFunc{
		phase.StepGotName:       e.handleGetName,
		phase.StepPickedTopic:   e.handlePickTopic,
		phase.StepStorySelected: e.handleSelectStory,
		phase.StepEntryPoint:    e.handleEntryPoint,
		phase.StepEngagement:    e.handleEngagement,
		phase.StepExperiment:    e.handleExperiment,
		phase.StepConclusion:    e.handleConclusion,
		phase.StepResolution:    e.handleResolution,
		phase.StepCompleted:     e.handleCompleted,
	}
	return e
}

// #endregion engine

// #region handle-turn

// HandleTurn runs one full conversational turn for the session. The
// per-session lock is held across the whole read-mutate-save cycle; the
// session is saved only after the handler chain succeeds, so a failed
// generate call leaves phase state, scratch, and transcript untouched.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, rawInput string) (Reply, error) {
	unlock := e.store.Acquire(sessionID)
	defer unlock()

	snap, err := e.store.GetOrCreate(sessionID)
	if err != nil {
		return Reply{}, err
	}

	turnID := uuid.NewString()
	input := strings.TrimSpace(rawInput)

	rep, err := e.runChain(ctx, &snap, turnID, input)
	if err != nil {
		log.Printf("[ORCH] turn %s: generation failed: %v (fallback, no state change)", turnID, err)
		e.logDecision(sessionID, turnID, snap.Checklist.CurrentMajor(), logging.DecisionFallback, "", err.Error())
		return Reply{Text: fallbackReply}, nil
	}

	snap.Transcript = append(snap.Transcript,
		session.Turn{Role: session.RoleChild, Text: rawInput},
		session.Turn{Role: session.RoleAgent, Text: rep.Text},
	)
	if err := e.store.Save(sessionID, snap); err != nil {
		return Reply{}, err
	}
	return rep, nil
}

// runChain is the trampoline: it re-dispatches while handlers keep
// resolving their step with the same input, instead of handlers calling
// each other recursively. The budget bounds a turn to one pass over the
// script.
func (e *Engine) runChain(ctx context.Context, snap *session.Snapshot, turnID, input string) (Reply, error) {
	t := &turn{snap: snap, turnID: turnID, input: input}
	budget := len(phase.Script()) + 1
	for i := 0; i < budget; i++ {
		step := snap.Checklist.CurrentMajor()
		h, ok := e.handlers[step]
		if !ok {
			// Corrupted/unknown phase degrades to free-form, never fails the turn.
			log.Printf("[ORCH] turn %s: no handler for step %q, degrading to free-form", turnID, step)
			h = e.handleCompleted
		}

		out, err := h(ctx, t)
		if err != nil {
			return Reply{}, err
		}
		if out.proceed {
			t.input = out.carry
			continue
		}
		return out.reply, nil
	}
	log.Printf("[ORCH] turn %s: advance budget exhausted at step %q", turnID, snap.Checklist.CurrentMajor())
	return Reply{Text: fallbackReply}, nil
}

// ResetSession reinitializes the session: fresh phase state, empty scratch,
// empty transcript. Idempotent.
func (e *Engine) ResetSession(sessionID string) error {
	unlock := e.store.Acquire(sessionID)
	defer unlock()
	return e.store.Reset(sessionID)
}

// #endregion handle-turn

// #region generate

// generate calls the text-generation capability with the persona, the
// prior transcript, and the directive, then strips any transition markers
// before the text can reach the learner.
func (e *Engine) generate(ctx context.Context, snap *session.Snapshot, directive string) (string, error) {
	history := toMessages(snap.Transcript)
	full := personaFor(snap.Scratch) + "\n" + directive

	text, err := e.gen.Generate(ctx, history, full)
	if err != nil {
		return "", err
	}
	clean, marker := ExtractAdvanceMarker(text)
	if marker != "" {
		log.Printf("[ORCH] stripped transition marker %q from generated text", marker)
	}
	if clean == "" {
		return "", errNoText
	}
	return clean, nil
}

func toMessages(transcript []session.Turn) []oracle.Message {
	msgs := make([]oracle.Message, 0, len(transcript))
	for _, t := range transcript {
		msgs = append(msgs, oracle.Message{Role: t.Role, Text: t.Text})
	}
	return msgs
}

// #endregion generate

// #region helpers

// currentStory resolves the session's chosen story, if onboarding has
// picked one.
func (e *Engine) currentStory(snap *session.Snapshot) (catalog.Story, bool) {
	id := snap.Scratch[ScratchStoryID]
	if id == "" {
		return catalog.Story{}, false
	}
	return e.catalog.StoryByID(id)
}

// advance marks the step done and clears every sub-step flag so the next
// step starts at "question not asked". Callers then proceed the trampoline.
func (e *Engine) advance(snap *session.Snapshot, step phase.Step) {
	snap.Checklist.MarkMajorDone(step)
	snap.Checklist.ClearSubs()
}

func (e *Engine) bumpScaffoldCount(snap *session.Snapshot, step phase.Step) int {
	key := scaffoldCountPrefix + string(step)
	n, _ := strconv.Atoi(snap.Scratch[key])
	n++
	snap.Scratch[key] = strconv.Itoa(n)
	return n
}

func (e *Engine) logDecision(sessionID, turnID string, step phase.Step, decision, verdict, reason string) {
	if e.store == nil {
		return
	}
	err := logging.LogTurn(e.store.DB(), logging.Entry{
		SessionID: sessionID,
		TurnID:    turnID,
		Step:      string(step),
		Decision:  decision,
		Verdict:   verdict,
		Reason:    reason,
	})
	if err != nil {
		log.Printf("[ORCH] failed to log decision: %v", err)
	}
}

// #endregion helpers
