package replay

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/oracle"
	"github.com/sparkyed/sparky-engine/internal/orchestrator"
	"github.com/sparkyed/sparky-engine/internal/session"
	"github.com/sparkyed/sparky-engine/internal/validate"
)

// #endregion imports

// #region types

// TurnResult captures the outcome of replaying one child message through
// the engine.
type TurnResult struct {
	Index int
	Input string
	Reply string
	Step  string

	// Mismatches lists every expectation the turn failed; empty means pass.
	Mismatches []string
}

// Passed reports whether every expectation on the turn held.
func (r TurnResult) Passed() bool { return len(r.Mismatches) == 0 }

// Summary aggregates a replay run.
type Summary struct {
	Description string
	TotalTurns  int
	Passed      int
	Failed      int
	FinalStep   string
}

// #endregion types

// #region scripted-generator

// ScriptedGenerator returns a generator that pops canned replies from the
// script in order. Once the script is exhausted it emits a numbered
// placeholder, so replies past the scripted prefix stay deterministic
// without being asserted on.
func ScriptedGenerator(script []string) orchestrator.GeneratorFunc {
	queue := append([]string(nil), script...)
	calls := 0
	return func(_ context.Context, _ []oracle.Message, _ string) (string, error) {
		calls++
		if len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			return next, nil
		}
		return fmt.Sprintf("(scripted reply %d)", calls), nil
	}
}

// #endregion scripted-generator

// #region run

// Run replays a fixture's turns through a real engine wired to an
// in-memory store, the rule delegate, and the fixture's scripted generator.
// Fully deterministic; no network, no disk state.
func Run(ctx context.Context, f *Fixture) ([]TurnResult, Summary, error) {
	cat, err := catalog.Load(f.ContentDir)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("load catalog: %w", err)
	}
	store, err := session.NewStore(":memory:")
	if err != nil {
		return nil, Summary{}, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	engine := orchestrator.NewEngine(cat, ScriptedGenerator(f.GeneratorScript), validate.NewRuleDelegate(), store)
	const sessionID = "replay"

	results := make([]TurnResult, 0, len(f.Turns))
	for i, ft := range f.Turns {
		rep, err := engine.HandleTurn(ctx, sessionID, ft.Input)
		if err != nil {
			return results, Summary{}, fmt.Errorf("turn %d: %w", i, err)
		}

		snap, err := store.GetOrCreate(sessionID)
		if err != nil {
			return results, Summary{}, fmt.Errorf("turn %d: reload session: %w", i, err)
		}
		step := string(snap.Checklist.CurrentMajor())

		r := TurnResult{Index: i, Input: ft.Input, Reply: rep.Text, Step: step}
		if ft.ExpectStep != "" && ft.ExpectStep != step {
			r.Mismatches = append(r.Mismatches,
				fmt.Sprintf("step: want %q, got %q", ft.ExpectStep, step))
		}
		if ft.ExpectReplyContains != "" && !strings.Contains(rep.Text, ft.ExpectReplyContains) {
			r.Mismatches = append(r.Mismatches,
				fmt.Sprintf("reply: want substring %q, got %q", ft.ExpectReplyContains, rep.Text))
		}
		results = append(results, r)
	}

	return results, Summarize(f, results), nil
}

// Summarize computes aggregate stats from turn results.
func Summarize(f *Fixture, results []TurnResult) Summary {
	s := Summary{Description: f.Description, TotalTurns: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if n := len(results); n > 0 {
		s.FinalStep = results[n-1].Step
	}
	return s
}

// #endregion run
