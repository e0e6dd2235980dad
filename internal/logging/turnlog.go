package logging

// #region imports
import (
	"database/sql"
	"fmt"
	"time"
)

// #endregion imports

// #region types

// Decisions recorded per turn.
const (
	DecisionAdvance  = "advance"  // step validated, major flag flipped
	DecisionScaffold = "scaffold" // answer rejected, hint re-prompt issued
	DecisionReprompt = "reprompt" // onboarding extraction failed, same prompt re-issued
	DecisionReply    = "reply"    // step emitted its ask or a plain reply, no judgment
	DecisionFallback = "fallback" // generation failed, apology returned, state untouched
)

// Entry is one turn-level provenance row: which step handled the turn and
// what the engine decided.
type Entry struct {
	SessionID string
	TurnID    string
	Step      string
	Decision  string
	Verdict   string
	Reason    string
	CreatedAt time.Time
}

// #endregion types

// #region log-turn

// LogTurn writes a provenance entry to the turn_log table.
func LogTurn(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO turn_log (session_id, turn_id, step, decision, verdict, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.TurnID,
		entry.Step,
		entry.Decision,
		nullIfEmpty(entry.Verdict),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// #endregion log-turn

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
