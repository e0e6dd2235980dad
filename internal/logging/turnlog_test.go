package logging

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/sparkyed/sparky-engine/internal/session"
)

func tempDB(t *testing.T) *sql.DB {
	t.Helper()
	s, err := session.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.DB()
}

func TestLogTurnInsertsRow(t *testing.T) {
	db := tempDB(t)

	err := LogTurn(db, Entry{
		SessionID: "kid-1",
		TurnID:    "turn-1",
		Step:      "entry_point",
		Decision:  DecisionAdvance,
		Verdict:   "valid",
		Reason:    "observation accepted",
	})
	if err != nil {
		t.Fatalf("LogTurn: %v", err)
	}

	var step, decision, verdict string
	err = db.QueryRow(
		`SELECT step, decision, verdict FROM turn_log WHERE session_id = 'kid-1'`,
	).Scan(&step, &decision, &verdict)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if step != "entry_point" || decision != DecisionAdvance || verdict != "valid" {
		t.Fatalf("row mismatch: %s %s %s", step, decision, verdict)
	}
}

func TestLogTurnEmptyFieldsStoredAsNull(t *testing.T) {
	db := tempDB(t)

	err := LogTurn(db, Entry{
		SessionID: "kid-2",
		TurnID:    "turn-1",
		Step:      "got_name",
		Decision:  DecisionReprompt,
	})
	if err != nil {
		t.Fatalf("LogTurn: %v", err)
	}

	var verdict, reason sql.NullString
	err = db.QueryRow(
		`SELECT verdict, reason FROM turn_log WHERE session_id = 'kid-2'`,
	).Scan(&verdict, &reason)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if verdict.Valid || reason.Valid {
		t.Fatalf("expected NULL verdict and reason, got %+v %+v", verdict, reason)
	}
}
