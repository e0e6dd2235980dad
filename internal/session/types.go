package session

// #region imports
import (
	"time"

	"github.com/sparkyed/sparky-engine/internal/phase"
)

// #endregion imports

// #region turn

// Roles for transcript turns.
const (
	RoleChild = "child"
	RoleAgent = "agent"
)

// Turn is one transcript entry. The transcript is append-only: the engine
// receives a read view and returns text to append, never reordering or
// deleting entries.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion turn

// #region snapshot

// Snapshot is the full per-session record: progression state, scratch
// slots, and transcript. Save is a whole-record overwrite.
type Snapshot struct {
	SessionID  string
	Checklist  *phase.Checklist
	Scratch    map[string]string
	Transcript []Turn
	CreatedAt  time.Time
}

// NewSnapshot returns a fresh session record: all steps undone, empty
// scratch, empty transcript.
func NewSnapshot(sessionID string) Snapshot {
	return Snapshot{
		SessionID: sessionID,
		Checklist: phase.NewChecklist(),
		Scratch:   make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
}

// #endregion snapshot
