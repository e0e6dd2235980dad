package session

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sparkyed/sparky-engine/internal/phase"
)

// #endregion imports

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id      TEXT PRIMARY KEY,
	checklist_json  TEXT NOT NULL,
	scratch_json    TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transcript (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	role        TEXT NOT NULL,
	text        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS turn_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	turn_id     TEXT NOT NULL,
	step        TEXT NOT NULL,
	decision    TEXT NOT NULL,
	verdict     TEXT,
	reason      TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// Store keeps sessions in SQLite. Each session's turn pipeline must hold
// the lock from Acquire across its whole read-mutate-save cycle; turns for
// different sessions proceed independently.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations. Use ":memory:" for
// an ephemeral store.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region locking

// Acquire locks the named session and returns the unlock function. A
// session's state is read-modify-write across awaited oracle calls, so two
// concurrent turns racing on Save would silently lose one transition.
func (s *Store) Acquire(sessionID string) func() {
	s.mu.Lock()
	m, ok := s.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[sessionID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// #endregion locking

// #region get-or-create

// GetOrCreate loads the session snapshot, initializing a fresh one (and
// persisting it) on first contact with the id.
func (s *Store) GetOrCreate(sessionID string) (Snapshot, error) {
	var checklistJSON, scratchJSON, createdStr string
	err := s.db.QueryRow(
		`SELECT checklist_json, scratch_json, created_at FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&checklistJSON, &scratchJSON, &createdStr)
	if err == sql.ErrNoRows {
		snap := NewSnapshot(sessionID)
		if err := s.Save(sessionID, snap); err != nil {
			return Snapshot{}, err
		}
		return snap, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	snap := Snapshot{SessionID: sessionID, Checklist: phase.NewChecklist()}
	if err := json.Unmarshal([]byte(checklistJSON), snap.Checklist); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal checklist: %w", err)
	}
	if err := json.Unmarshal([]byte(scratchJSON), &snap.Scratch); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal scratch: %w", err)
	}
	if snap.Scratch == nil {
		snap.Scratch = make(map[string]string)
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)

	turns, err := s.loadTranscript(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Transcript = turns
	return snap, nil
}

func (s *Store) loadTranscript(sessionID string) ([]Turn, error) {
	rows, err := s.db.Query(
		`SELECT role, text, created_at FROM transcript WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdStr string
		if err := rows.Scan(&t.Role, &t.Text, &createdStr); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// #endregion get-or-create

// #region save

// Save overwrites the session's whole record atomically. There is no
// field-level update and no concurrency check; serialization comes from
// the Acquire lock.
func (s *Store) Save(sessionID string, snap Snapshot) error {
	checklistJSON, err := json.Marshal(snap.Checklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	scratchJSON, err := json.Marshal(snap.Scratch)
	if err != nil {
		return fmt.Errorf("marshal scratch: %w", err)
	}

	created := snap.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, checklist_json, scratch_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   checklist_json = excluded.checklist_json,
		   scratch_json   = excluded.scratch_json,
		   updated_at     = excluded.updated_at`,
		sessionID, string(checklistJSON), string(scratchJSON),
		created.Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM transcript WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	for _, t := range snap.Transcript {
		created := t.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		_, err := tx.Exec(
			`INSERT INTO transcript (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
			sessionID, t.Role, t.Text, created.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert transcript row: %w", err)
		}
	}

	return tx.Commit()
}

// #endregion save

// #region reset

// Reset deletes the session's record and transcript. Resetting an unknown
// session is a no-op; the next GetOrCreate starts fresh either way.
func (s *Store) Reset(sessionID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transcript WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("reset transcript: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return tx.Commit()
}

// #endregion reset
