package persist

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"magpie/internal/db"
)

// SQLiteStore keeps durable state in the ui_state table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database (see db.Open).
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	return db.GetState(s.db, key)
}

func (s *SQLiteStore) Set(key, value string) error {
	return db.SetState(s.db, key, value)
}

func (s *SQLiteStore) Delete(key string) error {
	return db.DeleteState(s.db, key)
}

// SessionStore keeps state for the lifetime of one program run. Rows written
// by earlier runs are purged when the store is opened.
type SessionStore struct {
	db *sql.DB
	id string
}

// OpenSessionStore starts a new session with a fresh id.
func OpenSessionStore(conn *sql.DB) (*SessionStore, error) {
	id := uuid.NewString()
	if _, err := db.PurgeOtherSessions(conn, id); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &SessionStore{db: conn, id: id}, nil
}

// ID returns the session identifier.
func (s *SessionStore) ID() string {
	return s.id
}

func (s *SessionStore) Get(key string) (string, bool, error) {
	return db.GetSessionState(s.db, s.id, key)
}

func (s *SessionStore) Set(key, value string) error {
	return db.SetSessionState(s.db, s.id, key, value)
}

func (s *SessionStore) Delete(key string) error {
	return db.DeleteSessionState(s.db, s.id, key)
}
