package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetState returns the stored value for key. found is false when the key is absent.
func GetState(db *sql.DB, key string) (value string, found bool, err error) {
	err = db.QueryRow(`SELECT value FROM ui_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get state %q: %w", key, err)
	}
	return value, true, nil
}

// SetState inserts or replaces the value for key.
func SetState(db *sql.DB, key, value string) error {
	query := `
		INSERT INTO ui_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
	`
	if _, err := db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set state %q: %w", key, err)
	}
	return nil
}

// DeleteState removes key. Deleting an absent key is not an error.
func DeleteState(db *sql.DB, key string) error {
	if _, err := db.Exec(`DELETE FROM ui_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}

// GetSessionState returns the value stored for key within session.
func GetSessionState(db *sql.DB, session, key string) (value string, found bool, err error) {
	err = db.QueryRow(`SELECT value FROM session_state WHERE session_id = ? AND key = ?`, session, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session state %q: %w", key, err)
	}
	return value, true, nil
}

// SetSessionState inserts or replaces the value for key within session.
func SetSessionState(db *sql.DB, session, key, value string) error {
	query := `
		INSERT INTO session_state (session_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
	`
	if _, err := db.Exec(query, session, key, value); err != nil {
		return fmt.Errorf("failed to set session state %q: %w", key, err)
	}
	return nil
}

// DeleteSessionState removes key within session.
func DeleteSessionState(db *sql.DB, session, key string) error {
	if _, err := db.Exec(`DELETE FROM session_state WHERE session_id = ? AND key = ?`, session, key); err != nil {
		return fmt.Errorf("failed to delete session state %q: %w", key, err)
	}
	return nil
}

// PurgeOtherSessions drops every session row not belonging to keep and returns the count removed.
func PurgeOtherSessions(db *sql.DB, keep string) (int64, error) {
	res, err := db.Exec(`DELETE FROM session_state WHERE session_id <> ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to purge session state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged session rows: %w", err)
	}
	return n, nil
}
