package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "magpie.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStateCRUD(t *testing.T) {
	conn := openTestDB(t)

	if _, found, err := GetState(conn, "k"); err != nil || found {
		t.Fatalf("GetState(missing) = found %v, err %v", found, err)
	}
	if err := SetState(conn, "k", "1"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := SetState(conn, "k", "2"); err != nil {
		t.Fatalf("SetState(overwrite) error = %v", err)
	}
	v, found, err := GetState(conn, "k")
	if err != nil || !found || v != "2" {
		t.Fatalf("GetState() = %q, %v, %v; want 2, true, nil", v, found, err)
	}
	if err := DeleteState(conn, "k"); err != nil {
		t.Fatalf("DeleteState() error = %v", err)
	}
	if err := DeleteState(conn, "k"); err != nil {
		t.Fatalf("DeleteState(missing) error = %v", err)
	}
	if _, found, _ := GetState(conn, "k"); found {
		t.Fatal("key still present after delete")
	}
}

func TestSessionStateIsolationAndPurge(t *testing.T) {
	conn := openTestDB(t)

	if err := SetSessionState(conn, "old", "flag", "1"); err != nil {
		t.Fatalf("SetSessionState(old) error = %v", err)
	}
	if err := SetSessionState(conn, "new", "flag", "1"); err != nil {
		t.Fatalf("SetSessionState(new) error = %v", err)
	}
	if _, found, _ := GetSessionState(conn, "other", "flag"); found {
		t.Fatal("session state leaked across sessions")
	}

	n, err := PurgeOtherSessions(conn, "new")
	if err != nil || n != 1 {
		t.Fatalf("PurgeOtherSessions() = %d, %v; want 1, nil", n, err)
	}
	if _, found, _ := GetSessionState(conn, "old", "flag"); found {
		t.Fatal("old session row survived purge")
	}
	if _, found, _ := GetSessionState(conn, "new", "flag"); !found {
		t.Fatal("current session row was purged")
	}
	if err := DeleteSessionState(conn, "new", "flag"); err != nil {
		t.Fatalf("DeleteSessionState() error = %v", err)
	}
}
