package sqlite3

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewInMemoryUsesSingleConnection(t *testing.T) {
	db, err := New(context.Background(), WithMaxOpenConns(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open conns = %d, want 1", got)
	}
	if err := db.Migrate(context.Background(), "CREATE TABLE IF NOT EXISTS t (id INTEGER)", "INSERT INTO t (id) VALUES (1)"); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM t"); err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := New(context.Background(), WithPath(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q", db.Path())
	}
	if err := db.Migrate(context.Background(), "CREATE TABLE x (id INTEGER)", "BROKEN SQL"); err == nil {
		t.Fatalf("Migrate should fail on invalid statement")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: ":memory:", want: ":memory:"},
		{path: "file:x.db?cache=shared", want: "file:x.db?cache=shared"},
		{path: "/var/lib/monitor.db", want: "file:/var/lib/monitor.db?_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		if got := newConfig(WithPath(tt.path)).dsn(); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
