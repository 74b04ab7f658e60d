package db

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"auramesh/internal/config"
)

type captureHandler struct {
	mu      sync.Mutex
	records []map[string]slog.Value
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := map[string]slog.Value{"msg": slog.StringValue(r.Message)}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.records = append(h.records, m)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) sqlRecords() []map[string]slog.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.records {
		if m["msg"].String() == "sql" {
			out = append(out, m)
		}
	}
	return out
}

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Ingest
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Ingest{DSN: "file::memory:?cache=shared", Path: "ignored.db"},
			want: "file::memory:?cache=shared",
		},
		{
			name: "plain path",
			cfg:  config.Ingest{Path: filepath.Join(dir, "a", "aura.db")},
			want: "file:" + filepath.Join(dir, "a", "aura.db") + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "file uri with query",
			cfg:  config.Ingest{Path: "file:x.db?mode=rwc"},
			want: "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			if err != nil {
				t.Fatalf("buildDSN: %v", err)
			}
			if got != tt.want {
				t.Errorf("buildDSN() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aura.db")
	conn, err := Open(config.Ingest{Driver: "sqlite3", Path: path, MaxOpenConns: 1, MaxIdleConns: 1}, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = Close(conn) }()

	var one int
	if err := conn.QueryRow(`SELECT 1`).Scan(&one); err != nil || one != 1 {
		t.Fatalf("SELECT 1 = %d, %v", one, err)
	}
}

func TestLoggingConnector_LogsStatements(t *testing.T) {
	h := &captureHandler{}
	connector, err := NewLoggingConnector(":memory:", slog.New(h))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(1)
	defer func() { _ = conn.Close() }()

	if _, err := conn.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO t (name) VALUES (?)`, "probe"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var name string
	if err := conn.QueryRow(`SELECT name FROM t WHERE id = ?`, 1).Scan(&name); err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != "probe" {
		t.Errorf("name = %q; want probe", name)
	}

	var sawInsert, sawSelect bool
	for _, r := range h.sqlRecords() {
		q := r["sql"].String()
		switch {
		case strings.HasPrefix(q, "INSERT") && r["op"].String() == "exec":
			sawInsert = true
		case strings.HasPrefix(q, "SELECT") && r["op"].String() == "query":
			sawSelect = true
		}
	}
	if !sawInsert || !sawSelect {
		t.Errorf("insert logged = %v, select logged = %v; want both", sawInsert, sawSelect)
	}
}

func TestLoggingDriver_RejectsDirectOpen(t *testing.T) {
	connector, _ := NewLoggingConnector(":memory:", nil)
	if _, err := connector.Driver().Open(":memory:"); err == nil {
		t.Fatal("Driver().Open succeeded; want error")
	}
}
