package db

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit DSN wins", func(t *testing.T) {
		got, err := buildDSN(config.Config{SQLiteDSN: "file::memory:?cache=shared", SQLitePath: "ignored.db"})
		if err != nil {
			t.Fatalf("buildDSN: %v", err)
		}
		if got != "file::memory:?cache=shared" {
			t.Errorf("dsn = %q", got)
		}
	})

	t.Run("plain path gets file prefix and params", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "cache.db")
		got, err := buildDSN(config.Config{SQLitePath: path})
		if err != nil {
			t.Fatalf("buildDSN: %v", err)
		}
		if !strings.HasPrefix(got, "file:"+path+"?") {
			t.Errorf("dsn = %q; want file:%s?...", got, path)
		}
		if !strings.Contains(got, "_foreign_keys=on") {
			t.Errorf("dsn = %q; want foreign keys enabled", got)
		}
	})

	t.Run("file URI with query appends with ampersand", func(t *testing.T) {
		got, err := buildDSN(config.Config{SQLitePath: "file:" + filepath.Join(dir, "a.db") + "?mode=rwc"})
		if err != nil {
			t.Fatalf("buildDSN: %v", err)
		}
		if !strings.Contains(got, "?mode=rwc&_foreign_keys=on") {
			t.Errorf("dsn = %q", got)
		}
	})
}

func TestOpen(t *testing.T) {
	for _, level := range []slog.Level{slog.LevelInfo, slog.LevelDebug} {
		t.Run(level.String(), func(t *testing.T) {
			cfg := config.Config{
				LogLevel:           level,
				SQLiteDriver:       "sqlite3",
				SQLitePath:         filepath.Join(t.TempDir(), "dashboard.db"),
				SQLiteMaxOpenConns: 1,
				SQLiteMaxIdleConns: 1,
			}
			conn, err := Open(cfg, slog.New(&captureHandler{}))
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer func() {
				if err := Close(conn); err != nil {
					t.Fatalf("Close: %v", err)
				}
			}()
			var fk int
			if err := conn.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
				t.Fatalf("pragma: %v", err)
			}
			if fk != 1 {
				t.Errorf("foreign_keys = %d; want 1", fk)
			}
		})
	}
}

func TestClose_nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil) = %v; want nil", err)
	}
}
