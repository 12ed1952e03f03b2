package offline

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/migrate"
)

type fakeSubscriber struct {
	handler func(payload []byte) error
}

func (f *fakeSubscriber) SetMessageHandler(h func(payload []byte) error) { f.handler = h }

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := migrate.Run(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRegisterFeature(t *testing.T) {
	cfg := config.Config{APIBaseURL: "http://127.0.0.1:1", CacheVersion: "dht-monitor-test"}
	mux := http.NewServeMux()

	w, err := RegisterFeature(mux, cfg, setupTestDB(t), nil)
	if err != nil {
		t.Fatalf("RegisterFeature: %v", err)
	}
	if w.Version() != "dht-monitor-test" {
		t.Errorf("Version = %q", w.Version())
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/api/current", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"offline":true`) {
		t.Errorf("proxy with unreachable API = %d %q; want offline body", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /notifications = %d", rec.Code)
	}
}

func TestRegisterFeature_emptyVersion(t *testing.T) {
	_, err := RegisterFeature(http.NewServeMux(), config.Config{APIBaseURL: "http://127.0.0.1:1"}, setupTestDB(t), nil)
	if err == nil {
		t.Fatal("RegisterFeature with empty cache version = nil; want error")
	}
}

func TestRegisterPushHandler(t *testing.T) {
	w, err := RegisterFeature(http.NewServeMux(), config.Config{APIBaseURL: "http://127.0.0.1:1", CacheVersion: "v"}, setupTestDB(t), nil)
	if err != nil {
		t.Fatalf("RegisterFeature: %v", err)
	}
	sub := &fakeSubscriber{}
	RegisterPushHandler(sub, w, nil)

	if sub.handler == nil {
		t.Fatal("handler not registered")
	}
	if err := sub.handler([]byte("Sensor back online")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if err := sub.handler(nil); err != nil {
		t.Fatalf("handler(nil): %v", err)
	}
	got := w.Notifications()
	if len(got) != 2 || got[0].Body != "Sensor back online" || got[1].Body != "New temperature and humidity data available" {
		t.Errorf("Notifications = %+v", got)
	}
}
