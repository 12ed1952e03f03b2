package offline

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/offline/cachestore"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/offline/worker"
)

// RegisterFeature builds the offline worker on the SQLite cache store and
// mounts its routes. The caller installs and activates it.
func RegisterFeature(mux *http.ServeMux, cfg config.Config, db *sql.DB, logger *slog.Logger) (*worker.Worker, error) {
	upstream, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("offline: API base URL: %w", err)
	}
	offlineWorker, err := worker.New(cachestore.NewSQLiteStorage(db), worker.Options{
		Version:      cfg.CacheVersion,
		PrecacheURLs: cfg.PrecacheURLs,
		BaseURL:      cfg.APIBaseURL,
	}, logger)
	if err != nil {
		return nil, err
	}
	offlineWorker.RegisterRoutes(mux, upstream)
	return offlineWorker, nil
}
