package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
)

func NewServer(cfg config.Config, logger *slog.Logger, mux *http.ServeMux) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
