package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/controller"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/notify"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

// Dashboard is what the handlers need from the dashboard controller.
type Dashboard interface {
	Snapshot() controller.Document
	ChartSeries() types.ChartSeries
	Options() controller.Options
	Notifier() *notify.Center
	SelectRange(ctx context.Context, hours int) error
	SoftClear(ctx context.Context) error
	HardClear(ctx context.Context, confirm controller.Confirmer) (int, error)
}

type DashboardHandlers interface {
	RegisterRoutes(mux *http.ServeMux)
}

type dashboardHandlersImpl struct {
	dashboard Dashboard
	logger    *slog.Logger
}

func NewDashboardHandlers(dashboard Dashboard, logger *slog.Logger) DashboardHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &dashboardHandlersImpl{dashboard: dashboard, logger: logger}
}

func (h *dashboardHandlersImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleDashboard)
	mux.HandleFunc("GET /partials/live", h.handleLivePartial)
	mux.HandleFunc("GET /chart.png", h.handleChart)
	mux.HandleFunc("GET /api/dashboard", h.handleDocument)
	mux.HandleFunc("DELETE /api/notifications/{id}", h.handleDismiss)
	mux.HandleFunc("POST /actions/range", h.handleSelectRange)
	mux.HandleFunc("POST /actions/clear/soft", h.handleSoftClear)
	mux.HandleFunc("POST /actions/clear/hard", h.handleHardClear)
}
