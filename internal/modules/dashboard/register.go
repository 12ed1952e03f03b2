package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/client"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/controller"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/handlers"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/notify"
)

// RegisterFeature wires the dashboard onto mux and returns its controller,
// which the caller must Run. httpClient carries every sensor API request;
// pass the offline worker's client to get cached fallbacks.
func RegisterFeature(mux *http.ServeMux, cfg config.Config, httpClient *http.Client, logger *slog.Logger) *controller.Controller {
	api := client.New(cfg.APIBaseURL, httpClient, logger)
	dashboardController := controller.New(api, notify.NewCenter(nil), controller.OptionsFromConfig(cfg), logger)
	handlers.NewDashboardHandlers(dashboardController, logger).RegisterRoutes(mux)
	return dashboardController
}
