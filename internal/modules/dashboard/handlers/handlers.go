package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/chart"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/controller"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/notify"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/views"
	"github.com/sidlin0932/dht-sensor-monitor/internal/utils"
)

func (h *dashboardHandlersImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := views.NewDashboardData(h.dashboard.Snapshot(), h.dashboard.Options())
	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		h.logger.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("dashboard: write response failed", "error", err)
	}
}

func (h *dashboardHandlersImpl) handleLivePartial(w http.ResponseWriter, r *http.Request) {
	data := views.NewDashboardData(h.dashboard.Snapshot(), h.dashboard.Options())
	var buf bytes.Buffer
	if err := views.RenderLivePartial(&buf, data); err != nil {
		h.logger.Error("live partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("live partial: write response failed", "error", err)
	}
}

// handleChart renders the chart series held by the controller. The query
// string only busts caches; it does not select the range.
func (h *dashboardHandlersImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := chart.RenderPNG(&buf, h.dashboard.ChartSeries(), chart.Options{Location: h.dashboard.Options().Location})
	if errors.Is(err, chart.ErrNotEnoughData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Error("chart render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("chart: write response failed", "error", err)
	}
}

func (h *dashboardHandlersImpl) handleDocument(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

func (h *dashboardHandlersImpl) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing notification id")
		return
	}
	if !h.dashboard.Notifier().Dismiss(id) {
		utils.WriteError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *dashboardHandlersImpl) handleSelectRange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	hours, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("hours")))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid 'hours' (expected integer)")
		return
	}
	if err := h.dashboard.SelectRange(r.Context(), hours); err != nil {
		if errors.Is(err, controller.ErrInvalidRange) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("select range failed", "hours", hours, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to select range")
		return
	}
	utils.SeeOther(w, r, "/")
}

// handleSoftClear always returns to the dashboard; the outcome is shown as
// a notification.
func (h *dashboardHandlersImpl) handleSoftClear(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.SoftClear(r.Context()); err != nil {
		h.logger.Warn("soft clear failed", "error", err)
	}
	utils.SeeOther(w, r, "/")
}

// handleHardClear takes its two confirmations from the confirm_first and
// confirm_second form checkboxes.
func (h *dashboardHandlersImpl) handleHardClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	confirm := controller.Answers(checked(r.PostForm.Get("confirm_first")), checked(r.PostForm.Get("confirm_second")))
	_, err := h.dashboard.HardClear(r.Context(), confirm)
	switch {
	case errors.Is(err, controller.ErrNotConfirmed):
		h.dashboard.Notifier().Notify("Hard clear cancelled", notify.KindInfo)
	case err != nil:
		h.logger.Warn("hard clear failed", "error", err)
	}
	utils.SeeOther(w, r, "/")
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes", "true", "1":
		return true
	}
	return false
}
