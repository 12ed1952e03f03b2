package worker

import (
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/sidlin0932/dht-sensor-monitor/internal/utils"
)

const maxPushBytes = 4 << 10

// RegisterRoutes mounts the proxy under /proxy/ and the push notification
// endpoints.
func (w *Worker) RegisterRoutes(mux *http.ServeMux, upstream *url.URL) {
	mux.Handle("/proxy/", http.StripPrefix("/proxy", w.Proxy(upstream)))
	mux.HandleFunc("GET /notifications", w.handleNotifications)
	mux.HandleFunc("GET /notifications/{id}/click", w.handleClick)
	mux.HandleFunc("POST /push", w.handlePush)
}

// Proxy forwards requests to upstream with the worker as transport, so a
// browser pointed at it gets the same offline behaviour as the dashboard.
func (w *Worker) Proxy(upstream *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		Transport: w,
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, err error) {
			w.logger.Warn("proxy request failed", "path", r.URL.Path, "error", err)
			utils.WriteError(rw, http.StatusBadGateway, "upstream unreachable and nothing cached")
		},
	}
}

func (w *Worker) handleNotifications(rw http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(rw, http.StatusOK, w.Notifications())
}

func (w *Worker) handleClick(rw http.ResponseWriter, r *http.Request) {
	target, ok := w.Click(r.PathValue("id"))
	if !ok {
		utils.WriteError(rw, http.StatusNotFound, "notification not found")
		return
	}
	utils.SeeOther(rw, r, target)
}

func (w *Worker) handlePush(rw http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxPushBytes))
	if err != nil {
		utils.WriteError(rw, http.StatusRequestEntityTooLarge, "push payload too large")
		return
	}
	utils.WriteJSON(rw, http.StatusCreated, w.Push(payload))
}
