package worker

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sidlin0932/dht-sensor-monitor/internal/jsonx"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/offline/cachestore"
)

type strategy func(w *Worker, req *http.Request) (*http.Response, error)

type policy struct {
	name  string
	match func(*http.Request) bool
	serve strategy
}

// defaultPolicies routes the sensor API under basePath network-first and
// everything else cache-first.
func defaultPolicies(basePath string) []policy {
	apiPrefix := strings.TrimRight(basePath, "/") + "/api/"
	return []policy{
		{name: "network-first", match: func(req *http.Request) bool {
			return strings.HasPrefix(req.URL.Path, apiPrefix)
		}, serve: (*Worker).networkFirst},
		{name: "cache-first", match: func(*http.Request) bool { return true }, serve: (*Worker).cacheFirst},
	}
}

// networkFirst returns the live response and keeps a copy. When the network
// fails it falls back to the cached response, then to an offline body.
func (w *Worker) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := w.network.RoundTrip(req)
	if err == nil {
		w.store(req, resp)
		return resp, nil
	}

	w.logger.Warn("network request failed, using cache", "url", req.URL.String(), "error", err)
	if e, mErr := w.storage.Match(req.Context(), req); mErr == nil {
		return e.Response(req), nil
	} else if !errors.Is(mErr, cachestore.ErrCacheMiss) {
		w.logger.Error("cache match failed", "url", req.URL.String(), "error", mErr)
	}
	return offlineResponse(req), nil
}

// cacheFirst answers from the cache when it can. Network responses are
// stored only when the status is exactly 200.
func (w *Worker) cacheFirst(req *http.Request) (*http.Response, error) {
	e, err := w.storage.Match(req.Context(), req)
	if err == nil {
		return e.Response(req), nil
	}
	if !errors.Is(err, cachestore.ErrCacheMiss) {
		w.logger.Error("cache match failed", "url", req.URL.String(), "error", err)
	}

	resp, err := w.network.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		w.store(req, resp)
	}
	return resp, nil
}

type offlineBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Offline bool   `json:"offline"`
}

var offlineJSON = func() []byte {
	b, err := jsonx.Marshal(offlineBody{Success: false, Error: "Offline", Offline: true})
	if err != nil {
		panic(err)
	}
	return b
}()

func offlineResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type":   {"application/json"},
			"Content-Length": {strconv.Itoa(len(offlineJSON))},
		},
		Body:          io.NopCloser(bytes.NewReader(offlineJSON)),
		ContentLength: int64(len(offlineJSON)),
		Request:       req,
	}
}
