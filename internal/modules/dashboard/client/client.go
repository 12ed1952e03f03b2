// Package client talks to the sensor API. Every call reports success as a
// bool; failures are logged here and never returned to the caller.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sidlin0932/dht-sensor-monitor/internal/jsonx"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

const maxBodyBytes = 4 << 20

const (
	EndpointCurrent   = "/api/current"
	EndpointStats     = "/api/stats"
	EndpointStatus    = "/api/status"
	EndpointHistory   = "/api/history"
	EndpointSoftClear = "/api/clear/soft"
	EndpointHardClear = "/api/clear/hard"
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a client for baseURL. httpClient carries the transport, which
// in production is the offline cache worker.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchJSON issues method against baseURL+endpoint and decodes the response
// into out. A non-nil body is sent as JSON. It returns false on a network
// error, a non-2xx status or an undecodable body. A non-2xx body is still
// decoded into out when it is JSON, so server error text stays available.
func (c *Client) FetchJSON(ctx context.Context, method, endpoint string, body any, out any) bool {
	log := c.logger.With("method", method, "endpoint", endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := jsonx.Marshal(body)
		if err != nil {
			log.Error("api request encode failed", "error", err)
			return false
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		log.Error("api request build failed", "error", err)
		return false
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("api request failed", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn("api response read failed", "status", resp.StatusCode, "error", err)
		return false
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out != nil && jsonx.Valid(data) {
			_ = jsonx.Unmarshal(data, out)
		}
		log.Warn("api request failed", "error", fmt.Errorf("HTTP %d", resp.StatusCode), "status", resp.StatusCode)
		return false
	}

	if out == nil {
		return true
	}
	if err := jsonx.Unmarshal(data, out); err != nil {
		log.Warn("api response decode failed", "status", resp.StatusCode, "error", err)
		return false
	}
	return true
}

func (c *Client) Current(ctx context.Context) (*types.CurrentResponse, bool) {
	var out types.CurrentResponse
	ok := c.FetchJSON(ctx, http.MethodGet, EndpointCurrent, nil, &out)
	return &out, ok
}

func (c *Client) Stats(ctx context.Context, hours int) (*types.StatsResponse, bool) {
	var out types.StatsResponse
	ok := c.FetchJSON(ctx, http.MethodGet, EndpointStats+"?hours="+strconv.Itoa(hours), nil, &out)
	return &out, ok
}

func (c *Client) Status(ctx context.Context) (*types.StatusResponse, bool) {
	var out types.StatusResponse
	ok := c.FetchJSON(ctx, http.MethodGet, EndpointStatus, nil, &out)
	return &out, ok
}

func (c *Client) History(ctx context.Context, hours int) (*types.HistoryResponse, bool) {
	var out types.HistoryResponse
	ok := c.FetchJSON(ctx, http.MethodGet, EndpointHistory+"?hours="+strconv.Itoa(hours), nil, &out)
	return &out, ok
}

func (c *Client) SoftClear(ctx context.Context) (*types.ClearResponse, bool) {
	var out types.ClearResponse
	ok := c.FetchJSON(ctx, http.MethodPost, EndpointSoftClear, nil, &out)
	return &out, ok
}

func (c *Client) HardClear(ctx context.Context) (*types.ClearResponse, bool) {
	var out types.ClearResponse
	ok := c.FetchJSON(ctx, http.MethodPost, EndpointHardClear, types.HardClearRequest{Confirm: true}, &out)
	return &out, ok
}
