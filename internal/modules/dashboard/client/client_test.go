package client

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *bytes.Buffer) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return New(ts.URL+"/", ts.Client(), logger), &logs
}

func TestFetchJSON_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/current" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"temperature":"23.4","humidity":51,"heat_index":null}}`)
	})

	resp, ok := c.Current(context.Background())
	if !ok {
		t.Fatal("Current ok = false")
	}
	if !resp.Success || resp.Data.Temperature.Value != 23.4 || resp.Data.Humidity.Value != 51 || resp.Data.HeatIndex.Valid {
		t.Errorf("resp = %+v", resp)
	}
}

func TestFetchJSON_NonSuccessStatus(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":"confirmation required"}`)
	})

	resp, ok := c.HardClear(context.Background())
	if ok {
		t.Fatal("HardClear ok = true on 400")
	}
	if resp.Error != "confirmation required" {
		t.Errorf("Error = %q; want server text kept", resp.Error)
	}
	if !strings.Contains(logs.String(), "HTTP 400") {
		t.Errorf("logs = %q; want HTTP 400", logs.String())
	}
}

func TestFetchJSON_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	var logs bytes.Buffer
	c := New(url, nil, slog.New(slog.NewTextHandler(&logs, nil)))
	if _, ok := c.Status(context.Background()); ok {
		t.Fatal("Status ok = true with server down")
	}
	if !strings.Contains(logs.String(), "api request failed") {
		t.Errorf("logs = %q", logs.String())
	}
}

func TestFetchJSON_BadBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	})
	if _, ok := c.Stats(context.Background(), 24); ok {
		t.Fatal("Stats ok = true for HTML body")
	}
}

func TestTypedHelpers_Requests(t *testing.T) {
	type seen struct {
		method, uri, contentType, body string
	}
	var (
		mu  sync.Mutex
		got []seen
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, seen{r.Method, r.URL.RequestURI(), r.Header.Get("Content-Type"), string(b)})
		mu.Unlock()
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	ctx := context.Background()

	c.Stats(ctx, 24)
	c.History(ctx, 168)
	c.SoftClear(ctx)
	c.HardClear(ctx)

	mu.Lock()
	defer mu.Unlock()
	want := []seen{
		{http.MethodGet, "/api/stats?hours=24", "", ""},
		{http.MethodGet, "/api/history?hours=168", "", ""},
		{http.MethodPost, "/api/clear/soft", "", ""},
		{http.MethodPost, "/api/clear/hard", "application/json", `{"confirm":true}`},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d requests; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestNew_TrimsBaseURL(t *testing.T) {
	c := New("http://sensor.local:5000///", nil, nil)
	if c.BaseURL() != "http://sensor.local:5000" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}
