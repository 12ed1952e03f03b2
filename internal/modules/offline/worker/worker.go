// Package worker is a caching proxy between the dashboard and the network.
// It is an http.RoundTripper: API requests go network-first with a cached or
// synthesized offline fallback, everything else is served cache-first.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/offline/cachestore"
)

// ErrInstallFailed wraps the first precache fetch that went wrong.
var ErrInstallFailed = errors.New("offline worker install failed")

type Options struct {
	// Version names the current cache store. Changing it evicts every
	// other store on the next Activate.
	Version string
	// PrecacheURLs are fetched and stored on Install. Relative URLs are
	// resolved against BaseURL.
	PrecacheURLs []string
	BaseURL      string
	// Network carries requests that leave the worker. Nil means
	// http.DefaultTransport.
	Network http.RoundTripper
	Now     func() time.Time
}

type Worker struct {
	version  string
	precache []string
	base     *url.URL
	network  http.RoundTripper
	storage  cachestore.Storage
	now      func() time.Time
	logger   *slog.Logger
	policies []policy

	mu            sync.Mutex
	notifications []PushNotification
}

func New(storage cachestore.Storage, opts Options, logger *slog.Logger) (*Worker, error) {
	if opts.Version == "" {
		return nil, errors.New("offline worker: empty cache version")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("offline worker: base URL %q: %w", opts.BaseURL, err)
	}
	if opts.Network == nil {
		opts.Network = http.DefaultTransport
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		version:  opts.Version,
		precache: append([]string(nil), opts.PrecacheURLs...),
		base:     base,
		network:  opts.Network,
		storage:  storage,
		now:      opts.Now,
		logger:   logger.With("cache", opts.Version),
	}
	w.policies = defaultPolicies(base.Path)
	return w, nil
}

func (w *Worker) Version() string { return w.version }

// Client returns an http.Client whose requests all go through the worker.
func (w *Worker) Client() *http.Client {
	return &http.Client{Transport: w}
}

// Install fetches every precache URL and stores them in one batch. Any
// failed fetch or non-2xx status stores nothing. The worker keeps serving
// either way.
func (w *Worker) Install(ctx context.Context) error {
	w.logger.Info("installing offline worker", "assets", len(w.precache))

	entries := make([]*cachestore.Entry, 0, len(w.precache))
	for _, raw := range w.precache {
		e, err := w.fetchAsset(ctx, raw)
		if err != nil {
			w.logger.Error("offline worker install failed", "url", raw, "error", err)
			return fmt.Errorf("%w: %s: %w", ErrInstallFailed, raw, err)
		}
		entries = append(entries, e)
	}

	cache, err := w.storage.Open(ctx, w.version)
	if err != nil {
		w.logger.Error("offline worker install failed", "error", err)
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	if err := cache.PutAll(ctx, entries); err != nil {
		w.logger.Error("offline worker install failed", "error", err)
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	w.logger.Info("offline worker installed", "assets", len(entries))
	return nil
}

func (w *Worker) fetchAsset(ctx context.Context, raw string) (*cachestore.Entry, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.network.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return cachestore.NewEntry(req, resp, w.now())
}

// Activate deletes every cache store not named after the current version
// and returns the deleted names.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	names, err := w.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	var deleted []string
	for _, name := range names {
		if name == w.version {
			continue
		}
		if _, err := w.storage.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("delete cache %q: %w", name, err)
		}
		w.logger.Info("deleted old cache", "name", name)
		deleted = append(deleted, name)
	}
	w.logger.Info("offline worker activated", "deleted", len(deleted))
	return deleted, nil
}

// RoundTrip serves req with the first policy whose matcher accepts it.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, p := range w.policies {
		if p.match(req) {
			w.logger.Debug("intercepted request", "policy", p.name, "method", req.Method, "url", req.URL.String())
			return p.serve(w, req)
		}
	}
	return w.network.RoundTrip(req)
}

// store puts a copy of resp into the current cache. Failures are logged;
// the live response is returned to the caller regardless.
func (w *Worker) store(req *http.Request, resp *http.Response) {
	if req.Method != http.MethodGet {
		return
	}
	e, err := cachestore.NewEntry(req, resp, w.now())
	if err != nil {
		w.logger.Warn("cache copy failed", "url", req.URL.String(), "error", err)
		return
	}
	ctx := context.WithoutCancel(req.Context())
	cache, err := w.storage.Open(ctx, w.version)
	if err == nil {
		err = cache.Put(ctx, e)
	}
	if err != nil {
		w.logger.Warn("cache put failed", "url", req.URL.String(), "error", err)
	}
}
