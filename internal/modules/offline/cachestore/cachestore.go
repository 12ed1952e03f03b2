// Package cachestore holds named, versioned stores of HTTP responses keyed
// by request method and URL.
package cachestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrNotCacheable = errors.New("only GET requests are cacheable")
)

// Storage is the set of named caches.
type Storage interface {
	// Open returns the named cache, creating it when missing.
	Open(ctx context.Context, name string) (Cache, error)
	// Keys lists cache names in creation order.
	Keys(ctx context.Context) ([]string, error)
	// Delete drops a cache and every entry in it. It reports whether the
	// cache existed.
	Delete(ctx context.Context, name string) (bool, error)
	// Match looks req up in every cache, oldest first.
	Match(ctx context.Context, req *http.Request) (*Entry, error)
}

type Cache interface {
	Name() string
	Match(ctx context.Context, req *http.Request) (*Entry, error)
	// Put replaces any entry stored under the same method and URL.
	Put(ctx context.Context, e *Entry) error
	// PutAll stores every entry or none of them.
	PutAll(ctx context.Context, entries []*Entry) error
}

// Entry is a stored response.
type Entry struct {
	Method   string
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// NewEntry copies resp into an Entry. resp.Body is read fully and replaced,
// so the caller can still hand resp on.
func NewEntry(req *http.Request, resp *http.Response, now time.Time) (*Entry, error) {
	if req.Method != http.MethodGet {
		return nil, ErrNotCacheable
	}
	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return &Entry{
		Method:   req.Method,
		URL:      req.URL.String(),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: now.UTC(),
	}, nil
}

// Response builds a fresh *http.Response for req from the entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

func requestKey(req *http.Request) (method, url string, ok bool) {
	if req == nil || req.URL == nil || req.Method != http.MethodGet {
		return "", "", false
	}
	return req.Method, req.URL.String(), true
}

func validEntry(e *Entry) error {
	if e == nil {
		return errors.New("nil cache entry")
	}
	if e.Method != http.MethodGet {
		return ErrNotCacheable
	}
	if e.URL == "" {
		return errors.New("cache entry has no URL")
	}
	return nil
}
