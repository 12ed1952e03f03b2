package cachestore

import (
	"context"
	"net/http"
	"slices"
	"sync"
)

type memoryStorage struct {
	mu     sync.Mutex
	order  []string
	caches map[string]*memoryCache
}

// NewMemoryStorage returns a Storage that lives as long as the process.
func NewMemoryStorage() Storage {
	return &memoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *memoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[name]; ok {
		return c, nil
	}
	c := &memoryCache{name: name, entries: make(map[string]*Entry)}
	s.caches[name] = c
	s.order = append(s.order, name)
	return c, nil
}

func (s *memoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order), nil
}

func (s *memoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true, nil
}

func (s *memoryStorage) Match(ctx context.Context, req *http.Request) (*Entry, error) {
	s.mu.Lock()
	caches := make([]*memoryCache, 0, len(s.order))
	for _, name := range s.order {
		caches = append(caches, s.caches[name])
	}
	s.mu.Unlock()

	for _, c := range caches {
		e, err := c.Match(ctx, req)
		if err == nil {
			return e, nil
		}
	}
	return nil, ErrCacheMiss
}

type memoryCache struct {
	name    string
	mu      sync.RWMutex
	entries map[string]*Entry
}

func (c *memoryCache) Name() string { return c.name }

func (c *memoryCache) Match(_ context.Context, req *http.Request) (*Entry, error) {
	method, url, ok := requestKey(req)
	if !ok {
		return nil, ErrCacheMiss
	}
	c.mu.RLock()
	e, found := c.entries[method+" "+url]
	c.mu.RUnlock()
	if !found {
		return nil, ErrCacheMiss
	}
	return copyEntry(e), nil
}

func (c *memoryCache) Put(_ context.Context, e *Entry) error {
	if err := validEntry(e); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[e.Method+" "+e.URL] = copyEntry(e)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) PutAll(_ context.Context, entries []*Entry) error {
	for _, e := range entries {
		if err := validEntry(e); err != nil {
			return err
		}
	}
	c.mu.Lock()
	for _, e := range entries {
		c.entries[e.Method+" "+e.URL] = copyEntry(e)
	}
	c.mu.Unlock()
	return nil
}

func copyEntry(e *Entry) *Entry {
	out := *e
	out.Header = e.Header.Clone()
	out.Body = slices.Clone(e.Body)
	return &out
}
