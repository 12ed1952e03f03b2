// Package notify keeps the short-lived messages shown on the dashboard.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

const (
	// VisibleFor is how long a notification is fully shown.
	VisibleFor = 3 * time.Second
	// FadeFor is the fade-out that follows.
	FadeFor = 300 * time.Millisecond
)

type Phase string

const (
	PhaseVisible Phase = "visible"
	PhaseFading  Phase = "fading"
)

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Phase     Phase     `json:"phase"`
}

// Center stacks notifications in creation order. Identical messages are
// not merged.
type Center struct {
	mu    sync.Mutex
	items []Notification
	now   func() time.Time
}

// NewCenter returns a Center reading time from now, or time.Now when nil.
func NewCenter(now func() time.Time) *Center {
	if now == nil {
		now = time.Now
	}
	return &Center{now: now}
}

func (c *Center) Notify(message string, kind Kind) Notification {
	if kind == "" {
		kind = KindInfo
	}
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: c.now(),
		Phase:     PhaseVisible,
	}
	c.mu.Lock()
	c.pruneLocked(n.CreatedAt)
	c.items = append(c.items, n)
	c.mu.Unlock()
	return n
}

// Active prunes expired notifications and returns the rest with their
// current phase.
func (c *Center) Active() []Notification {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(now)
	out := make([]Notification, 0, len(c.items))
	for _, n := range c.items {
		if now.Sub(n.CreatedAt) >= VisibleFor {
			n.Phase = PhaseFading
		} else {
			n.Phase = PhaseVisible
		}
		out = append(out, n)
	}
	return out
}

// pruneLocked drops notifications past their fade. c.mu must be held.
func (c *Center) pruneLocked(now time.Time) {
	kept := c.items[:0]
	for _, n := range c.items {
		if now.Sub(n.CreatedAt) < VisibleFor+FadeFor {
			kept = append(kept, n)
		}
	}
	clear(c.items[len(kept):])
	c.items = kept
}

// Dismiss removes a notification before it expires.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}
