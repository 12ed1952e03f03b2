package notify

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCenter_Lifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	c := NewCenter(clock.Now)

	n := c.Notify("Cleared live readings", KindSuccess)
	if n.ID == "" || n.Phase != PhaseVisible {
		t.Fatalf("Notify = %+v", n)
	}

	tests := []struct {
		name      string
		advance   time.Duration
		wantCount int
		wantPhase Phase
	}{
		{name: "just created", advance: 0, wantCount: 1, wantPhase: PhaseVisible},
		{name: "still visible", advance: 2999 * time.Millisecond, wantCount: 1, wantPhase: PhaseVisible},
		{name: "fading", advance: time.Millisecond, wantCount: 1, wantPhase: PhaseFading},
		{name: "gone", advance: FadeFor, wantCount: 0},
	}
	for _, tt := range tests {
		clock.Advance(tt.advance)
		got := c.Active()
		if len(got) != tt.wantCount {
			t.Fatalf("%s: %d active; want %d", tt.name, len(got), tt.wantCount)
		}
		if tt.wantCount > 0 && got[0].Phase != tt.wantPhase {
			t.Errorf("%s: phase = %s; want %s", tt.name, got[0].Phase, tt.wantPhase)
		}
	}
}

func TestCenter_StacksWithoutDedupe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewCenter(clock.Now)

	first := c.Notify("Offline", KindError)
	clock.Advance(time.Second)
	second := c.Notify("Offline", KindError)

	got := c.Active()
	if len(got) != 2 {
		t.Fatalf("%d active; want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("order = %s, %s; want creation order", got[0].ID, got[1].ID)
	}
	if first.ID == second.ID {
		t.Error("duplicate IDs")
	}

	// The first expires while the second is still on screen.
	clock.Advance(VisibleFor + FadeFor - time.Second)
	got = c.Active()
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("active = %+v; want only the second", got)
	}
}

func TestCenter_DefaultKindAndDismiss(t *testing.T) {
	c := NewCenter(nil)
	n := c.Notify("hello", "")
	if n.Kind != KindInfo {
		t.Errorf("Kind = %q; want info", n.Kind)
	}
	if !c.Dismiss(n.ID) {
		t.Fatal("Dismiss = false")
	}
	if c.Dismiss(n.ID) {
		t.Fatal("second Dismiss = true")
	}
	if len(c.Active()) != 0 {
		t.Fatal("dismissed notification still active")
	}
}

func TestCenter_NotifyPrunesExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewCenter(clock.Now)

	for i := 0; i < 50; i++ {
		c.Notify("Hard clear cancelled", KindInfo)
		clock.Advance(VisibleFor + FadeFor)
	}
	last := c.Notify("Cleared live readings", KindSuccess)

	c.mu.Lock()
	n := len(c.items)
	c.mu.Unlock()
	if n != 1 {
		t.Fatalf("%d stored; want 1", n)
	}
	if !c.Dismiss(last.ID) {
		t.Error("Dismiss(last) = false; want true")
	}
}
