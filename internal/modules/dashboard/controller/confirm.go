package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type answers struct {
	mu      sync.Mutex
	answers []bool
	next    int
}

// Answers replays answers given up front, in order. Questions past the end
// are answered no.
func Answers(a ...bool) Confirmer {
	return &answers{answers: a}
}

func (a *answers) Confirm(_ context.Context, _ string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next >= len(a.answers) {
		return false
	}
	v := a.answers[a.next]
	a.next++
	return v
}

type terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalConfirmer prompts on out and reads a y/yes answer from in.
func NewTerminalConfirmer(in io.Reader, out io.Writer) Confirmer {
	return &terminal{in: bufio.NewReader(in), out: out}
}

func (t *terminal) Confirm(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	if _, err := fmt.Fprintf(t.out, "%s [y/N]: ", prompt); err != nil {
		return false
	}
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
