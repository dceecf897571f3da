// Package prompt asks the user for placeholder values.
//
// Resolver caches answers by label for the run, so a label shared by several
// placeholders or requests is only asked once. The Prompter behind it is
// either the interactive terminal prompter or a scripted one for tests and
// non-interactive runs.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

var (
	// ErrNoInteractiveInput is returned when a value has to be asked for but
	// stdin is not a terminal.
	ErrNoInteractiveInput = errors.New("no interactive input available")
	ErrPromptFailed       = errors.New("prompt failed")
)

// Prompter asks for one value.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// Label formats the question shown for a prompt label.
func Label(label string) string {
	return fmt.Sprintf("Enter value for %s", label)
}

// Terminal prompts on the controlling terminal.
type Terminal struct {
	in  *os.File
	out io.Writer
}

type TerminalOption func(*Terminal)

func WithInput(f *os.File) TerminalOption {
	return func(t *Terminal) {
		t.in = f
	}
}

func WithOutput(w io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.out = w
	}
}

func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{in: os.Stdin, out: os.Stderr}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Interactive() bool {
	fd := t.in.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (t *Terminal) Prompt(ctx context.Context, label string) (string, error) {
	if !t.Interactive() {
		return "", fmt.Errorf("%w: cannot ask for %q", ErrNoInteractiveInput, label)
	}

	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(Label(label)).
				Value(&value),
		),
	).WithInput(t.in).WithOutput(t.out).WithShowHelp(false)

	if err := form.RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptFailed, err)
	}
	return value, nil
}

// Scripted answers prompts from a fixed table. Unknown labels fail with
// ErrNoInteractiveInput.
type Scripted struct {
	Answers map[string]string
	Asked   []string
}

func NewScripted(answers map[string]string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) Prompt(_ context.Context, label string) (string, error) {
	s.Asked = append(s.Asked, label)
	v, ok := s.Answers[label]
	if !ok {
		return "", fmt.Errorf("%w: no scripted answer for %q", ErrNoInteractiveInput, label)
	}
	return v, nil
}

// Chain asks each prompter in turn, moving on only when one has no input
// for the label.
type Chain []Prompter

func (c Chain) Prompt(ctx context.Context, label string) (string, error) {
	for _, p := range c {
		v, err := p.Prompt(ctx, label)
		if errors.Is(err, ErrNoInteractiveInput) {
			continue
		}
		return v, err
	}
	return "", fmt.Errorf("%w: cannot ask for %q", ErrNoInteractiveInput, label)
}

// ParseAnswers reads label=value pairs as given on the command line.
func ParseAnswers(pairs []string) (map[string]string, error) {
	answers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid answer %q, expected label=value", pair)
		}
		answers[label] = value
	}
	return answers, nil
}

// Resolver caches prompt answers by label.
type Resolver struct {
	prompter Prompter
	cache    map[string]string
}

func NewResolver(p Prompter) *Resolver {
	return &Resolver{prompter: p, cache: make(map[string]string)}
}

func (r *Resolver) Resolve(ctx context.Context, label string) (string, error) {
	if v, ok := r.cache[label]; ok {
		return v, nil
	}
	if r.prompter == nil {
		return "", fmt.Errorf("%w: cannot ask for %q", ErrNoInteractiveInput, label)
	}

	v, err := r.prompter.Prompt(ctx, label)
	if err != nil {
		if errors.Is(err, ErrNoInteractiveInput) || errors.Is(err, ErrPromptFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrPromptFailed, err)
	}
	r.cache[label] = v
	return v, nil
}
