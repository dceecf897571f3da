// Package secret reads values from the 1Password CLI.
//
// A reference vault/item/field is fetched with `op read op://vault/item/field`.
// Failures reported by the CLI are classified from its stderr.
package secret

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"unicode/utf8"
)

const DefaultCommand = "op"

var (
	ErrCLINotFound   = errors.New("secret store CLI not found")
	ErrVaultNotFound = errors.New("vault not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrFieldNotFound = errors.New("field not found")
	ErrFetch         = errors.New("failed to fetch secret")
	ErrParse         = errors.New("secret is not valid UTF-8")
)

// FetchError is an unclassified CLI failure.
type FetchError struct {
	Reference string
	Message   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch secret %s: %s", e.Reference, e.Message)
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// CommandRunner runs an external command and returns its output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

type Resolver struct {
	command string
	runner  CommandRunner
}

type Option func(*Resolver)

// WithCommand overrides the CLI binary.
func WithCommand(command string) Option {
	return func(r *Resolver) {
		if command != "" {
			r.command = command
		}
	}
}

func WithRunner(runner CommandRunner) Option {
	return func(r *Resolver) {
		if runner != nil {
			r.runner = runner
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{command: DefaultCommand, runner: ExecRunner{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reference formats the secret reference passed to the CLI.
func Reference(vault, item, field string) string {
	return fmt.Sprintf("op://%s/%s/%s", vault, item, field)
}

func (r *Resolver) Resolve(ctx context.Context, vault, item, field string) (string, error) {
	ref := Reference(vault, item, field)
	stdout, stderr, err := r.runner.Run(ctx, r.command, "read", ref)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrCLINotFound, r.command)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classify(ref, string(stderr), err)
	}

	if !utf8.Valid(stdout) {
		return "", fmt.Errorf("%w: %s", ErrParse, ref)
	}
	return strings.TrimSpace(string(stdout)), nil
}

func classify(ref, stderr string, runErr error) error {
	switch {
	case strings.Contains(stderr, "Vault not found"):
		return fmt.Errorf("%w: %s", ErrVaultNotFound, ref)
	case strings.Contains(stderr, "Item not found"):
		return fmt.Errorf("%w: %s", ErrItemNotFound, ref)
	case strings.Contains(stderr, "Field not found"):
		return fmt.Errorf("%w: %s", ErrFieldNotFound, ref)
	}

	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = runErr.Error()
	}
	return &FetchError{Reference: ref, Message: msg}
}
