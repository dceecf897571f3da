package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned when a value source has no value for a key.
var ErrNotFound = errors.New("value not found")

// PromptFunc asks the user for a value.
type PromptFunc func(ctx context.Context, label string) (string, error)

// VarResolver reads process environment variables and remembers every value
// it returns for the rest of the run.
type VarResolver struct {
	cache  map[string]string
	lookup func(string) (string, bool)
}

func NewVarResolver() *VarResolver {
	return &VarResolver{
		cache:  make(map[string]string),
		lookup: os.LookupEnv,
	}
}

// Resolve returns the value of the variable name. An unset variable is asked
// for through ask when prompt is not empty.
func (r *VarResolver) Resolve(ctx context.Context, name, prompt string, ask PromptFunc) (string, error) {
	if v, ok := r.cache[name]; ok {
		return v, nil
	}

	if v, ok := r.lookup(name); ok {
		r.cache[name] = v
		return v, nil
	}

	if prompt == "" || ask == nil {
		return "", fmt.Errorf("environment variable %s: %w", name, ErrNotFound)
	}

	v, err := ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	r.cache[name] = v
	return v, nil
}

// ReadFile returns the contents of path with surrounding whitespace removed.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
