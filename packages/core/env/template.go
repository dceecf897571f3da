package env

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// ErrInvalidJSONBody is returned when a JSON body no longer parses after expansion.
var ErrInvalidJSONBody = errors.New("expanded JSON body is not valid JSON")

// LookupFunc returns the value of one placeholder.
type LookupFunc func(ctx context.Context, name string) (string, error)

// Placeholders returns the distinct placeholder names in tmpl in order of first occurrence.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Expand replaces every {name} token in tmpl. Each distinct name is looked up
// once, in order of first occurrence, and substituted values are never
// scanned again. The first lookup error aborts the expansion.
func Expand(ctx context.Context, tmpl string, lookup LookupFunc) (string, error) {
	names := Placeholders(tmpl)
	if len(names) == 0 {
		return tmpl, nil
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		value, err := lookup(ctx, name)
		if err != nil {
			return "", err
		}
		values[name] = value
	}

	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		return values[token[1:len(token)-1]]
	}), nil
}

// ExpandJSON serializes v, expands the text and parses it back.
func ExpandJSON(ctx context.Context, v any, lookup LookupFunc) (any, error) {
	text, err := MarshalJSON(v)
	if err != nil {
		return nil, err
	}

	expanded, err := Expand(ctx, text, lookup)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(expanded))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSONBody, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidJSONBody)
	}
	return out, nil
}

// MarshalJSON encodes v compactly without escaping HTML characters.
func MarshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding JSON body: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
