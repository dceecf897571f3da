package env

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(values map[string]string, calls *[]string) LookupFunc {
	return func(_ context.Context, name string) (string, error) {
		if calls != nil {
			*calls = append(*calls, name)
		}
		v, ok := values[name]
		if !ok {
			return "", errors.New("undeclared " + name)
		}
		return v, nil
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"no placeholders", "hello world", nil},
		{"single", "{base}/users", []string{"base"}},
		{"first occurrence order", "{b}/{a}/{b}", []string{"b", "a"}},
		{"non word characters ignored", "{not-a-name} {x y} {}", nil},
		{"json braces", `{"id":"{token}"}`, []string{"token"}},
		{"digits and underscores", "{api_v2}", []string{"api_v2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Placeholders(tt.input))
		})
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		values   map[string]string
		expected string
	}{
		{"unchanged without placeholders", "https://example.com/{", nil, "https://example.com/{"},
		{"single", "{base}/users", map[string]string{"base": "https://api.test"}, "https://api.test/users"},
		{"repeated", "{a}-{a}", map[string]string{"a": "x"}, "x-x"},
		{"json body", `{"id":"{token}"}`, map[string]string{"token": "abc123"}, `{"id":"abc123"}`},
		{"values are not rescanned", "{a}", map[string]string{"a": "{b}", "b": "nope"}, "{b}"},
		{"empty value", "x{a}y", map[string]string{"a": ""}, "xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(context.Background(), tt.input, mapLookup(tt.values, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpand_ResolvesEachNameOnceInOrder(t *testing.T) {
	var calls []string
	got, err := Expand(context.Background(), "{b}{a}{b}{a}", mapLookup(map[string]string{"a": "1", "b": "2"}, &calls))
	require.NoError(t, err)
	assert.Equal(t, "2121", got)
	assert.Equal(t, []string{"b", "a"}, calls)
}

func TestExpand_StopsAtFirstError(t *testing.T) {
	var calls []string
	_, err := Expand(context.Background(), "{missing}{a}", mapLookup(map[string]string{"a": "1"}, &calls))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared missing")
	assert.Equal(t, []string{"missing"}, calls)
}

func TestExpandJSON(t *testing.T) {
	body := map[string]any{
		"id":    "{token}",
		"url":   "<{base}>",
		"count": int64(3),
		"tags":  []any{"{token}", true},
	}

	got, err := ExpandJSON(context.Background(), body, mapLookup(map[string]string{"token": "abc123", "base": "a&b"}, nil))
	require.NoError(t, err)

	text, err := MarshalJSON(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc123","url":"<a&b>","count":3,"tags":["abc123",true]}`, text)
	assert.NotContains(t, text, `\u003c`)
}

func TestExpandJSON_InvalidAfterExpansion(t *testing.T) {
	_, err := ExpandJSON(context.Background(), map[string]any{"a": "{q}"}, mapLookup(map[string]string{"q": `"`}, nil))
	assert.ErrorIs(t, err, ErrInvalidJSONBody)
}
