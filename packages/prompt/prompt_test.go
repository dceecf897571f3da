package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPrompter struct{}

func (failingPrompter) Prompt(context.Context, string) (string, error) {
	return "", errors.New("terminal closed")
}

func TestResolver_CachesByLabel(t *testing.T) {
	s := NewScripted(map[string]string{"Username": "alice"})
	r := NewResolver(s)

	for range 3 {
		v, err := r.Resolve(context.Background(), "Username")
		require.NoError(t, err)
		assert.Equal(t, "alice", v)
	}
	assert.Equal(t, []string{"Username"}, s.Asked)
}

func TestResolver_Errors(t *testing.T) {
	_, err := NewResolver(NewScripted(nil)).Resolve(context.Background(), "Token")
	assert.ErrorIs(t, err, ErrNoInteractiveInput)

	_, err = NewResolver(nil).Resolve(context.Background(), "Token")
	assert.ErrorIs(t, err, ErrNoInteractiveInput)

	_, err = NewResolver(failingPrompter{}).Resolve(context.Background(), "Token")
	assert.ErrorIs(t, err, ErrPromptFailed)
	assert.Contains(t, err.Error(), "terminal closed")
}

func TestTerminal_NotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	term := NewTerminal(WithInput(f))
	assert.False(t, term.Interactive())

	_, err = term.Prompt(context.Background(), "Token")
	assert.ErrorIs(t, err, ErrNoInteractiveInput)
}

func TestParseAnswers(t *testing.T) {
	answers, err := ParseAnswers([]string{"Username=alice", "Base URL=http://x?a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Username": "alice", "Base URL": "http://x?a=b"}, answers)

	_, err = ParseAnswers([]string{"novalue"})
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Enter value for API key", Label("API key"))
}

func TestChain(t *testing.T) {
	first := NewScripted(map[string]string{"user": "alice"})
	second := NewScripted(map[string]string{"user": "bob", "pass": "hunter2"})
	chain := Chain{first, second}

	v, err := chain.Prompt(context.Background(), "user")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	assert.Empty(t, second.Asked)

	v, err = chain.Prompt(context.Background(), "pass")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	_, err = chain.Prompt(context.Background(), "token")
	assert.ErrorIs(t, err, ErrNoInteractiveInput)

	_, err = Chain{failingPrompter{}, second}.Prompt(context.Background(), "user")
	assert.EqualError(t, err, "terminal closed")
}
