package secret

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout string
	stderr string
	err    error

	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestResolver_Resolve(t *testing.T) {
	runner := &fakeRunner{stdout: "s3cret\n"}
	r := NewResolver(WithRunner(runner))

	v, err := r.Resolve(context.Background(), "dev", "api", "password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
	assert.Equal(t, "op", runner.name)
	assert.Equal(t, []string{"read", "op://dev/api/password"}, runner.args)
}

func TestResolver_CustomCommand(t *testing.T) {
	runner := &fakeRunner{stdout: "x"}
	r := NewResolver(WithRunner(runner), WithCommand("/usr/local/bin/op"))

	_, err := r.Resolve(context.Background(), "v", "i", "f")
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/op", runner.name)
}

func TestResolver_Errors(t *testing.T) {
	exitErr := errors.New("exit status 1")

	tests := []struct {
		name   string
		runner *fakeRunner
		want   error
	}{
		{"vault", &fakeRunner{stderr: `[ERROR] "dev" isn't a vault in this account. Vault not found`, err: exitErr}, ErrVaultNotFound},
		{"item", &fakeRunner{stderr: "[ERROR] Item not found", err: exitErr}, ErrItemNotFound},
		{"field", &fakeRunner{stderr: "[ERROR] Field not found", err: exitErr}, ErrFieldNotFound},
		{"other", &fakeRunner{stderr: "[ERROR] not signed in", err: exitErr}, ErrFetch},
		{"missing binary", &fakeRunner{err: &exec.Error{Name: "op", Err: exec.ErrNotFound}}, ErrCLINotFound},
		{"missing binary path", &fakeRunner{err: &fs.PathError{Op: "fork/exec", Path: "/opt/op", Err: fs.ErrNotExist}}, ErrCLINotFound},
		{"invalid utf8", &fakeRunner{stdout: "\xff\xfe"}, ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(WithRunner(tt.runner)).Resolve(context.Background(), "dev", "api", "password")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolver_MissingCommandPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "bin", "op")
	_, err := NewResolver(WithCommand(missing)).Resolve(context.Background(), "dev", "api", "password")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCLINotFound)
	assert.Contains(t, err.Error(), missing)
}

func TestFetchError(t *testing.T) {
	_, err := NewResolver(WithRunner(&fakeRunner{stderr: "not signed in\n", err: errors.New("exit status 1")})).
		Resolve(context.Background(), "dev", "api", "password")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "op://dev/api/password", fe.Reference)
	assert.Equal(t, "not signed in", fe.Message)
}
