package sigcli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextChdir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	before, err := os.Getwd()
	require.NoError(t, err)

	ctx := newContext(context.Background(), nil)
	ctx.RepoRoot = root
	var inside string
	err = ctx.Chdir("sub", func(dir string) error {
		inside, err = os.Getwd()
		return err
	})
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(root, "sub"))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(inside)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	err = ctx.Chdir("does-not-exist", func(string) error { return nil })
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("defaults without a base", func(t *testing.T) {
		t.Parallel()
		ctx := newContext(context.Background(), nil)
		assert.Equal(t, VerbosityNormal, ctx.Verbosity)
		assert.NotNil(t, ctx.Logger())
		assert.Equal(t, os.Stdout, ctx.Stdout)
	})
	t.Run("inherits the base", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		base := &Context{RepoRoot: "/repo", Verbosity: VerbosityQuiet}
		ctx := newContext(withContext(context.Background(), base), &State{Stdout: &out})
		assert.Equal(t, "/repo", ctx.RepoRoot)
		assert.Equal(t, VerbosityQuiet, ctx.Verbosity)
		ctx.Print("a", 1)
		assert.Equal(t, "a 1\n", out.String())
		assert.Empty(t, base.Stdout)
	})
	t.Run("exit", func(t *testing.T) {
		t.Parallel()
		ctx := newContext(context.Background(), nil)
		err := ctx.Exit(2, "")
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
		assert.Equal(t, "exit status 2", err.Error())
	})
	t.Run("verbosity names", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "quiet", VerbosityQuiet.String())
		assert.Equal(t, "verbose", VerbosityVerbose.String())
		assert.Equal(t, "Verbosity(7)", Verbosity(7).String())
	})
}
