package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/sequenceengine/internal/config"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, args)

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, args)

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined")
}

func TestRun_LinearSequenceCompletes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.seq.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
start "1" {
  transition { to = 2 }
}
function "2" {
  function = "print"
  arguments {
    msg = "hello"
  }
  transition { to = 3 }
}
stop "3" {}
`), 0o644))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{path})
	require.NoError(t, err)
}

func TestRun_FatalEngineErrorExitsWithCodeTwo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.seq.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
start "1" {
  transition { to = 2 }
}
function "2" {
  function = "print"
  arguments {
    msg = "hello"
  }
  transition {
    to = 3
    when = false
  }
}
stop "3" {}
`), 0o644))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{path})

	require.Error(t, err)
	var exitErr *config.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
}
