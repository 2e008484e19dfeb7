package cmdexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAllowedCommand(t *testing.T) {
	e := New(ReadOnlyWhitelist, nil, time.Second)
	result, err := e.Execute(context.Background(), "echo", []string{"hello"}, t.TempDir())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Stdout, "hello")
}

func TestExecuteRejectsNonWhitelisted(t *testing.T) {
	e := New(ReadOnlyWhitelist, nil, time.Second)
	_, err := e.Execute(context.Background(), "rm", []string{"-rf", "/"}, t.TempDir())
	assert.ErrorIs(t, err, ErrCommandNotAllowed)
}

func TestExecuteRejectsShellMetacharInArg(t *testing.T) {
	e := New(ReadOnlyWhitelist, nil, time.Second)
	_, err := e.Execute(context.Background(), "echo", []string{"a; rm -rf /"}, t.TempDir())
	require.Error(t, err)
}

func TestExecuteTimesOut(t *testing.T) {
	wl := append(append([]string{}, ReadOnlyWhitelist...), "sleep")
	e := New(wl, nil, 50*time.Millisecond)
	result, err := e.Execute(context.Background(), "sleep", []string{"2"}, t.TempDir())
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.False(t, result.Success)
}

func TestIsAllowed(t *testing.T) {
	e := New(ReadOnlyWhitelist, nil, time.Second)
	assert.True(t, e.IsAllowed("cat"))
	assert.False(t, e.IsAllowed("curl"))
}
