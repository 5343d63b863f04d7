package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/core/model"
	"focusdeck/internal/platform"
	"focusdeck/internal/session"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "focusdeck dev\n", execute(t, "version"))
}

func TestHistoryCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir, err := platform.ConfigDir()
	require.NoError(t, err)

	store, err := session.Open(filepath.Join(dir, session.FileName))
	require.NoError(t, err)
	for _, minutes := range []int{25, 50} {
		_, err := store.LogSession(context.Background(), model.SessionRecord{DurationMinutes: minutes, BreakMinutes: 5, Completed: true})
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	out := execute(t, "history", "--limit", "1")

	assert.Contains(t, out, "WHEN")
	assert.Contains(t, out, "50 min")
	assert.NotContains(t, out, "25 min")
	assert.Contains(t, out, "1 sessions shown, 75 focus minutes in total")
}

func TestHistoryCommand_InvalidConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FOCUSDECK_TIMER_FOCUS_MINUTES", "0")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history"})
	assert.Error(t, cmd.Execute())
}
