//go:build unix

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptBackend runs a shell script that records its arguments and then
// sleeps for the given duration.
func scriptBackend(t *testing.T, name, sleep string) (Backend, string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := filepath.Join(dir, name)
	content := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nexec sleep " + sleep + "\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))
	return Backend{
		Name: name,
		Path: script,
		Args: func(uri string, volume float64, loop bool) []string {
			mode := "once"
			if loop {
				mode = "loop"
			}
			return []string{mode, uri, time.Duration(volume * float64(time.Second)).String()}
		},
	}, argsFile
}

func waitArgs(t *testing.T, path, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		content, err := os.ReadFile(path)
		return err == nil && string(content) == want+"\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessPlayer_PlayPause(t *testing.T) {
	backend, argsFile := scriptBackend(t, "fakeplay", "30")
	source := filepath.Join(t.TempDir(), "rain.ogg")
	require.NoError(t, os.WriteFile(source, []byte("ogg"), 0o600))
	player := NewProcessPlayer(backend, zerolog.Nop())
	defer player.Close()

	assert.ErrorIs(t, player.Play(), ErrNoSource)
	require.NoError(t, player.Load(source))
	assert.True(t, player.Paused())

	require.NoError(t, player.Play())
	assert.False(t, player.Paused())
	waitArgs(t, argsFile, "loop "+source+" 1s")
	require.NoError(t, player.Play())

	player.SetVolume(0.5)
	waitArgs(t, argsFile, "loop "+source+" 500ms")
	player.SetMuted(true)
	waitArgs(t, argsFile, "loop "+source+" 0s")

	player.Pause()
	assert.True(t, player.Paused())
}

func TestProcessPlayer_ExitReadsAsPaused(t *testing.T) {
	backend, _ := scriptBackend(t, "fakeplay", "0")
	player := NewProcessPlayer(backend, zerolog.Nop())
	require.NoError(t, player.Load("https://radio.example/stream"))

	require.NoError(t, player.Play())

	require.Eventually(t, player.Paused, 2*time.Second, 10*time.Millisecond)
}

func TestProcessPlayer_Errors(t *testing.T) {
	player := NewProcessPlayer(Backend{}, zerolog.Nop())

	assert.Error(t, player.Load(filepath.Join(t.TempDir(), "missing.ogg")))
	require.NoError(t, player.Load("https://radio.example/stream"))
	assert.ErrorIs(t, player.Play(), ErrNoPlayer)
	assert.True(t, player.Paused())
}

func TestFindBackend(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mpv", "afplay"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755))
	}
	t.Setenv("PATH", dir)

	backend, err := FindBackend("")
	require.NoError(t, err)
	assert.Equal(t, "mpv", backend.Name)
	assert.Equal(t, filepath.Join(dir, "mpv"), backend.Path)

	backend, err = FindBackend("afplay")
	require.NoError(t, err)
	assert.Equal(t, "afplay", backend.Name)

	backend, err = FindBackend("ffplay")
	require.NoError(t, err)
	assert.Equal(t, "mpv", backend.Name, "falls back when the preferred player is missing")

	t.Setenv("PATH", t.TempDir())
	_, err = FindBackend("")
	assert.ErrorIs(t, err, ErrNoPlayer)
}

func TestKnownBackendArgs(t *testing.T) {
	byName := map[string]Backend{}
	for _, backend := range knownBackends {
		byName[backend.Name] = backend
	}

	assert.Equal(t, []string{"-nodisp", "-loglevel", "quiet", "-volume", "50", "-loop", "0", "a.ogg"}, byName["ffplay"].Args("a.ogg", 0.5, true))
	assert.Equal(t, []string{"--no-video", "--really-quiet", "--volume=100", "a.ogg"}, byName["mpv"].Args("a.ogg", 1, false))
	assert.Equal(t, []string{"--volume=0", "a.ogg"}, byName["paplay"].Args("a.ogg", 0, true))
	assert.Equal(t, []string{"-v", "0.25", "a.ogg"}, byName["afplay"].Args("a.ogg", 0.25, true))
}

func TestCue_Notify(t *testing.T) {
	backend, argsFile := scriptBackend(t, "fakeplay", "0")
	dir := t.TempDir()
	cue := NewCue(backend, []byte("RIFF"), dir, "chime.wav", zerolog.Nop())

	cue.Notify()

	waitArgs(t, argsFile, "once "+filepath.Join(dir, "chime.wav")+" 1s")
	data, err := os.ReadFile(filepath.Join(dir, "chime.wav"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	assert.NotPanics(t, NewCue(Backend{}, nil, dir, "x.wav", zerolog.Nop()).Notify)
}
