package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrNoPlayer indicates that no supported audio player binary was found.
	ErrNoPlayer = errors.New("no audio player found")
	// ErrNoSource indicates Play was called before a source was loaded.
	ErrNoSource = errors.New("no audio source loaded")
)

// Backend is an external command-line audio player.
type Backend struct {
	Name string
	Path string
	// Args builds the command line for uri at volume in [0, 1]. Players that
	// cannot loop play once and exit; the audio watchdog restarts them.
	Args func(uri string, volume float64, loop bool) []string
}

var knownBackends = []Backend{
	{Name: "ffplay", Args: func(uri string, volume float64, loop bool) []string {
		args := []string{"-nodisp", "-loglevel", "quiet", "-volume", strconv.Itoa(int(volume * 100))}
		if loop {
			args = append(args, "-loop", "0")
		} else {
			args = append(args, "-autoexit")
		}
		return append(args, uri)
	}},
	{Name: "mpv", Args: func(uri string, volume float64, loop bool) []string {
		args := []string{"--no-video", "--really-quiet", fmt.Sprintf("--volume=%d", int(volume*100))}
		if loop {
			args = append(args, "--loop-file=inf")
		}
		return append(args, uri)
	}},
	{Name: "paplay", Args: func(uri string, volume float64, _ bool) []string {
		return []string{fmt.Sprintf("--volume=%d", int(volume*65536)), uri}
	}},
	{Name: "afplay", Args: func(uri string, volume float64, _ bool) []string {
		return []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), uri}
	}},
}

// FindBackend returns the preferred backend if it is installed, otherwise the
// first known one found on PATH.
func FindBackend(preferred string) (Backend, error) {
	if preferred = strings.TrimSpace(preferred); preferred != "" {
		name := strings.TrimSuffix(filepath.Base(preferred), ".exe")
		for _, backend := range knownBackends {
			if backend.Name != name {
				continue
			}
			if path, err := exec.LookPath(preferred); err == nil {
				backend.Path = path
				return backend, nil
			}
		}
	}
	for _, backend := range knownBackends {
		if path, err := exec.LookPath(backend.Name); err == nil {
			backend.Path = path
			return backend, nil
		}
	}
	return Backend{}, ErrNoPlayer
}

// ProcessPlayer loops one source through a backend process. Paused means no
// process is running, whether it was stopped or exited on its own.
type ProcessPlayer struct {
	backend Backend
	logger  zerolog.Logger

	mu     sync.Mutex
	uri    string
	volume float64
	muted  bool
	cmd    *exec.Cmd
}

// NewProcessPlayer creates a player for backend. A zero Backend yields a
// player whose Play always fails with ErrNoPlayer.
func NewProcessPlayer(backend Backend, logger zerolog.Logger) *ProcessPlayer {
	return &ProcessPlayer{
		backend: backend,
		logger:  logger.With().Str("component", "player").Str("backend", backend.Name).Logger(),
		volume:  1,
	}
}

// Load stops playback and selects uri. Local files must exist.
func (player *ProcessPlayer) Load(uri string) error {
	player.mu.Lock()
	defer player.mu.Unlock()
	player.stopLocked()
	player.uri = ""
	if !strings.Contains(uri, "://") {
		if _, err := os.Stat(uri); err != nil {
			return fmt.Errorf("load %s: %w", uri, err)
		}
	}
	player.uri = uri
	return nil
}

// Play starts the backend unless it is already running.
func (player *ProcessPlayer) Play() error {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.backend.Path == "" {
		return ErrNoPlayer
	}
	if player.uri == "" {
		return ErrNoSource
	}
	if player.cmd != nil {
		return nil
	}
	return player.startLocked()
}

// Pause stops the backend process.
func (player *ProcessPlayer) Pause() {
	player.mu.Lock()
	defer player.mu.Unlock()
	player.stopLocked()
}

// Paused reports whether no backend process is running.
func (player *ProcessPlayer) Paused() bool {
	player.mu.Lock()
	defer player.mu.Unlock()
	return player.cmd == nil
}

// SetVolume applies volume, restarting a running process.
func (player *ProcessPlayer) SetVolume(volume float64) {
	player.mu.Lock()
	defer player.mu.Unlock()
	player.volume = volume
	player.restartLocked()
}

// SetMuted mutes playback, restarting a running process.
func (player *ProcessPlayer) SetMuted(muted bool) {
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.muted == muted {
		return
	}
	player.muted = muted
	player.restartLocked()
}

// Close stops playback.
func (player *ProcessPlayer) Close() {
	player.Pause()
}

func (player *ProcessPlayer) startLocked() error {
	volume := player.volume
	if player.muted {
		volume = 0
	}
	cmd := exec.Command(player.backend.Path, player.backend.Args(player.uri, volume, true)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", player.backend.Name, err)
	}
	player.cmd = cmd
	go player.reap(cmd)
	return nil
}

func (player *ProcessPlayer) reap(cmd *exec.Cmd) {
	err := cmd.Wait()
	player.mu.Lock()
	if player.cmd == cmd {
		player.cmd = nil
		player.logger.Debug().Err(err).Msg("player exited")
	}
	player.mu.Unlock()
}

func (player *ProcessPlayer) stopLocked() {
	if player.cmd == nil {
		return
	}
	if err := player.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		player.logger.Warn().Err(err).Msg("stop player")
	}
	player.cmd = nil
}

func (player *ProcessPlayer) restartLocked() {
	if player.cmd == nil {
		return
	}
	player.stopLocked()
	if err := player.startLocked(); err != nil {
		player.logger.Warn().Err(err).Msg("restart player")
	}
}

// Cue plays a short sound once per Notify through a backend.
type Cue struct {
	backend Backend
	data    []byte
	path    string
	logger  zerolog.Logger

	once    sync.Once
	fileErr error
}

// NewCue writes data to <dir>/<name> on first use and plays it on Notify.
func NewCue(backend Backend, data []byte, dir, name string, logger zerolog.Logger) *Cue {
	return &Cue{
		backend: backend,
		data:    data,
		path:    filepath.Join(dir, name),
		logger:  logger.With().Str("component", "cue").Logger(),
	}
}

// Notify starts the cue and returns without waiting for it to finish.
func (cue *Cue) Notify() {
	if cue.backend.Path == "" {
		cue.logger.Debug().Msg("no player for completion cue")
		return
	}
	cue.once.Do(func() {
		cue.fileErr = os.WriteFile(cue.path, cue.data, 0o600)
	})
	if cue.fileErr != nil {
		cue.logger.Warn().Err(cue.fileErr).Msg("write completion cue")
		return
	}
	cmd := exec.Command(cue.backend.Path, cue.backend.Args(cue.path, 1, false)...)
	if err := cmd.Start(); err != nil {
		cue.logger.Warn().Err(err).Msg("play completion cue")
		return
	}
	go func() { _ = cmd.Wait() }()
}
