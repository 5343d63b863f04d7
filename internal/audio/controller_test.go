package audio

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/sched"
	"focusdeck/internal/metrics"
	"focusdeck/internal/storage"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakePlayer struct {
	loaded  string
	playing bool
	reject  bool
	plays   int
	pauses  int
	volume  float64
	muted   bool
	closed  bool
	loadErr error
}

func (player *fakePlayer) Load(uri string) error {
	if player.loadErr != nil {
		return player.loadErr
	}
	player.loaded = uri
	player.playing = false
	return nil
}

func (player *fakePlayer) Play() error {
	player.plays++
	if player.reject {
		return errors.New("autoplay blocked")
	}
	player.playing = true
	return nil
}

func (player *fakePlayer) Pause() {
	player.pauses++
	player.playing = false
}

func (player *fakePlayer) Paused() bool             { return !player.playing }
func (player *fakePlayer) SetVolume(volume float64) { player.volume = volume }
func (player *fakePlayer) SetMuted(muted bool)      { player.muted = muted }
func (player *fakePlayer) Close()                   { player.closed = true; player.playing = false }

type failingStore struct{}

func (failingStore) Load(string, any) (bool, error) { return false, errors.New("read-only") }
func (failingStore) Save(string, any) error         { return errors.New("read-only") }

type fixture struct {
	manual  *sched.Manual
	player  *fakePlayer
	durable *storage.MemoryStore
	session *storage.MemoryStore
	metrics *metrics.Metrics
}

func newFixture() *fixture {
	return &fixture{
		manual:  sched.NewManual(epoch),
		player:  &fakePlayer{},
		durable: storage.NewMemoryStore(),
		session: storage.NewMemoryStore(),
		metrics: metrics.New(),
	}
}

func (f *fixture) controller(config model.AudioConfig) *Controller {
	return New(f.manual, f.player, config, f.durable, f.session, zerolog.Nop(), f.metrics)
}

func TestController_PlayWithoutSourceIsNoop(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{})

	controller.Play()

	assert.False(t, controller.State().Playing)
	assert.Zero(t, f.player.plays)
}

func TestController_PlayPauseToggle(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	assert.Equal(t, "rain.ogg", f.player.loaded)

	controller.Toggle()
	assert.True(t, controller.State().Playing)
	assert.True(t, f.player.playing)

	controller.Toggle()
	assert.False(t, controller.State().Playing)
	assert.False(t, f.player.playing)
	assert.True(t, controller.Suppressed())
	f.manual.Flush()
	assert.False(t, controller.Suppressed())
}

func TestController_WatchdogHealsExternalPause(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	controller.Play()
	f.manual.Flush()

	f.player.playing = false
	f.manual.Advance(2 * time.Second)

	assert.True(t, f.player.playing)
	assert.Equal(t, 2, f.player.plays)
	assert.True(t, controller.State().Playing)

	expected := `
# HELP focusdeck_watchdog_replays_total Play commands re-issued by a watchdog, by surface.
# TYPE focusdeck_watchdog_replays_total counter
focusdeck_watchdog_replays_total{surface="audio"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "focusdeck_watchdog_replays_total"))
}

func TestController_ExplicitPauseSticks(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	controller.Play()
	controller.Pause()

	f.manual.Advance(10 * time.Second)

	assert.False(t, f.player.playing)
	assert.Equal(t, 1, f.player.plays)
}

func TestController_WatchdogHeldOffWhileSuppressed(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg", WatchdogInterval: time.Second})
	controller.Play()
	f.manual.Flush()

	// The player drops out inside a programmatic command; the watchdog fires
	// before that command's suppression clears.
	controller.suppress.Do(func() { f.player.playing = false })
	controller.watchdog()
	assert.False(t, f.player.playing)

	f.manual.Advance(time.Second)
	assert.True(t, f.player.playing)
}

func TestController_RejectedPlayRetriedByWatchdog(t *testing.T) {
	f := newFixture()
	f.player.reject = true
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})

	controller.Play()
	assert.True(t, controller.State().Playing, "a rejection keeps the intent")
	assert.False(t, f.player.playing)

	f.player.reject = false
	f.manual.Advance(2 * time.Second)
	assert.True(t, f.player.playing)

	expected := `
# HELP focusdeck_playback_rejections_total Play requests rejected by the host, by surface.
# TYPE focusdeck_playback_rejections_total counter
focusdeck_playback_rejections_total{surface="audio"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "focusdeck_playback_rejections_total"))
}

func TestController_SetSourceContinuesPlayback(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	controller.Play()

	controller.SetSource("waves.ogg")

	assert.Equal(t, "waves.ogg", f.player.loaded)
	assert.True(t, f.player.playing)
	var saved string
	found, err := f.durable.Load(KeySource, &saved)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "waves.ogg", saved)
}

func TestController_SetSourceLoadFailure(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	controller.Play()
	f.player.loadErr = errors.New("no such file")

	controller.SetSource("missing.ogg")
	f.manual.Flush()

	assert.Equal(t, "missing.ogg", controller.State().Source)
	assert.True(t, controller.State().Playing)
	assert.False(t, f.player.playing)
}

func TestController_VolumeAndMutePersist(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{})

	controller.SetVolume(1.7)
	controller.SetMuted(true)
	assert.Equal(t, 1.0, f.player.volume)
	assert.True(t, f.player.muted)

	controller.SetVolume(-3)
	assert.Equal(t, 0.0, controller.State().Volume)

	controller.SetVolume(0.3)
	restored := New(f.manual, &fakePlayer{}, model.AudioConfig{}, f.durable, storage.NewMemoryStore(), zerolog.Nop(), nil)
	assert.InDelta(t, 0.3, restored.State().Volume, 1e-9)
	assert.True(t, restored.State().Muted)
}

func TestController_PlayingIntentIsSessionScoped(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	controller.Play()
	controller.Close()
	assert.True(t, f.player.closed)

	sameProcess := &fakePlayer{}
	resumed := New(f.manual, sameProcess, model.AudioConfig{DefaultSource: "rain.ogg"}, f.durable, f.session, zerolog.Nop(), nil)
	assert.True(t, resumed.State().Playing)
	assert.True(t, sameProcess.playing)
	assert.Equal(t, "rain.ogg", sameProcess.loaded)

	freshProcess := &fakePlayer{}
	fresh := New(f.manual, freshProcess, model.AudioConfig{DefaultSource: "rain.ogg"}, f.durable, storage.NewMemoryStore(), zerolog.Nop(), nil)
	assert.False(t, fresh.State().Playing)
	assert.False(t, freshProcess.playing)
}

func TestController_CloseCancelsWatchdog(t *testing.T) {
	f := newFixture()
	controller := f.controller(model.AudioConfig{DefaultSource: "rain.ogg"})
	controller.Play()
	require.Equal(t, 1, f.manual.Active())

	controller.Close()
	controller.Close()
	f.manual.Advance(10 * time.Second)

	assert.Zero(t, f.manual.Active())
	assert.Equal(t, 1, f.player.plays)
	assert.False(t, controller.Suppressed())
}

func TestController_PersistenceFailuresSwallowed(t *testing.T) {
	manual := sched.NewManual(epoch)
	player := &fakePlayer{}
	controller := New(manual, player, model.AudioConfig{DefaultSource: "rain.ogg", DefaultVolume: 0.8}, failingStore{}, failingStore{}, zerolog.Nop(), nil)

	controller.SetVolume(0.4)
	controller.Play()

	assert.InDelta(t, 0.4, controller.State().Volume, 1e-9)
	assert.True(t, player.playing)
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0.0, ClampVolume(-0.1))
	assert.Equal(t, 0.25, ClampVolume(0.25))
	assert.Equal(t, 1.0, ClampVolume(2))
	assert.Equal(t, 0.0, ClampVolume(math.NaN()))
}
