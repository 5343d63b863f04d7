package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"focusdeck/internal/config"
	"focusdeck/internal/core/model"
	"focusdeck/internal/core/position"
	"focusdeck/internal/core/timer"
	"focusdeck/internal/engine"
	"focusdeck/internal/logging"
	"focusdeck/internal/metrics"
	"focusdeck/internal/platform"
	"focusdeck/internal/remote"
	"focusdeck/internal/session"
	"focusdeck/internal/storage"
	"focusdeck/internal/ui/animation"
	mirrorui "focusdeck/internal/ui/mirror"
	"focusdeck/internal/ui/overlay"
	"focusdeck/internal/ui/preferences"
	"focusdeck/internal/ui/tray"
	"focusdeck/resources"
)

const idlePollInterval = 5 * time.Second

func runApp(parent context.Context, opts *options) error {
	cfg := opts.config
	root, fileErr := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Dir:        cfg.Paths.LogDir,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if root == nil {
		return fileErr
	}
	defer root.Close()
	logger := root.Logger
	if fileErr != nil {
		logger.Warn().Err(fileErr).Msg("file logging disabled")
	}

	guard, err := platform.AcquireSingleInstance(opts.configDir)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		logger.Info().Msg("focusdeck is already running")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = guard.Release() }()

	var durable storage.Store
	fileStore, err := storage.OpenFileStore(cfg.Paths.StateFile)
	if err != nil {
		logger.Warn().Err(err).Msg("state file unavailable, settings will not persist")
		durable = storage.NewMemoryStore()
	} else {
		durable = fileStore
	}

	var sessionLogger timer.SessionLogger
	sessions, err := session.Open(cfg.Paths.SessionDB)
	if err != nil {
		logger.Error().Err(err).Msg("session history unavailable")
	} else {
		sessionLogger = sessions
		defer sessions.Close()
	}

	backend, err := platform.FindBackend(cfg.Audio.Player)
	if err != nil {
		logger.Warn().Err(err).Msg("no audio player found, music and chime disabled")
	}
	player := platform.NewProcessPlayer(backend, logger)
	chime := platform.NewCue(backend, resources.Chime().Content(), opts.configDir, resources.ChimeName, logger)

	syncLoginItem(cfg.Startup.LaunchAtLogin, logger)

	m := metrics.New()
	fyneApp := app.NewWithID("io.focusdeck.app")
	fyneApp.SetIcon(resources.Icon(false))

	eng := engine.New(engine.Config{
		Timer:  cfg.TimerConfig(),
		Mirror: cfg.MirrorConfig(),
		Audio:  cfg.AudioConfig(),
	}, engine.Options{
		Surface:  mirrorui.New(fyneApp),
		Player:   player,
		Notifier: chime,
		Sessions: sessionLogger,
		Durable:  durable,
		Session:  storage.NewMemoryStore(),
		Logger:   logger,
		Metrics:  m,
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := eng.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// The UI queries the engine while it is built, so the loop runs first.
	ui := newDesktop(fyneApp, eng, cfg, opts.configPath, durable, logger)
	idle := &idleWatch{engine: eng, group: group, ctx: groupCtx, logger: logger}
	idle.restart(cfg.Timer.IdlePause)
	ui.onIdleChange = idle.restart
	if cfg.Remote.Enabled {
		server := remote.NewServer(eng, m, cfg.Remote.Listen, logger)
		group.Go(func() error {
			if err := server.Run(groupCtx); err != nil {
				logger.Error().Err(err).Msg("remote server stopped")
			}
			return nil
		})
	}
	group.Go(func() error {
		ui.forward(groupCtx)
		return nil
	})
	appDone := make(chan struct{})
	group.Go(func() error {
		select {
		case <-groupCtx.Done():
			ui.quit()
		case <-appDone:
		}
		return nil
	})

	logger.Info().Str("version", version).Str("config", opts.configPath).Msg("focusdeck started")
	ui.overlay.Show()
	fyneApp.Run()
	close(appDone)

	eng.Close()
	stop()
	err = group.Wait()
	logger.Info().Msg("focusdeck stopped")
	return err
}

// deck wires the fyne windows and the tray to the engine.
type deck struct {
	app        fyne.App
	engine     *engine.Engine
	config     *config.Config
	configPath string
	logger     zerolog.Logger

	overlay     *overlay.Window
	preferences *preferences.Window
	tray        *tray.Manager
	trayIcon    *animation.Engine

	onIdleChange func(time.Duration)
}

func newDesktop(fyneApp fyne.App, eng *engine.Engine, cfg *config.Config, configPath string, store position.Store, logger zerolog.Logger) *deck {
	ui := &deck{
		app:        fyneApp,
		engine:     eng,
		config:     cfg,
		configPath: configPath,
		logger:     logger.With().Str("component", "desktop").Logger(),
	}

	viewport := position.Size{Width: 960, Height: 600}
	manager := position.New(cfg.OverlayConfig(), viewport, store, logger)
	ui.overlay = overlay.New(fyneApp, eng, manager, cfg.Overlay.WidgetSize)
	ui.overlay.Render(eng.Snapshot())
	ui.preferences = preferences.New(fyneApp, preferences.FromConfig(cfg, eng.AudioState()), ui.savePreferences)

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		ui.tray = tray.New(desktopApp, tray.Callbacks{
			OnShow:         func() { fyne.Do(ui.overlay.Show) },
			OnToggleTimer:  eng.Toggle,
			OnReset:        eng.Reset,
			OnMode:         ui.setMode,
			OnToggleMirror: ui.toggleMirror,
			OnToggleMusic:  ui.toggleMusic,
			OnPreferences:  ui.showPreferences,
			OnQuit:         ui.quit,
		})
		desktopApp.SetSystemTrayIcon(resources.Icon(false))
		ui.trayIcon = animation.New(animation.DefaultConfig(), ui.tray.SetIcon)
	} else {
		ui.logger.Info().Msg("system tray unsupported, closing the window quits")
		ui.overlay.Window().SetCloseIntercept(func() { go ui.quit() })
	}
	return ui
}

// forward repaints the UI for every timer event until ctx is done.
func (ui *deck) forward(ctx context.Context) {
	events := ui.engine.Subscribe(64)
	var cancelIcon context.CancelFunc
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			mirrorActive := ui.engine.MirrorActive()
			musicPlaying := ui.engine.AudioState().Playing
			state := event.State
			fyne.Do(func() {
				ui.overlay.Render(state)
				if event.Type == timer.EventCompleted {
					ui.overlay.Completed()
				}
				if ui.tray != nil {
					ui.tray.SetTimer(state)
					ui.tray.SetMirrorActive(mirrorActive)
					ui.tray.SetMusicPlaying(musicPlaying)
				}
			})
			cancelIcon = ui.animateTray(event, cancelIcon)
		}
	}
}

func (ui *deck) animateTray(event timer.Event, cancel context.CancelFunc) context.CancelFunc {
	if ui.trayIcon == nil {
		return cancel
	}
	switch event.Type {
	case timer.EventStarted, timer.EventCompleted, timer.EventPaused, timer.EventReset, timer.EventModeChanged:
	default:
		return cancel
	}
	if cancel != nil {
		cancel()
	}
	ctx, next := context.WithCancel(context.Background())
	switch {
	case event.Type == timer.EventCompleted:
		ui.trayIcon.Flash(ctx, animation.FlashSpec{Lit: resources.Icon(true), Dim: resources.Icon(false), Rest: resources.Icon(false)})
	case event.State.Running:
		ui.trayIcon.Pulse(ctx, animation.PulseSpec{Rest: resources.Icon(true), Beat: resources.Icon(false)})
	default:
		ui.trayIcon.Stop()
		ui.tray.SetIcon(resources.Icon(false))
	}
	return next
}

// quit releases the mirror window while the fyne loop still runs, then stops
// the app.
func (ui *deck) quit() {
	ui.engine.DeactivateMirror()
	fyne.Do(ui.app.Quit)
}

func (ui *deck) setMode(mode model.Mode) {
	if err := ui.engine.SetMode(mode); err != nil {
		ui.logger.Warn().Err(err).Msg("change mode")
	}
}

func (ui *deck) toggleMirror() {
	if err := ui.engine.ToggleMirror(); err != nil {
		ui.logger.Warn().Err(err).Msg("toggle mirror")
	}
	active := ui.engine.MirrorActive()
	fyne.Do(func() { ui.tray.SetMirrorActive(active) })
}

func (ui *deck) toggleMusic() {
	ui.engine.ToggleMusic()
	playing := ui.engine.AudioState().Playing
	fyne.Do(func() { ui.tray.SetMusicPlaying(playing) })
}

func (ui *deck) showPreferences() {
	state := ui.engine.AudioState()
	fyne.Do(func() {
		ui.preferences.UpdateSettings(preferences.FromConfig(ui.config, state))
		ui.preferences.Show()
	})
}

// savePreferences runs on the UI thread.
func (ui *deck) savePreferences(settings preferences.Settings) {
	previous := *ui.config
	settings.Apply(ui.config)
	if err := config.Save(ui.configPath, ui.config); err != nil {
		ui.logger.Error().Err(err).Msg("save preferences")
	}
	if settings.LaunchAtLogin != previous.Startup.LaunchAtLogin {
		syncLoginItem(settings.LaunchAtLogin, ui.logger)
	}
	if ui.onIdleChange != nil && ui.config.Timer.IdlePause != previous.Timer.IdlePause {
		ui.onIdleChange(ui.config.Timer.IdlePause)
	}

	before := previous.Durations()
	go func() {
		for _, mode := range model.Modes {
			minutes := settings.Durations().Minutes(mode)
			if minutes == before.Minutes(mode) {
				continue
			}
			if err := ui.engine.SetDuration(mode, minutes); err != nil {
				ui.logger.Warn().Err(err).Str("mode", string(mode)).Msg("apply duration")
			}
		}
		if settings.MusicSource != ui.engine.AudioState().Source {
			ui.engine.SetMusicSource(settings.MusicSource)
		}
		ui.engine.SetVolume(settings.Volume)
		ui.engine.SetMuted(settings.Muted)
	}()
}

// idleWatch runs at most one engine idle watch inside the app's group.
type idleWatch struct {
	engine *engine.Engine
	group  *errgroup.Group
	ctx    context.Context
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (watch *idleWatch) restart(threshold time.Duration) {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	if watch.cancel != nil {
		watch.cancel()
		watch.cancel = nil
	}
	if threshold <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(watch.ctx)
	watch.cancel = cancel
	watch.logger.Debug().Dur("threshold", threshold).Msg("idle pause armed")
	watch.group.Go(func() error {
		return watch.engine.WatchIdle(ctx, platform.NewIdleProvider(), threshold, idlePollInterval)
	})
}

func syncLoginItem(enabled bool, logger zerolog.Logger) {
	exe, err := os.Executable()
	if err != nil {
		logger.Warn().Err(err).Msg("resolve executable for login item")
		return
	}
	if err := platform.NewLoginItem(exe).Sync(enabled); err != nil {
		logger.Warn().Err(err).Msg("sync login item")
	}
}
