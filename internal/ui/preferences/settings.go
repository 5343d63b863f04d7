package preferences

import (
	"time"

	"focusdeck/internal/audio"
	"focusdeck/internal/config"
	"focusdeck/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	FocusMinutes      int
	ShortBreakMinutes int
	LongBreakMinutes  int

	MusicSource string
	Volume      float64
	Muted       bool

	LaunchAtLogin    bool
	IdlePauseMinutes int
}

// FromConfig collects the current preferences. Volume and mute come from the
// live audio state, which outranks the configured defaults.
func FromConfig(cfg *config.Config, state audio.State) Settings {
	source := state.Source
	if source == "" {
		source = cfg.Audio.Source
	}
	return Settings{
		FocusMinutes:      cfg.Timer.FocusMinutes,
		ShortBreakMinutes: cfg.Timer.ShortBreakMinutes,
		LongBreakMinutes:  cfg.Timer.LongBreakMinutes,
		MusicSource:       source,
		Volume:            state.Volume,
		Muted:             state.Muted,
		LaunchAtLogin:     cfg.Startup.LaunchAtLogin,
		IdlePauseMinutes:  int(cfg.Timer.IdlePause / time.Minute),
	}
}

// Durations returns the minutes per mode.
func (settings Settings) Durations() model.Durations {
	return model.Durations{
		FocusMinutes:      settings.FocusMinutes,
		ShortBreakMinutes: settings.ShortBreakMinutes,
		LongBreakMinutes:  settings.LongBreakMinutes,
	}
}

// Apply writes the file-backed preferences into cfg.
func (settings Settings) Apply(cfg *config.Config) {
	cfg.Timer.FocusMinutes = settings.FocusMinutes
	cfg.Timer.ShortBreakMinutes = settings.ShortBreakMinutes
	cfg.Timer.LongBreakMinutes = settings.LongBreakMinutes
	cfg.Timer.IdlePause = time.Duration(settings.IdlePauseMinutes) * time.Minute
	cfg.Audio.Source = settings.MusicSource
	cfg.Audio.Volume = audio.ClampVolume(settings.Volume)
	cfg.Startup.LaunchAtLogin = settings.LaunchAtLogin
}
