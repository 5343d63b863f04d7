// Package config loads focusdeck settings from defaults, the config file,
// FOCUSDECK_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"focusdeck/internal/core/model"
)

// FileName is the settings file inside the config directory.
const FileName = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. FOCUSDECK_TIMER_FOCUS_MINUTES.
const EnvPrefix = "FOCUSDECK"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	Timer   TimerSettings   `mapstructure:"timer"`
	Mirror  MirrorSettings  `mapstructure:"mirror"`
	Audio   AudioSettings   `mapstructure:"audio"`
	Overlay OverlaySettings `mapstructure:"overlay"`
	Remote  RemoteSettings  `mapstructure:"remote"`
	Logging LoggingSettings `mapstructure:"logging"`
	Paths   PathSettings    `mapstructure:"paths"`
	Startup StartupSettings `mapstructure:"startup"`
}

type TimerSettings struct {
	FocusMinutes      int           `mapstructure:"focus_minutes"`
	ShortBreakMinutes int           `mapstructure:"short_break_minutes"`
	LongBreakMinutes  int           `mapstructure:"long_break_minutes"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	// IdlePause pauses a running focus countdown after this much user
	// inactivity. Zero disables it.
	IdlePause time.Duration `mapstructure:"idle_pause"`
}

type MirrorSettings struct {
	RedrawInterval   time.Duration `mapstructure:"redraw_interval"`
	WatchdogInterval time.Duration `mapstructure:"watchdog_interval"`
}

type AudioSettings struct {
	Source           string        `mapstructure:"source"`
	Volume           float64       `mapstructure:"volume"`
	Player           string        `mapstructure:"player"`
	WatchdogInterval time.Duration `mapstructure:"watchdog_interval"`
}

type OverlaySettings struct {
	WidgetSize int `mapstructure:"widget_size"`
	EdgeGap    int `mapstructure:"edge_gap"`
}

type RemoteSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

type LoggingSettings struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// PathSettings locate the data files. Empty values resolve into the config
// directory.
type PathSettings struct {
	StateFile string `mapstructure:"state_file"`
	SessionDB string `mapstructure:"session_db"`
	LogDir    string `mapstructure:"log_dir"`
}

type StartupSettings struct {
	LaunchAtLogin bool `mapstructure:"launch_at_login"`
}

// Default returns the built-in configuration.
func Default() *Config {
	durations := model.DefaultDurations()
	return &Config{
		Timer: TimerSettings{
			FocusMinutes:      durations.FocusMinutes,
			ShortBreakMinutes: durations.ShortBreakMinutes,
			LongBreakMinutes:  durations.LongBreakMinutes,
			TickInterval:      time.Second,
		},
		Mirror: MirrorSettings{
			RedrawInterval:   250 * time.Millisecond,
			WatchdogInterval: 3 * time.Second,
		},
		Audio: AudioSettings{
			Volume:           0.5,
			WatchdogInterval: 2 * time.Second,
		},
		Overlay: OverlaySettings{
			WidgetSize: 240,
			EdgeGap:    12,
		},
		Remote: RemoteSettings{
			Listen: "127.0.0.1:7766",
		},
		Logging: LoggingSettings{
			Level:      "info",
			File:       true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// NewViper creates a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range flatten("", Default().settings()) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (a missing file is fine) into v and returns the validated
// configuration. Flags bound to v before Load take precedence over the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and intervals.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	minutes := map[string]int{
		"timer.focus_minutes":       cfg.Timer.FocusMinutes,
		"timer.short_break_minutes": cfg.Timer.ShortBreakMinutes,
		"timer.long_break_minutes":  cfg.Timer.LongBreakMinutes,
	}
	for key, value := range minutes {
		if value < 1 || value > 720 {
			return fmt.Errorf("%w: %s must be between 1 and 720, got %d", ErrInvalid, key, value)
		}
	}
	intervals := map[string]time.Duration{
		"timer.tick_interval":      cfg.Timer.TickInterval,
		"mirror.redraw_interval":   cfg.Mirror.RedrawInterval,
		"mirror.watchdog_interval": cfg.Mirror.WatchdogInterval,
		"audio.watchdog_interval":  cfg.Audio.WatchdogInterval,
	}
	for key, value := range intervals {
		if value < 10*time.Millisecond {
			return fmt.Errorf("%w: %s must be at least 10ms, got %s", ErrInvalid, key, value)
		}
	}
	if cfg.Timer.IdlePause < 0 {
		return fmt.Errorf("%w: timer.idle_pause must not be negative", ErrInvalid)
	}
	if cfg.Audio.Volume < 0 || cfg.Audio.Volume > 1 {
		return fmt.Errorf("%w: audio.volume must be between 0 and 1, got %v", ErrInvalid, cfg.Audio.Volume)
	}
	if cfg.Overlay.WidgetSize <= 0 || cfg.Overlay.EdgeGap < 0 {
		return fmt.Errorf("%w: overlay geometry must be positive", ErrInvalid)
	}
	if cfg.Remote.Enabled && cfg.Remote.Listen == "" {
		return fmt.Errorf("%w: remote.listen is required when remote is enabled", ErrInvalid)
	}
	return nil
}

// Save writes cfg to path as YAML, replacing the file atomically.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg.settings())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Resolve fills empty paths relative to dir.
func (cfg *Config) Resolve(dir string) {
	if cfg.Paths.StateFile == "" {
		cfg.Paths.StateFile = filepath.Join(dir, "state.yaml")
	}
	if cfg.Paths.SessionDB == "" {
		cfg.Paths.SessionDB = filepath.Join(dir, "sessions.db")
	}
	if cfg.Paths.LogDir == "" {
		cfg.Paths.LogDir = filepath.Join(dir, "logs")
	}
}

// Durations returns the configured minutes per mode.
func (cfg *Config) Durations() model.Durations {
	return model.Durations{
		FocusMinutes:      cfg.Timer.FocusMinutes,
		ShortBreakMinutes: cfg.Timer.ShortBreakMinutes,
		LongBreakMinutes:  cfg.Timer.LongBreakMinutes,
	}
}

// SetDurations stores durations back into cfg.
func (cfg *Config) SetDurations(durations model.Durations) {
	cfg.Timer.FocusMinutes = durations.FocusMinutes
	cfg.Timer.ShortBreakMinutes = durations.ShortBreakMinutes
	cfg.Timer.LongBreakMinutes = durations.LongBreakMinutes
}

func (cfg *Config) TimerConfig() model.TimerConfig {
	return model.TimerConfig{Durations: cfg.Durations(), TickInterval: cfg.Timer.TickInterval}
}

func (cfg *Config) MirrorConfig() model.MirrorConfig {
	return model.MirrorConfig{RedrawInterval: cfg.Mirror.RedrawInterval, WatchdogInterval: cfg.Mirror.WatchdogInterval}
}

func (cfg *Config) AudioConfig() model.AudioConfig {
	return model.AudioConfig{
		DefaultSource:    cfg.Audio.Source,
		DefaultVolume:    cfg.Audio.Volume,
		WatchdogInterval: cfg.Audio.WatchdogInterval,
	}
}

func (cfg *Config) OverlayConfig() model.OverlayConfig {
	return model.OverlayConfig{WidgetSize: cfg.Overlay.WidgetSize, EdgeGap: cfg.Overlay.EdgeGap}
}

// settings renders cfg as nested maps keyed like the config file. Durations
// are written in their string form.
func (cfg *Config) settings() map[string]any {
	return map[string]any{
		"timer": map[string]any{
			"focus_minutes":       cfg.Timer.FocusMinutes,
			"short_break_minutes": cfg.Timer.ShortBreakMinutes,
			"long_break_minutes":  cfg.Timer.LongBreakMinutes,
			"tick_interval":       cfg.Timer.TickInterval.String(),
			"idle_pause":          cfg.Timer.IdlePause.String(),
		},
		"mirror": map[string]any{
			"redraw_interval":   cfg.Mirror.RedrawInterval.String(),
			"watchdog_interval": cfg.Mirror.WatchdogInterval.String(),
		},
		"audio": map[string]any{
			"source":            cfg.Audio.Source,
			"volume":            cfg.Audio.Volume,
			"player":            cfg.Audio.Player,
			"watchdog_interval": cfg.Audio.WatchdogInterval.String(),
		},
		"overlay": map[string]any{
			"widget_size": cfg.Overlay.WidgetSize,
			"edge_gap":    cfg.Overlay.EdgeGap,
		},
		"remote": map[string]any{
			"enabled": cfg.Remote.Enabled,
			"listen":  cfg.Remote.Listen,
		},
		"logging": map[string]any{
			"level":        cfg.Logging.Level,
			"file":         cfg.Logging.File,
			"max_size_mb":  cfg.Logging.MaxSizeMB,
			"max_backups":  cfg.Logging.MaxBackups,
			"max_age_days": cfg.Logging.MaxAgeDays,
		},
		"paths": map[string]any{
			"state_file": cfg.Paths.StateFile,
			"session_db": cfg.Paths.SessionDB,
			"log_dir":    cfg.Paths.LogDir,
		},
		"startup": map[string]any{
			"launch_at_login": cfg.Startup.LaunchAtLogin,
		},
	}
}

func flatten(prefix string, values map[string]any) map[string]any {
	flat := make(map[string]any)
	for key, value := range values {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(key, nested) {
				flat[k] = v
			}
			continue
		}
		flat[key] = value
	}
	return flat
}
