package engine

import (
	"context"
	"errors"
	"time"

	"focusdeck/internal/core/model"
	"focusdeck/internal/platform"
)

// IdleSource reports how long the user has been away from the keyboard.
type IdleSource interface {
	IdleDuration() (time.Duration, error)
}

// WatchIdle pauses a running focus countdown once the user has been idle for
// at least threshold. It polls every interval until ctx is done. A host
// without idle reporting ends the watch quietly.
func (engine *Engine) WatchIdle(ctx context.Context, source IdleSource, threshold, interval time.Duration) error {
	if source == nil || threshold <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	return engine.watchIdle(ctx, source, threshold, ticker.C)
}

func (engine *Engine) watchIdle(ctx context.Context, source IdleSource, threshold time.Duration, ticks <-chan time.Time) error {
	logger := engine.logger.With().Str("component", "idle").Dur("threshold", threshold).Logger()
	logger.Debug().Msg("idle watch started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
		}
		if engine.closed.Load() {
			return nil
		}
		idle, err := source.IdleDuration()
		if errors.Is(err, platform.ErrIdleUnsupported) {
			logger.Info().Msg("idle time unavailable on this host, idle pause disabled")
			return nil
		}
		if err != nil {
			logger.Debug().Err(err).Msg("read idle time")
			continue
		}
		state := engine.Snapshot()
		if idle < threshold || !state.Running || state.Mode != model.ModeFocus {
			continue
		}
		logger.Info().Dur("idle", idle).Str("clock", state.Clock()).Msg("user idle, pausing focus")
		engine.Pause()
	}
}
