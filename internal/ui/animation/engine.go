// Package animation drives the sprite changes of the timer widget and the
// tray icon: a flash when a countdown completes and a slow pulse while one runs.
package animation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// Range defines a duration range with random sampling.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random returns a random duration within the range.
func (value Range) Random(rng *rand.Rand) time.Duration {
	if value.Max <= value.Min {
		return value.Min
	}
	delta := value.Max - value.Min
	return value.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Config contains animation timing values.
type Config struct {
	FlashOn    Range
	FlashOff   Range
	FlashCount int

	PulseInterval Range
	PulseHold     Range
}

// Engine runs at most one animation at a time.
type Engine struct {
	mu           sync.Mutex
	config       Config
	updateSprite func(fyne.Resource)
	onFinish     func()
	cancel       context.CancelFunc
	generation   uint64
}

// New creates a new animation engine. updateSprite is called from the
// animation goroutine; callers hop onto the UI thread themselves.
func New(config Config, updateSprite func(fyne.Resource)) *Engine {
	return &Engine{
		config:       config,
		updateSprite: updateSprite,
	}
}

// Flash blinks between the lit and dim sprites, then settles on Rest and
// reports completion to the finish handler.
func (engine *Engine) Flash(ctx context.Context, spec FlashSpec) {
	engine.start(ctx, func(runCtx context.Context, rng *rand.Rand) {
		for i := 0; i < engine.config.FlashCount; i++ {
			engine.updateSprite(spec.Lit)
			if !sleepWithContext(runCtx, engine.config.FlashOn.Random(rng)) {
				return
			}
			engine.updateSprite(spec.Dim)
			if !sleepWithContext(runCtx, engine.config.FlashOff.Random(rng)) {
				return
			}
		}
		engine.updateSprite(spec.Rest)
		engine.notifyFinish()
	})
}

// Pulse beats the running sprite until stopped.
func (engine *Engine) Pulse(ctx context.Context, spec PulseSpec) {
	engine.start(ctx, func(runCtx context.Context, rng *rand.Rand) {
		engine.updateSprite(spec.Rest)
		for {
			if !sleepWithContext(runCtx, engine.config.PulseInterval.Random(rng)) {
				return
			}
			engine.updateSprite(spec.Beat)
			if !sleepWithContext(runCtx, engine.config.PulseHold.Random(rng)) {
				return
			}
			engine.updateSprite(spec.Rest)
		}
	})
}

// Stop terminates any active animation.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
}

// SetOnFinish sets a callback fired when a flash runs to the end.
func (engine *Engine) SetOnFinish(handler func()) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.onFinish = handler
}

func (engine *Engine) start(parent context.Context, run func(context.Context, *rand.Rand)) {
	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(parent)
	engine.cancel = cancel
	engine.generation++
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(engine.generation)))
	engine.mu.Unlock()

	go run(runCtx, rng)
}

func (engine *Engine) notifyFinish() {
	engine.mu.Lock()
	handler := engine.onFinish
	engine.mu.Unlock()
	if handler != nil {
		handler()
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
