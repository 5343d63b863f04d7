package animation

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	sprites []string
}

func (r *recorder) update(resource fyne.Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sprites = append(r.sprites, resource.Name())
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sprites...)
}

func sprite(name string) fyne.Resource {
	return fyne.NewStaticResource(name, []byte(name))
}

func quickConfig() Config {
	step := Range{Min: time.Millisecond, Max: time.Millisecond}
	return Config{
		FlashOn:       step,
		FlashOff:      step,
		FlashCount:    2,
		PulseInterval: step,
		PulseHold:     step,
	}
}

func TestFlash_EndsOnRestAndNotifies(t *testing.T) {
	rec := &recorder{}
	engine := New(quickConfig(), rec.update)
	finished := make(chan struct{})
	engine.SetOnFinish(func() { close(finished) })

	engine.Flash(context.Background(), FlashSpec{Lit: sprite("lit"), Dim: sprite("dim"), Rest: sprite("rest")})

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("flash did not finish")
	}
	assert.Equal(t, []string{"lit", "dim", "lit", "dim", "rest"}, rec.names())
}

func TestPulse_StopsOnStop(t *testing.T) {
	rec := &recorder{}
	engine := New(quickConfig(), rec.update)

	engine.Pulse(context.Background(), PulseSpec{Rest: sprite("rest"), Beat: sprite("beat")})
	require.Eventually(t, func() bool { return len(rec.names()) >= 4 }, 2*time.Second, time.Millisecond)
	engine.Stop()

	time.Sleep(20 * time.Millisecond)
	settled := len(rec.names())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, len(rec.names()))
	assert.Equal(t, "rest", rec.names()[0])
	assert.Equal(t, "beat", rec.names()[1])
}

func TestFlash_InterruptedByNewAnimation(t *testing.T) {
	config := quickConfig()
	config.FlashOn = Range{Min: time.Hour, Max: time.Hour}
	rec := &recorder{}
	engine := New(config, rec.update)
	finished := false
	engine.SetOnFinish(func() { finished = true })

	engine.Flash(context.Background(), FlashSpec{Lit: sprite("lit"), Dim: sprite("dim"), Rest: sprite("rest")})
	require.Eventually(t, func() bool { return len(rec.names()) == 1 }, time.Second, time.Millisecond)

	engine.Pulse(context.Background(), PulseSpec{Rest: sprite("idle"), Beat: sprite("beat")})
	require.Eventually(t, func() bool { return len(rec.names()) >= 2 }, time.Second, time.Millisecond)
	engine.Stop()

	assert.Equal(t, "idle", rec.names()[1])
	assert.False(t, finished)
}

func TestRange_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fixed := Range{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, fixed.Random(rng))

	inverted := Range{Min: 2 * time.Second, Max: time.Second}
	assert.Equal(t, 2*time.Second, inverted.Random(rng))

	spread := Range{Min: time.Second, Max: 2 * time.Second}
	for i := 0; i < 100; i++ {
		value := spread.Random(rng)
		assert.GreaterOrEqual(t, value, time.Second)
		assert.Less(t, value, 2*time.Second)
	}
}
