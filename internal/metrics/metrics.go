// Package metrics exposes engine counters in Prometheus format. A nil
// *Metrics is valid and records nothing, so components can take it optionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "focusdeck"

// Surface labels.
const (
	SurfaceMirror = "mirror"
	SurfaceAudio  = "audio"
)

// Metrics holds the engine collectors and the registry they live in.
type Metrics struct {
	registry           *prometheus.Registry
	ticks              prometheus.Counter
	completions        *prometheus.CounterVec
	watchdogReplays    *prometheus.CounterVec
	suppressedEchoes   *prometheus.CounterVec
	playbackRejections *prometheus.CounterVec
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_ticks_total",
			Help:      "Tick callbacks that advanced the countdown.",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_completions_total",
			Help:      "Countdowns that reached zero, by mode.",
		}, []string{"mode"}),
		watchdogReplays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_replays_total",
			Help:      "Play commands re-issued by a watchdog, by surface.",
		}, []string{"surface"}),
		suppressedEchoes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_echoes_total",
			Help:      "Inbound transport events ignored as echoes, by surface.",
		}, []string{"surface"}),
		playbackRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_rejections_total",
			Help:      "Play requests rejected by the host, by surface.",
		}, []string{"surface"}),
	}
	registry.MustRegister(
		m.ticks,
		m.completions,
		m.watchdogReplays,
		m.suppressedEchoes,
		m.playbackRejections,
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Tick counts one advancing tick.
func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// Completed counts a natural completion of mode.
func (m *Metrics) Completed(mode string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(mode).Inc()
}

// WatchdogReplay counts a watchdog-issued play on surface.
func (m *Metrics) WatchdogReplay(surface string) {
	if m == nil {
		return
	}
	m.watchdogReplays.WithLabelValues(surface).Inc()
}

// EchoSuppressed counts an ignored echo on surface.
func (m *Metrics) EchoSuppressed(surface string) {
	if m == nil {
		return
	}
	m.suppressedEchoes.WithLabelValues(surface).Inc()
}

// PlaybackRejected counts a rejected play request on surface.
func (m *Metrics) PlaybackRejected(surface string) {
	if m == nil {
		return
	}
	m.playbackRejections.WithLabelValues(surface).Inc()
}
