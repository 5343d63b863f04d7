// Package remote serves the timer to companion displays over WebSocket and
// exposes the engine metrics.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/timer"
	"focusdeck/internal/metrics"
)

// Controls is the part of the engine the remote surface drives.
type Controls interface {
	Snapshot() timer.State
	Subscribe(buffer int) <-chan timer.Event
	Start()
	Pause()
	Toggle()
	Reset()
	SetMode(mode model.Mode) error
}

// Command is an inbound message from a companion.
type Command struct {
	Command string `json:"command"`
	Mode    string `json:"mode,omitempty"`
}

// StatePayload is the timer state as companions see it.
type StatePayload struct {
	Mode             string  `json:"mode"`
	ModeLabel        string  `json:"modeLabel"`
	Phase            string  `json:"phase"`
	TotalSeconds     int     `json:"totalSeconds"`
	RemainingSeconds int     `json:"remainingSeconds"`
	Running          bool    `json:"running"`
	Clock            string  `json:"clock"`
	Progress         float64 `json:"progress"`
}

// Message is an outbound envelope.
type Message struct {
	Type  string       `json:"type"`
	Event string       `json:"event,omitempty"`
	State StatePayload `json:"state"`
	At    time.Time    `json:"at"`
}

// NewStatePayload converts a timer state.
func NewStatePayload(state timer.State) StatePayload {
	return StatePayload{
		Mode:             string(state.Mode),
		ModeLabel:        state.Mode.Label(),
		Phase:            string(state.Phase()),
		TotalSeconds:     state.TotalSeconds,
		RemainingSeconds: state.RemainingSeconds,
		Running:          state.Running,
		Clock:            state.Clock(),
		Progress:         state.Progress(),
	}
}

// Server wires Controls, the hub and the metrics handler.
type Server struct {
	controls Controls
	metrics  *metrics.Metrics
	listen   string
	logger   zerolog.Logger
	hub      *Hub
}

// NewServer creates a server listening on listen once Run is called.
func NewServer(controls Controls, m *metrics.Metrics, listen string, logger zerolog.Logger) *Server {
	server := &Server{
		controls: controls,
		metrics:  m,
		listen:   listen,
		logger:   logger.With().Str("component", "remote").Logger(),
	}
	server.hub = NewHub(server.handleCommand, server.logger)
	return server
}

// Handler returns the HTTP routes: /ws, /state and /metrics.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", server.hub.Handler())
	mux.Handle("/metrics", server.metrics.Handler())
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NewStatePayload(server.controls.Snapshot()))
	})
	return mux
}

// Run listens and serves until ctx is done.
func (server *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", server.listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", server.listen, err)
	}
	return server.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done.
func (server *Server) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go server.hub.Run(ctx)
	go server.forward(ctx)

	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 3*time.Second)
		defer stop()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	server.logger.Info().Str("addr", listener.Addr().String()).Msg("remote server listening")
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve remote: %w", err)
	}
	return nil
}

// forward broadcasts every timer event until ctx is done or the engine
// closes the subscription.
func (server *Server) forward(ctx context.Context) {
	server.hub.BroadcastJSON(Message{Type: "state", State: NewStatePayload(server.controls.Snapshot()), At: time.Now()})
	events := server.controls.Subscribe(64)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			server.hub.BroadcastJSON(Message{
				Type:  "state",
				Event: string(event.Type),
				State: NewStatePayload(event.State),
				At:    event.At,
			})
		}
	}
}

func (server *Server) handleCommand(command Command) {
	server.logger.Debug().Str("command", command.Command).Msg("remote command")
	switch command.Command {
	case "start":
		server.controls.Start()
	case "pause":
		server.controls.Pause()
	case "toggle":
		server.controls.Toggle()
	case "reset":
		server.controls.Reset()
	case "mode":
		if err := server.controls.SetMode(model.Mode(command.Mode)); err != nil {
			server.logger.Warn().Err(err).Str("mode", command.Mode).Msg("remote mode change rejected")
		}
	default:
		server.logger.Debug().Str("command", command.Command).Msg("unknown remote command")
	}
}
