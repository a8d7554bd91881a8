// Package stream serves a running simulation over HTTP: a websocket feed
// of frames at /ws, the live body table at /bodies and Prometheus metrics
// at /metrics.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/san-kum/orrery/internal/sim"
)

type Server struct {
	http   *http.Server
	hub    *Hub
	runner *Runner
	logger *slog.Logger
}

// NewServer wires the routes. metrics may be nil.
func NewServer(addr string, s *sim.Simulation, hub *Hub, runner *Runner, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/bodies", bodiesHandler(s))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		hub:    hub,
		runner: runner,
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler { return s.http.Handler }

// Serve runs the hub, the runner and the HTTP listener until ctx is done,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	runErr := make(chan error, 1)
	go func() { runErr <- s.runner.Run(ctx) }()

	srvErr := make(chan error, 1)
	go func() {
		s.logger.Info("stream server listening", "addr", s.http.Addr)
		srvErr <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case err := <-runErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return s.http.Shutdown(shutdownCtx)
}

type bodyView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Mass       float64    `json:"mass"`
	Wrt        string     `json:"wrt,omitempty"`
	Influences []string   `json:"influences,omitempty"`
	Pos        [3]float64 `json:"pos"`
	Vel        [3]float64 `json:"vel"`
	Phase      float64    `json:"phase,omitempty"`
}

func bodiesHandler(s *sim.Simulation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodies := s.Bodies()
		out := make([]bodyView, 0, len(bodies))
		for _, b := range bodies {
			v := bodyView{
				ID:    string(b.ID),
				Name:  b.Name,
				Mass:  b.Mass,
				Wrt:   string(b.Wrt),
				Pos:   [3]float64{b.State.Pos.X, b.State.Pos.Y, b.State.Pos.Z},
				Vel:   [3]float64{b.State.Vel.X, b.State.Vel.Y, b.State.Vel.Z},
				Phase: b.Phase,
			}
			for _, inf := range b.Influences {
				v.Influences = append(v.Influences, string(inf))
			}
			out = append(out, v)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"time":   s.Now().String(),
			"bodies": out,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
