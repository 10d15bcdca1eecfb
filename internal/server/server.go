// Package server exposes a running skylift instance over HTTP: health and
// config probes, the metrics snapshot, recent episode records, and a
// websocket stream of live demo flights.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/skylift/skylift/internal/core/flight"
	"github.com/skylift/skylift/internal/core/observability/log"
	"github.com/skylift/skylift/internal/core/observability/monitor"
	"github.com/skylift/skylift/internal/core/policy"
)

// Config holds the telemetry server settings.
type Config struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
	// FrameInterval paces the websocket stream. Zero or negative streams
	// frames as fast as the episode runs.
	FrameInterval time.Duration `json:"frame_interval" yaml:"frame_interval"`
	// DemoThrust is the constant command used when no policy is attached.
	DemoThrust float64 `json:"demo_thrust" yaml:"demo_thrust"`
	// MaxEpisodeSteps caps a streamed episode.
	MaxEpisodeSteps int `json:"max_episode_steps" yaml:"max_episode_steps"`
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		Addr:            "127.0.0.1:8080",
		FrameInterval:   50 * time.Millisecond,
		DemoThrust:      0,
		MaxEpisodeSteps: 2_000,
	}
}

// Validate reports the first unusable setting, if any.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server: addr must not be empty")
	}
	if c.MaxEpisodeSteps <= 0 {
		return fmt.Errorf("server: max_episode_steps must be positive, got %d", c.MaxEpisodeSteps)
	}
	return nil
}

// ActFunc maps an observation to a thrust command. The trained policy's
// Mean method satisfies it.
type ActFunc func(flight.Observation) float64

// EpisodeSource returns up to n recent episode records.
type EpisodeSource func(n int) []policy.EpisodeRecord

// Server is the telemetry HTTP server.
type Server struct {
	cfg      Config
	envCfg   flight.Config
	log      log.Log
	rec      *monitor.Recorder
	act      ActFunc
	episodes EpisodeSource

	mux     *http.ServeMux
	httpSrv *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l log.Log) Option {
	return func(s *Server) { s.log = l }
}

// WithRecorder exposes the recorder's snapshot on /metrics and lets the
// server count its own activity.
func WithRecorder(r *monitor.Recorder) Option {
	return func(s *Server) { s.rec = r }
}

// WithActFunc streams demo episodes under the given controller instead of
// constant thrust.
func WithActFunc(fn ActFunc) Option {
	return func(s *Server) { s.act = fn }
}

// WithEpisodeSource serves recent training episodes on /episodes.
func WithEpisodeSource(src EpisodeSource) Option {
	return func(s *Server) { s.episodes = src }
}

// New builds a server for the given environment configuration.
func New(cfg Config, envCfg flight.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := envCfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		envCfg: envCfg,
		log:    log.NewNop(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

// Handler returns the server's routing handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start binds the listen address and serves in the background. The returned
// error covers the bind only; serve errors are logged.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	s.httpSrv = &http.Server{
		Handler:     s.mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("telemetry server stopped", log.Err(err))
		}
	}()
	s.log.Info("telemetry server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/config", s.handleConfig)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("/episodes", s.handleEpisodes)
	s.mux.HandleFunc("/ws", s.handleStream)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"flight": s.envCfg,
		"server": s.cfg,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.rec == nil {
		writeJSON(w, monitor.Snapshot{})
		return
	}
	s.rec.Flush()
	writeJSON(w, s.rec.Snapshot())
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	if s.episodes == nil {
		writeJSON(w, []policy.EpisodeRecord{})
		return
	}
	records := s.episodes(n)
	if records == nil {
		records = []policy.EpisodeRecord{}
	}
	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
