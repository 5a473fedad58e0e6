package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hirepipe/internal/api"
	"hirepipe/internal/config"
	"hirepipe/internal/logging"
	"hirepipe/internal/passlist"
	"hirepipe/internal/workflow"
)

// Server serves the HTTP API and enforces single-instance execution.
type Server struct {
	cfg      *config.Config
	engine   *workflow.Engine
	stages   *api.StageService
	parser   passlist.Parser
	logger   *slog.Logger
	maxBytes int64

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	listener net.Listener
	http     *http.Server
}

// New constructs a server around the engine and its store.
func New(cfg *config.Config, engine *workflow.Engine, logger *slog.Logger) (*Server, error) {
	if cfg == nil || engine == nil {
		return nil, errors.New("server requires config and workflow engine")
	}
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		stages:   api.NewStageService(engine.Store()),
		parser:   passlist.DelimitedParser{},
		logger:   logging.NewComponentLogger(logger, "api-server"),
		maxBytes: cfg.Upload.MaxBytes,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// SetParser replaces the pass-list parser used by uploads.
func (s *Server) SetParser(p passlist.Parser) {
	if p != nil {
		s.parser = p
	}
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}/stages", s.handleGetStages)
	mux.HandleFunc("PUT /api/jobs/{id}/stages", s.handleSetStages)
	mux.HandleFunc("POST /api/jobs/{id}/stages/upload", s.handleUpload)
	mux.HandleFunc("GET /api/jobs/{id}/applications", s.handleListApplications)
	mux.HandleFunc("GET /api/applications/{id}", s.handleGetApplication)
	mux.HandleFunc("PUT /api/applications/{id}", s.handleUpdateApplication)
	mux.HandleFunc("GET /api/placements", s.handlePlacements)
	mux.HandleFunc("GET /api/placements/drift", s.handleDrift)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.Handle("/api/", authMiddleware(strings.TrimSpace(s.cfg.Paths.APIToken), mux))

	return requestIDMiddleware(accessLogMiddleware(s.logger, root))
}

// Start acquires the instance lock and begins serving on the configured bind address.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another hirepipe server instance is already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
	)
	return nil
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down and releases the instance lock.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown failed", logging.Error(err))
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
	s.logger.Info("api server stopped")
}
