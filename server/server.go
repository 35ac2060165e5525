// Package server implements the development server: a JSON API over the
// current model, element edits written back to the workspace, and live
// reload pushed to browsers over a WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/c360studio/c4/export"
	"github.com/c360studio/c4/model"
	"github.com/c360studio/c4/parser"
)

// maxRequestBodySize limits PUT body sizes.
const maxRequestBodySize = 1 << 20 // 1 MB

// Messages pushed to WebSocket clients.
var reloadMessage = []byte(`{"type":"reload"}`)

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config configures a Server.
type Config struct {
	Host     string
	Port     int
	WorkDir  string
	NoReload bool
	Debounce time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// snapshot is an immutable view of one successful load.
type snapshot struct {
	model      *model.Model
	json       []byte
	validation []parser.ValidationError
}

// Server serves one workspace.
type Server struct {
	config  Config
	logger  *slog.Logger
	hub     *Hub
	metrics *metrics

	// fsMu serializes everything that touches the workspace files or the
	// loader state: reloads and element writes.
	fsMu   sync.Mutex
	loader *parser.Loader
	writer *parser.Writer

	mu      sync.RWMutex
	current *snapshot
}

// New creates a server for config.WorkDir. Nothing is loaded until Reload
// or Run is called.
func New(config Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	loader := parser.NewLoader(config.WorkDir, logger)
	hub := NewHub(logger)
	return &Server{
		config:  config,
		logger:  logger,
		hub:     hub,
		metrics: newMetrics(hub.ClientCount),
		loader:  loader,
		writer:  parser.NewWriter(loader, logger),
	}
}

// Hub returns the server's broadcast hub.
func (s *Server) Hub() *Hub { return s.hub }

// Model returns the last successfully loaded model, or nil.
func (s *Server) Model() *model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.model
}

// Reload loads and resolves the workspace. On success the new model
// replaces the served one; on failure the previous model stays in place.
// Unresolved references do not fail a reload; they are served from
// /api/validation.
func (s *Server) Reload() error {
	s.fsMu.Lock()
	defer s.fsMu.Unlock()
	return s.reloadLocked()
}

func (s *Server) reloadLocked() (err error) {
	start := time.Now()
	defer func() { s.metrics.observeReload(start, err) }()

	m, err := s.loader.Load()
	if err != nil {
		return err
	}
	data, err := export.JSON(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	findings := parser.Resolve(m)

	s.mu.Lock()
	s.current = &snapshot{model: m, json: data, validation: findings}
	s.mu.Unlock()

	s.metrics.setModel(m, len(findings))
	s.logger.Info("Model loaded",
		"elements", len(m.AllElements()),
		"findings", len(findings),
		"duration", time.Since(start))
	return nil
}

// reloadAndNotify reloads and tells clients either to refetch or what went
// wrong.
func (s *Server) reloadAndNotify() {
	if err := s.Reload(); err != nil {
		s.logger.Warn("Reload failed, keeping previous model", "error", err)
		s.broadcastError(err)
		return
	}
	s.hub.Broadcast(reloadMessage)
}

func (s *Server) broadcastError(err error) {
	msg, mErr := json.Marshal(errorMessage{Type: "error", Message: err.Error()})
	if mErr != nil {
		return
	}
	s.hub.Broadcast(msg)
}

// Handler returns the HTTP routes:
//
//	GET /api/model
//	GET /api/health
//	GET /api/validation
//	PUT /api/elements/{type}/{id}
//	GET /ws
//	GET /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/model", s.handleModel)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("PUT /api/elements/{type}/{id}", s.handleUpdateElement)
	mux.HandleFunc("OPTIONS /api/", handlePreflight)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", s.metrics.handler())
	return withCORS(mux)
}

// Run loads the workspace, starts the hub and (unless disabled) the watcher,
// and serves until ctx is cancelled. A failed initial load is logged and the
// server starts anyway so a later edit can fix it.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.Reload(); err != nil {
		s.logger.Error("Initial load failed", "error", err)
	}

	go s.hub.Run(ctx)

	if !s.config.NoReload {
		w, err := NewWatcher(WatcherConfig{
			Root:     s.config.WorkDir,
			Debounce: s.config.Debounce,
			Logger:   s.logger,
		})
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer w.Close()
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		go s.consumeChanges(ctx, w.Events())
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("Development server listening", "addr", "http://"+ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) consumeChanges(ctx context.Context, events <-chan ChangeBatch) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			s.logger.Info("Workspace changed", "files", batch.Paths)
			s.reloadAndNotify()
		}
	}
}

// ----------------------------------------------------------------------------
// Handlers
// ----------------------------------------------------------------------------

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if snap == nil {
		w.Write([]byte("{}\n"))
		return
	}
	w.Write(snap.json)
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Loaded  bool   `json:"loaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Clients: s.hub.ClientCount(),
		Loaded:  s.Model() != nil,
	})
}

// ValidationResponse is the body of GET /api/validation.
type ValidationResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []parser.ValidationError `json:"errors"`
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()

	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}
	writeJSON(w, http.StatusOK, ValidationResponse{
		Valid:  len(snap.validation) == 0,
		Errors: snap.validation,
	})
}

func (s *Server) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseElementType(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid element type")
		return
	}
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if _, ok := fields["id"]; ok {
		writeError(w, http.StatusBadRequest, "id cannot be changed")
		return
	}

	s.fsMu.Lock()
	err = s.writer.UpdateElement(id, kind, fields)
	if err == nil {
		err = s.reloadLocked()
		if err != nil {
			err = fmt.Errorf("element updated but workspace no longer loads: %w", err)
		}
	}
	s.fsMu.Unlock()
	s.metrics.observeUpdate(err)

	if err != nil {
		s.logger.Warn("Element update failed",
			"type", kind,
			"id", id,
			"error", err)
		switch {
		case errors.Is(err, parser.ErrElementNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, parser.ErrManifestNotLoaded):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			var we *parser.WriteError
			if !errors.As(err, &we) {
				// The write landed; tell clients the model is now broken.
				s.broadcastError(err)
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.logger.Info("Element updated", "type", kind, "id", id, "fields", len(fields))
	s.hub.Broadcast(reloadMessage)
	s.handleModel(w, r)
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// withCORS allows any origin; the dev server is meant for local browsers.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
