package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"jetton-ticket-tracker/internal/domain/repository"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server serves the aggregate snapshot over HTTP. The query path is a
// plain read of the last published snapshot; it never blocks on or
// triggers a refresh.
type Server struct {
	store      repository.SnapshotStore
	httpServer *http.Server
	staticDir  string
	logger     *logger.Logger
}

// NewServer creates the query API server
func NewServer(cfg *config.AppConfig, store repository.SnapshotStore, log *logger.Logger) *Server {
	s := &Server{
		store:     store,
		staticDir: cfg.StaticDir,
		logger:    log.WithComponent("api-server"),
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.HandleFunc("/api/summary", s.handleSummary).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Serve the dashboard when a static directory is available.
	if s.staticDir != "" {
		if _, err := os.Stat(s.staticDir); err == nil {
			router.PathPrefix("/static/").Handler(
				http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
			router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
		}
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleSummary returns the last published aggregate snapshot.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snapshot, _, err := s.store.Latest()
	if err != nil {
		if errors.Is(err, repository.ErrNotReady) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"detail": "Data is not ready yet. Please try again later.",
			})
			return
		}
		s.logger.Error("Failed to read snapshot", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"detail": "internal error",
		})
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// corsMiddleware allows any origin so the dashboard can be hosted
// separately from the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
