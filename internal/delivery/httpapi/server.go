package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/service"
)

// maxRequestBodySize limits POST body sizes.
const maxRequestBodySize = 1 << 20

type LedgerStore interface {
	Open(ctx context.Context, userID int64, opts ...service.LedgerOption) (*service.Ledger, func())
}

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64) error
}

// Config configures the Mini App API server.
type Config struct {
	Addr           string
	BotToken       string
	InitDataMaxAge time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server exposes the progress ledger to the Mini App over HTTP.
type Server struct {
	ledgers        LedgerStore
	users          UserService
	metrics        http.Handler
	logger         *zap.Logger
	addr           string
	botToken       string
	initDataMaxAge time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	clock          func() time.Time
}

// NewServer creates a Server. metrics may be nil to disable /metrics.
func NewServer(cfg Config, ledgers LedgerStore, users UserService, metrics http.Handler, logger *zap.Logger) *Server {
	return &Server{
		ledgers:        ledgers,
		users:          users,
		metrics:        metrics,
		logger:         logger,
		addr:           cfg.Addr,
		botToken:       cfg.BotToken,
		initDataMaxAge: cfg.InitDataMaxAge,
		readTimeout:    cfg.ReadTimeout,
		writeTimeout:   cfg.WriteTimeout,
		clock:          time.Now,
	}
}

// Handler returns the routed API handler.
//
//	GET  /api/progress
//	POST /api/progress/answer
//	POST /api/progress/xp
//	POST /api/progress/lessons/{id}/complete
//	POST /api/progress/vocab
//	POST /api/progress/reset
//	POST /api/progress/import
//	GET  /api/progress/export
//	GET  /api/settings
//	PUT  /api/settings
//	GET  /metrics
//	GET  /healthz
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/progress", s.requireInitData(s.handleGetProgress))
	mux.HandleFunc("POST /api/progress/answer", s.requireInitData(s.handleAnswer))
	mux.HandleFunc("POST /api/progress/xp", s.requireInitData(s.handleAwardXP))
	mux.HandleFunc("POST /api/progress/lessons/{id}/complete", s.requireInitData(s.handleCompleteLesson))
	mux.HandleFunc("POST /api/progress/vocab", s.requireInitData(s.handleVocab))
	mux.HandleFunc("POST /api/progress/reset", s.requireInitData(s.handleReset))
	mux.HandleFunc("POST /api/progress/import", s.requireInitData(s.handleImport))
	mux.HandleFunc("GET /api/progress/export", s.requireInitData(s.handleExport))
	mux.HandleFunc("GET /api/settings", s.requireInitData(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.requireInitData(s.handleUpdateSettings))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")

	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
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
