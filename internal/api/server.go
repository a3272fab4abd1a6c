// Package api exposes the document lifecycle over JSON HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/config"
	"github.com/dharsanguruparan/docflow/internal/service"
)

// Server hosts the HTTP handlers.
type Server struct {
	cfg      *config.Config
	svc      *service.Services
	tokens   TokenParser
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New constructs a Server.
func New(cfg *config.Config, svc *service.Services, tokens TokenParser, log *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		svc:      svc,
		tokens:   tokens,
		log:      log.With(zap.String("component", "api")),
		validate: newValidator(),
		now:      time.Now,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /employees", s.handleCreateEmployee)
	mux.HandleFunc("GET /employees/{id}", s.handleGetEmployee)
	mux.HandleFunc("PATCH /employees/{id}", s.handleUpdateEmployee)

	mux.HandleFunc("POST /documents", s.handleSubmitDocument)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("POST /documents/{id}/review", s.handleStartReview)
	mux.HandleFunc("POST /documents/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /documents/{id}/reject", s.handleReject)
	mux.HandleFunc("POST /documents/{id}/retention", s.handleRecomputeRetention)
	mux.HandleFunc("POST /documents/{id}/expire", s.handleExpire)
	mux.HandleFunc("GET /documents/{id}/download-url", s.handleDownloadURL)
	mux.HandleFunc("GET /documents/{id}/activity", s.handleActivity)

	mux.HandleFunc("POST /legal-holds", s.handleCreateHold)
	mux.HandleFunc("GET /legal-holds", s.handleListHolds)
	mux.HandleFunc("GET /legal-holds/{id}", s.handleGetHold)
	mux.HandleFunc("POST /legal-holds/{id}/release", s.handleReleaseHold)

	mux.HandleFunc("GET /retention-policies", s.handleListPolicies)
	mux.HandleFunc("POST /retention-policies", s.handleCreatePolicy)

	mux.HandleFunc("GET /settings/intake", s.handleGetSettings)
	mux.HandleFunc("PUT /settings/intake", s.handleUpdateSettings)

	return Chain(
		Recovery(s.log),
		RequestID,
		Logger(s.log),
		CORS(s.cfg.CORS),
		Auth(s.tokens, s.log, "/healthz"),
	)(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.log.Info("api shutting down")
	return srv.Shutdown(shutdownCtx)
}

type healthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Version:     s.cfg.App.Version,
		Environment: s.cfg.App.Environment,
		Timestamp:   s.now().UTC(),
	})
}
