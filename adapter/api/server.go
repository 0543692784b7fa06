// Package api provides HTTP API handlers for the billing service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nexthire/billing/pkg/observability"
)

// Server is the HTTP API server for the billing service.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *BillingHandler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new billing API server. The health registry is
// optional; without one the health endpoint reports a bare status.
func NewServer(cfg ServerConfig, handler *BillingHandler, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
		health:  health,
	}

	// Register routes
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Billing API v1
	s.mux.HandleFunc("POST /api/v1/payments/initiate", s.handler.InitiatePayment)
	s.mux.HandleFunc("POST /api/v1/payments/confirm", s.handler.ConfirmPayment)
	s.mux.HandleFunc("GET /api/v1/plans", s.handler.ListPlans)
	s.mux.HandleFunc("GET /api/v1/credit-packages", s.handler.ListCreditPackages)

	// Accounts
	s.mux.HandleFunc("GET /api/v1/accounts/{email}/balance", s.handler.GetBalance)
	s.mux.HandleFunc("GET /api/v1/accounts/{email}/transactions", s.handler.ListTransactions)
	s.mux.HandleFunc("GET /api/v1/accounts/{email}/credit-history", s.handler.ListCreditHistory)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if s.health != nil {
		results := s.health.Check(r.Context())
		body["checks"] = results
		for _, result := range results {
			if result.Status == observability.HealthStatusUnhealthy {
				body["status"] = string(observability.HealthStatusUnhealthy)
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	writeJSON(w, status, body)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting billing API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down billing API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
