// Package server provides the HTTP REST API for the application tailor.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmatsuda/application-tailor/internal/artifacts"
	"github.com/jmatsuda/application-tailor/internal/job"
	"github.com/jmatsuda/application-tailor/internal/server/middleware"
	"github.com/jmatsuda/application-tailor/internal/server/ratelimit"
	"github.com/jmatsuda/application-tailor/internal/workflow"
)

// Config holds server configuration.
type Config struct {
	Port               int
	JWTSecret          string
	JWTExpirationHours int
}

// Deps are the services the server exposes.
type Deps struct {
	Manager   *job.Manager
	Artifacts *artifacts.Store
	// Commander enables the quick fit check endpoint; nil disables it.
	Commander workflow.StageExecutor
}

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	manager     *job.Manager
	artifacts   *artifacts.Store
	commander   workflow.StageExecutor
	validator   *validator.Validate
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// New creates a new server instance. When cfg.JWTSecret is set, all job
// endpoints require a bearer token; health stays open for probes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		manager:     deps.Manager,
		artifacts:   deps.Artifacts,
		commander:   deps.Commander,
		validator:   validator.New(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
	}
	if cfg.JWTSecret != "" {
		s.jwtService = NewJWTService(cfg.JWTSecret, cfg.JWTExpirationHours)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /jobs", s.protected(s.handleCreateJob))
	mux.Handle("GET /jobs", s.protected(s.handleListJobs))
	mux.Handle("GET /jobs/{id}", s.protected(s.handleGetJob))
	mux.Handle("POST /jobs/{id}/start", s.protected(s.handleStartJob))
	mux.Handle("POST /jobs/{id}/approve", s.protected(s.handleApprove))
	mux.Handle("POST /jobs/{id}/answers", s.protected(s.handleAnswers))
	mux.Handle("GET /jobs/{id}/events", s.protected(s.handleEvents))
	mux.Handle("GET /jobs/{id}/artifacts", s.protected(s.handleExportArtifacts))
	mux.Handle("GET /jobs/{id}/artifacts/{kind}", s.protected(s.handleGetArtifact))
	mux.Handle("POST /fitcheck", s.protected(s.handleFitCheck))
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open across review pauses
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	log.Println("Server stopped")
	return nil
}

// protected wraps a handler with bearer auth when a JWT secret is
// configured.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	if s.jwtService == nil {
		return h
	}
	return middleware.Auth(s.jwtService)(h)
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r))
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
			}
			s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
				"error":    "rate_limit_exceeded",
				"limit":    info.Limit,
				"reset_at": info.ResetTime.Format(time.RFC3339),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
