package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/challenge"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/resolve"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/store"
)

// Server handles HTTP requests
type Server struct {
	db             store.DB
	resolver       *resolve.Resolver
	errorHandler   *ErrorHandler
	logger         *log.Logger
	securityLogger *SecurityLogger
	startTime      time.Time
}

// NewServer creates a new API server
func NewServer(db store.DB, resolver *resolve.Resolver) *Server {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	errorHandler := NewErrorHandler(logger)
	securityLogger := NewSecurityLogger()

	server := &Server{
		db:             db,
		resolver:       resolver,
		errorHandler:   errorHandler,
		logger:         logger,
		securityLogger: securityLogger,
		startTime:      time.Now(),
	}

	// Log server startup
	securityLogger.LogSystemStartup(ResolverVersion, map[string]interface{}{
		"challenge_types":  len(challenge.ListTypes()),
		"resolver_enabled": server.resolver != nil,
		"database_enabled": server.db != nil,
	})

	return server
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.SecurityLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler) // Use our custom recovery handler
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/challenges", s.handleCreateChallenge)
		r.Get("/challenges", s.handleListChallenges)
		r.Get("/challenges/{id}", s.handleGetChallenge)
		r.Post("/challenges/{id}/commit", s.handleCommit)
		r.Post("/challenges/{id}/close", s.handleCloseCommits)
		r.Post("/challenges/{id}/score", s.handleScore)
		r.Post("/challenges/{id}/verify", s.handleVerify)
		r.Get("/types", s.handleListTypes)
		r.Post("/seed/hash", s.handleSeedHash)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Resolver-Version", ResolverVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, try to write a simple error response
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string, context map[string]interface{}) {
	errorResponse := ResolverError{
		Type:    errType,
		Message: message,
		Context: context,
	}
	s.writeJSON(w, status, errorResponse)
}
