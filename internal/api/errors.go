package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// writeJSONError writes JSON error response
func writeJSONError(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]interface{}
	requestID string
	cause     error
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause adds the underlying cause error
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	eb.cause = err
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final ResolverError
func (eb *ErrorBuilder) Build() ResolverError {
	return ResolverError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger         *log.Logger
	securityLogger *SecurityLogger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:         logger,
		securityLogger: NewSecurityLogger(),
	}
}

// HandleError processes an error and writes appropriate HTTP response
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error, defaultStatus int) {
	requestID := middleware.GetReqID(r.Context())

	// Check if it's already a ResolverError
	if resolverErr, ok := err.(ResolverError); ok {
		eh.logError(r, resolverErr, defaultStatus)
		eh.writeErrorResponse(w, defaultStatus, resolverErr)
		return
	}

	// Convert regular error to ResolverError
	resolverErr := NewError(ErrTypeInternal, err.Error()).
		WithRequestID(requestID).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, resolverErr, defaultStatus)
	eh.writeErrorResponse(w, defaultStatus, resolverErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	requestID := middleware.GetReqID(r.Context())

	resolverErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(requestID).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	// Log security event for validation failure
	eh.securityLogger.LogSecurityEvent(
		requestID,
		"validation_failure",
		message,
		map[string]interface{}{
			"field": field,
			"path":  r.URL.Path,
		},
		r.RemoteAddr,
	)

	eh.logError(r, resolverErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, resolverErr)
}

// HandleIntegrityError handles commit-reveal integrity violations. These are
// flagged loudly: they mean the protocol was violated, not that a caller
// made a routine mistake.
func (eh *ErrorHandler) HandleIntegrityError(w http.ResponseWriter, r *http.Request, challengeID string, err error) {
	requestID := middleware.GetReqID(r.Context())

	resolverErr := NewError(ErrTypeIntegrity, "Seed commitment verification failed").
		WithRequestID(requestID).
		WithContext("challenge_id", challengeID).
		WithContext("path", r.URL.Path).
		WithCause(err).
		Build()

	eh.securityLogger.LogSecurityEvent(
		requestID,
		"integrity_violation",
		"revealed seed does not hash to original commitment",
		map[string]interface{}{
			"challenge_id": challengeID,
		},
		r.RemoteAddr,
	)

	eh.logError(r, resolverErr, http.StatusInternalServerError)
	eh.writeErrorResponse(w, http.StatusInternalServerError, resolverErr)
}

// logError logs the error with appropriate level and context
func (eh *ErrorHandler) logError(r *http.Request, resolverErr ResolverError, status int) {
	category := GetErrorCategory(resolverErr.Type)

	// Log with different levels based on error category
	logLevel := "ERROR"
	if category == CategoryValidation || category == CategoryState {
		logLevel = "WARN"
	} else if status >= 500 {
		logLevel = "ERROR"
	}

	// Create structured log entry
	logFields := map[string]interface{}{
		"level":      logLevel,
		"type":       resolverErr.Type,
		"category":   category,
		"message":    resolverErr.Message,
		"status":     status,
		"request_id": resolverErr.RequestID,
		"timestamp":  resolverErr.Timestamp,
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
	}

	// Add context fields (but filter sensitive data)
	for key, value := range resolverErr.Context {
		// Never log raw seeds - only hashes
		if key == "server_seed" || key == "client_seed" {
			continue
		}
		logFields[key] = value
	}

	// Log the structured error
	eh.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s path=%s message=%q context=%+v",
		logLevel, resolverErr.Type, category, status, resolverErr.RequestID, r.URL.Path, resolverErr.Message, logFields,
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, resolverErr ResolverError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Resolver-Version", ResolverVersion)
	w.Header().Set("X-Error-Type", resolverErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(resolverErr.Type)))
	w.WriteHeader(status)

	// Write JSON response
	if err := writeJSONError(w, resolverErr); err != nil {
		// Fallback to plain text if JSON encoding fails
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				requestID := middleware.GetReqID(r.Context())

				// Log panic with full context
				eh.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)

				// Create structured error response
				resolverErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("panic", fmt.Sprintf("%v", rvr)).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()

				eh.writeErrorResponse(w, http.StatusInternalServerError, resolverErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
