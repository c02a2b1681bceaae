package api

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"time"
)

// SecurityLogger handles security-conscious logging with no raw seed exposure
type SecurityLogger struct {
	logger *log.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger() *SecurityLogger {
	logger := log.New(os.Stdout, "[SECURITY] ", log.LstdFlags|log.LUTC)
	return &SecurityLogger{
		logger: logger,
	}
}

// LogCommitOperation logs a participant commitment. The committed value is
// already a hash; raw client seeds never appear here.
func (sl *SecurityLogger) LogCommitOperation(
	requestID string,
	challengeID string,
	participantID string,
	seedHash string,
) {
	sl.logger.Printf(
		"commit_operation request_id=%s challenge_id=%s participant_id=%s seed_hash=%s resolver_version=%s timestamp=%s",
		requestID,
		challengeID,
		participantID,
		seedHash,
		ResolverVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogScoreOperation logs a reveal-and-score pass with security-safe parameters
func (sl *SecurityLogger) LogScoreOperation(
	requestID string,
	challengeID string,
	participants int,
	teams int,
	winner string,
	tie bool,
) {
	sl.logger.Printf(
		"score_operation request_id=%s challenge_id=%s participants=%d teams=%d winner=%q tie=%t resolver_version=%s timestamp=%s",
		requestID,
		challengeID,
		participants,
		teams,
		winner,
		tie,
		ResolverVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogVerifyOperation logs verify operations; the server seed is logged as a
// truncated hash only
func (sl *SecurityLogger) LogVerifyOperation(
	requestID string,
	challengeID string,
	serverSeed string,
	valid bool,
) {
	sl.logger.Printf(
		"verify_operation request_id=%s challenge_id=%s server_hash=%s valid=%t resolver_version=%s timestamp=%s",
		requestID,
		challengeID,
		sl.hashSeed(serverSeed),
		valid,
		ResolverVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSecurityEvent logs security-related events (failed validations, integrity violations)
func (sl *SecurityLogger) LogSecurityEvent(
	requestID string,
	eventType string,
	description string,
	context map[string]interface{},
	remoteAddr string,
) {
	sanitizedContext := sl.sanitizeContext(context)

	sl.logger.Printf(
		"security_event request_id=%s type=%s description=%q context=%+v remote_addr=%s resolver_version=%s timestamp=%s",
		requestID,
		eventType,
		description,
		sanitizedContext,
		remoteAddr,
		ResolverVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogAuditEvent logs audit events for compliance and debugging
func (sl *SecurityLogger) LogAuditEvent(
	requestID string,
	action string,
	resource string,
	outcome string,
	details map[string]interface{},
) {
	sanitizedDetails := sl.sanitizeContext(details)

	sl.logger.Printf(
		"audit_event request_id=%s action=%s resource=%s outcome=%s details=%+v resolver_version=%s timestamp=%s",
		requestID,
		action,
		resource,
		outcome,
		sanitizedDetails,
		ResolverVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemStartup logs system startup information
func (sl *SecurityLogger) LogSystemStartup(
	version string,
	config map[string]interface{},
) {
	sl.logger.Printf(
		"system_startup version=%s config=%+v resolver_version=%s timestamp=%s",
		version,
		sl.sanitizeContext(config),
		ResolverVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// hashSeed creates a SHA256 hash of a seed for logging (first 16 chars for brevity)
func (sl *SecurityLogger) hashSeed(seed string) string {
	if seed == "" {
		return "empty"
	}
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:])[:16]
}

// sanitizeContext removes or hashes sensitive values before logging
func (sl *SecurityLogger) sanitizeContext(context map[string]interface{}) map[string]interface{} {
	if context == nil {
		return nil
	}

	sanitized := make(map[string]interface{})
	for key, value := range context {
		switch key {
		case "server_seed", "serverSeed", "client_seed", "clientSeed":
			if s, ok := value.(string); ok {
				sanitized[key+"_hash"] = sl.hashSeed(s)
			}
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}
