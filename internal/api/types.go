package api

import (
	"github.com/willsigmon/CastawayCouncil-sub001/internal/challenge"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/resolve"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/store"
)

// ResolverError represents a structured error response with context
type ResolverError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e ResolverError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidHash   = "invalid_hash"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Challenge state errors
	ErrTypeChallengeNotFound = "challenge_not_found"
	ErrTypeStateConflict     = "state_conflict"
	ErrTypeNotRevealed       = "not_yet_revealed"

	// Protocol integrity errors
	ErrTypeIntegrity = "integrity_violation"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryState      ErrorCategory = "state"
	CategoryIntegrity  ErrorCategory = "integrity"
	CategorySystem     ErrorCategory = "system"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidHash, ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeChallengeNotFound, ErrTypeStateConflict, ErrTypeNotRevealed:
		return CategoryState
	case ErrTypeIntegrity:
		return CategoryIntegrity
	default:
		return CategorySystem
	}
}

// VersionInfo contains resolver version information
type VersionInfo struct {
	ResolverVersion string `json:"resolver_version"`
	GitCommit       string `json:"git_commit,omitempty"`
	BuildTime       string `json:"build_time,omitempty"`
}

// CreateChallengeRequest opens a new challenge
type CreateChallengeRequest struct {
	ChallengeType string `json:"challenge_type"`
	TopK          int    `json:"top_k,omitempty"`
	RollMin       int    `json:"roll_min,omitempty"`
	RollMax       int    `json:"roll_max,omitempty"`
}

// CreateChallengeResponse returns the opened challenge with the published
// seed commitment; the server seed itself stays secret until scoring.
type CreateChallengeResponse struct {
	Challenge       *store.Challenge `json:"challenge"`
	ResolverVersion string           `json:"resolver_version"`
}

// CommitRequest records a participant's seed hash
type CommitRequest struct {
	ParticipantID string `json:"participant_id"`
	SeedHash      string `json:"seed_hash"`
	Team          string `json:"team,omitempty"`
}

// CommitResponse acknowledges a recorded commitment
type CommitResponse struct {
	ChallengeID     string `json:"challenge_id"`
	ParticipantID   string `json:"participant_id"`
	ResolverVersion string `json:"resolver_version"`
}

// ScoreRequest reveals the server seed and scores all participants from a
// single consistent stat snapshot per participant
type ScoreRequest struct {
	Participants []resolve.ParticipantInput `json:"participants"`
}

// ScoreResponse returns the finalized outcome
type ScoreResponse struct {
	Challenge       *store.Challenge      `json:"challenge"`
	Scores          []challenge.Score     `json:"scores"`
	Teams           []challenge.TeamScore `json:"teams,omitempty"`
	Winner          string                `json:"winner,omitempty"`
	WinnerIndex     int                   `json:"winner_index"`
	Tie             bool                  `json:"tie"`
	ResolverVersion string                `json:"resolver_version"`
}

// VerifyResponse returns the audit material for independent verification
type VerifyResponse struct {
	ChallengeID     string            `json:"challenge_id"`
	Valid           bool              `json:"valid"`
	SeedCommit      string            `json:"seed_commit"`
	ServerSeed      string            `json:"server_seed"`
	ClientSeeds     map[string]string `json:"client_seeds,omitempty"`
	ResolverVersion string            `json:"resolver_version"`
}

// StatusResponse returns the current challenge state and persisted scores
type StatusResponse struct {
	Challenge       *store.Challenge      `json:"challenge"`
	Commitments     []store.Commitment    `json:"commitments"`
	Scores          []challenge.Score     `json:"scores,omitempty"`
	Teams           []challenge.TeamScore `json:"teams,omitempty"`
	ResolverVersion string                `json:"resolver_version"`
}

// ChallengesResponse is the paginated challenge listing
type ChallengesResponse struct {
	Challenges      []store.Challenge `json:"challenges"`
	TotalCount      int               `json:"totalCount"`
	Page            int               `json:"page"`
	PerPage         int               `json:"perPage"`
	TotalPages      int               `json:"totalPages"`
	ResolverVersion string            `json:"resolver_version"`
}

// TypesResponse lists the registered challenge variants
type TypesResponse struct {
	Types           []string `json:"types"`
	ResolverVersion string   `json:"resolver_version"`
}

// SeedHashRequest represents a seed hashing request
type SeedHashRequest struct {
	Seed string `json:"seed"`
}

// SeedHashResponse represents a seed hashing response
type SeedHashResponse struct {
	Hash            string `json:"hash"`
	ResolverVersion string `json:"resolver_version"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status          string `json:"status"`
	ResolverVersion string `json:"resolver_version"`
	Timestamp       string `json:"timestamp"`
}
