package store

import (
	"errors"
	"time"
)

// Challenge lifecycle states. Transitions only move forward:
// open -> committed -> scored -> verified.
const (
	StateOpen      = "open"
	StateCommitted = "committed"
	StateScored    = "scored"
	StateVerified  = "verified"
)

var (
	// ErrNotFound means the challenge id does not exist.
	ErrNotFound = errors.New("challenge not found")

	// ErrConflict means a state-conditional write lost: the challenge is no
	// longer in a state that permits the attempted transition.
	ErrConflict = errors.New("challenge state conflict")
)

// DB is the persistence interface for the challenge audit trail. Seed
// commitments, disclosed seeds, rolls and breakdowns are retained
// indefinitely once written; nothing here deletes or overwrites them.
type DB interface {
	Close() error
	Migrate() error

	CreateChallenge(ch *Challenge) error
	GetChallenge(id string) (*Challenge, error)
	ListChallenges(query ChallengesQuery) (*ChallengesList, error)

	// UpsertCommitment stores a participant's seed hash, last write wins,
	// but only while the challenge is open. Returns ErrConflict once the
	// window has closed and ErrNotFound for unknown challenges.
	UpsertCommitment(c *Commitment) error
	GetCommitments(challengeID string) ([]Commitment, error)

	// CloseCommitWindow moves open -> committed.
	CloseCommitWindow(challengeID string) error

	// FinalizeScores atomically moves the challenge to scored, appends the
	// score rows and records the disclosed client seeds on their commitment
	// rows. Exactly one concurrent caller succeeds; the rest get ErrConflict
	// and the original scores stay untouched.
	FinalizeScores(challengeID string, outcome *Outcome) error
	GetScores(challengeID string) ([]ScoreRow, error)

	// MarkVerified records the first successful verification. Verifying an
	// already-verified challenge is a no-op, not an error.
	MarkVerified(challengeID string, at time.Time) error
}

// Challenge is one competitive event's persisted record.
type Challenge struct {
	ID             string     `json:"id" db:"id"`
	ChallengeType  string     `json:"challenge_type" db:"challenge_type"`
	State          string     `json:"state" db:"state"`
	SeedCommit     string     `json:"seed_commit" db:"seed_commit"`
	ServerSeed     string     `json:"server_seed,omitempty" db:"server_seed"`
	RollMin        int        `json:"roll_min" db:"roll_min"`
	RollMax        int        `json:"roll_max" db:"roll_max"`
	TopK           int        `json:"top_k" db:"top_k"`
	WinnerTeam     string     `json:"winner_team,omitempty" db:"winner_team"`
	WinnerTie      bool       `json:"winner_tie" db:"winner_tie"`
	TeamTotalsJSON string     `json:"team_totals_json,omitempty" db:"team_totals_json"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ScoredAt       *time.Time `json:"scored_at,omitempty" db:"scored_at"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty" db:"verified_at"`
}

// Commitment is one participant's committed seed hash for one challenge, and
// their later disclosure if any. At most one active row per (challenge,
// participant).
type Commitment struct {
	ChallengeID   string    `json:"challenge_id" db:"challenge_id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	SeedHash      string    `json:"seed_hash" db:"seed_hash"`
	ClientSeed    string    `json:"client_seed,omitempty" db:"client_seed"`
	Team          string    `json:"team,omitempty" db:"team"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ScoreRow is one participant's persisted result: the roll, the final total
// and the serialized modifier and breakdown used to reach it.
type ScoreRow struct {
	ID            int64  `json:"id" db:"id"`
	ChallengeID   string `json:"challenge_id" db:"challenge_id"`
	ParticipantID string `json:"participant_id" db:"participant_id"`
	Team          string `json:"team,omitempty" db:"team"`
	Roll          int    `json:"roll" db:"roll"`
	Total         int    `json:"total" db:"total"`
	ModifierJSON  string `json:"modifier_json" db:"modifier_json"`
	BreakdownJSON string `json:"breakdown_json" db:"breakdown_json"`
}

// Outcome is the finalized result written in one transaction by
// FinalizeScores. ClientSeeds carries the seeds disclosed at scoring time,
// keyed by participant id; they are written back onto the commitment rows so
// the full roll derivation stays replayable from persisted state.
type Outcome struct {
	Scores         []ScoreRow
	ClientSeeds    map[string]string
	WinnerTeam     string
	WinnerTie      bool
	TeamTotalsJSON string
	ScoredAt       time.Time
}

// ChallengesQuery represents query parameters for listing challenges
type ChallengesQuery struct {
	State   string `json:"state,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// ChallengesList represents a paginated challenges response
type ChallengesList struct {
	Challenges []Challenge `json:"challenges"`
	TotalCount int         `json:"totalCount"`
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	TotalPages int         `json:"totalPages"`
}
