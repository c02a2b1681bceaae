package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS challenges (
			id TEXT PRIMARY KEY,
			challenge_type TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'open',
			seed_commit TEXT NOT NULL,
			server_seed TEXT NOT NULL,
			roll_min INTEGER NOT NULL,
			roll_max INTEGER NOT NULL,
			top_k INTEGER NOT NULL,
			winner_team TEXT,
			winner_tie INTEGER NOT NULL DEFAULT 0,
			team_totals_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			scored_at DATETIME,
			verified_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS commitments (
			challenge_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			seed_hash TEXT NOT NULL,
			client_seed TEXT,
			team TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (challenge_id, participant_id),
			FOREIGN KEY (challenge_id) REFERENCES challenges(id)
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			challenge_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			team TEXT,
			roll INTEGER NOT NULL,
			total INTEGER NOT NULL,
			modifier_json TEXT NOT NULL,
			breakdown_json TEXT NOT NULL,
			FOREIGN KEY (challenge_id) REFERENCES challenges(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_challenge ON scores(challenge_id)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_state ON challenges(state)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_created_at ON challenges(created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// CreateChallenge persists a new challenge record in the open state
func (s *SQLiteDB) CreateChallenge(ch *Challenge) error {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	if ch.State == "" {
		ch.State = StateOpen
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO challenges (
		id, challenge_type, state, seed_commit, server_seed,
		roll_min, roll_max, top_k, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		ch.ID, ch.ChallengeType, ch.State, ch.SeedCommit, ch.ServerSeed,
		ch.RollMin, ch.RollMax, ch.TopK, ch.CreatedAt,
	)

	return err
}

// GetChallenge retrieves a challenge by ID
func (s *SQLiteDB) GetChallenge(id string) (*Challenge, error) {
	query := `SELECT
		id, challenge_type, state, seed_commit, server_seed,
		roll_min, roll_max, top_k, winner_team, winner_tie, team_totals_json,
		created_at, scored_at, verified_at
		FROM challenges WHERE id = ?`

	var ch Challenge
	var winnerTeam, teamTotals sql.NullString
	var winnerTieInt int
	var scoredAt, verifiedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&ch.ID, &ch.ChallengeType, &ch.State, &ch.SeedCommit, &ch.ServerSeed,
		&ch.RollMin, &ch.RollMax, &ch.TopK, &winnerTeam, &winnerTieInt, &teamTotals,
		&ch.CreatedAt, &scoredAt, &verifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if winnerTeam.Valid {
		ch.WinnerTeam = winnerTeam.String
	}
	if teamTotals.Valid {
		ch.TeamTotalsJSON = teamTotals.String
	}
	if scoredAt.Valid {
		t := scoredAt.Time
		ch.ScoredAt = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		ch.VerifiedAt = &t
	}
	ch.WinnerTie = winnerTieInt == 1

	return &ch, nil
}

// UpsertCommitment stores a participant's seed hash while the window is open.
// The state check and the write happen in a single statement so a commitment
// racing the reveal cannot slip in after the window closes.
func (s *SQLiteDB) UpsertCommitment(c *Commitment) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	query := `INSERT INTO commitments (challenge_id, participant_id, seed_hash, client_seed, team, updated_at)
		SELECT ch.id, ?, ?, ?, ?, ?
		FROM challenges ch WHERE ch.id = ? AND ch.state = ?
		ON CONFLICT(challenge_id, participant_id) DO UPDATE SET
			seed_hash = excluded.seed_hash,
			client_seed = excluded.client_seed,
			team = excluded.team,
			updated_at = excluded.updated_at`

	res, err := s.db.Exec(query,
		c.ParticipantID, c.SeedHash, c.ClientSeed, c.Team, c.UpdatedAt,
		c.ChallengeID, StateOpen,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish an unknown challenge from a closed window
		if _, err := s.GetChallenge(c.ChallengeID); err != nil {
			return err
		}
		return ErrConflict
	}

	return nil
}

// GetCommitments retrieves all commitments for a challenge
func (s *SQLiteDB) GetCommitments(challengeID string) ([]Commitment, error) {
	query := `SELECT challenge_id, participant_id, seed_hash, client_seed, team, updated_at
		FROM commitments WHERE challenge_id = ?
		ORDER BY participant_id`

	rows, err := s.db.Query(query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commitments []Commitment
	for rows.Next() {
		var c Commitment
		var clientSeed, team sql.NullString

		if err := rows.Scan(&c.ChallengeID, &c.ParticipantID, &c.SeedHash, &clientSeed, &team, &c.UpdatedAt); err != nil {
			return nil, err
		}

		if clientSeed.Valid {
			c.ClientSeed = clientSeed.String
		}
		if team.Valid {
			c.Team = team.String
		}

		commitments = append(commitments, c)
	}

	return commitments, rows.Err()
}

// CloseCommitWindow moves a challenge from open to committed
func (s *SQLiteDB) CloseCommitWindow(challengeID string) error {
	return s.transition(challengeID,
		`UPDATE challenges SET state = ? WHERE id = ? AND state = ?`,
		StateCommitted, challengeID, StateOpen,
	)
}

// FinalizeScores writes the outcome and flips the challenge to scored in one
// transaction. The conditional UPDATE is the compare-and-set that guarantees
// exactly-once scoring: of two racing callers, only one sees RowsAffected=1.
func (s *SQLiteDB) FinalizeScores(challengeID string, outcome *Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE challenges SET state = ?, scored_at = ?, winner_team = ?, winner_tie = ?, team_totals_json = ?
		WHERE id = ? AND state IN (?, ?)`,
		StateScored, outcome.ScoredAt, nullable(outcome.WinnerTeam), boolToInt(outcome.WinnerTie),
		nullable(outcome.TeamTotalsJSON), challengeID, StateOpen, StateCommitted,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetChallenge(challengeID); err != nil {
			return err
		}
		return ErrConflict
	}

	stmt, err := tx.Prepare(`INSERT INTO scores
		(challenge_id, participant_id, team, roll, total, modifier_json, breakdown_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range outcome.Scores {
		if _, err := stmt.Exec(challengeID, row.ParticipantID, nullable(row.Team),
			row.Roll, row.Total, row.ModifierJSON, row.BreakdownJSON); err != nil {
			return err
		}
	}

	// Disclosed seeds land on the commitment rows in the same transaction,
	// so the audit trail either has the full reveal or none of it.
	if len(outcome.ClientSeeds) > 0 {
		disclose, err := tx.Prepare(`UPDATE commitments SET client_seed = ?, updated_at = ?
			WHERE challenge_id = ? AND participant_id = ?`)
		if err != nil {
			return err
		}
		defer disclose.Close()

		for participantID, seed := range outcome.ClientSeeds {
			if _, err := disclose.Exec(seed, outcome.ScoredAt, challengeID, participantID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetScores retrieves the persisted scores for a challenge
func (s *SQLiteDB) GetScores(challengeID string) ([]ScoreRow, error) {
	query := `SELECT id, challenge_id, participant_id, team, roll, total, modifier_json, breakdown_json
		FROM scores WHERE challenge_id = ?
		ORDER BY total DESC, participant_id`

	rows, err := s.db.Query(query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []ScoreRow
	for rows.Next() {
		var row ScoreRow
		var team sql.NullString

		if err := rows.Scan(&row.ID, &row.ChallengeID, &row.ParticipantID, &team,
			&row.Roll, &row.Total, &row.ModifierJSON, &row.BreakdownJSON); err != nil {
			return nil, err
		}

		if team.Valid {
			row.Team = team.String
		}

		scores = append(scores, row)
	}

	return scores, rows.Err()
}

// MarkVerified records the first successful verification timestamp
func (s *SQLiteDB) MarkVerified(challengeID string, at time.Time) error {
	res, err := s.db.Exec(
		`UPDATE challenges SET state = ?, verified_at = ? WHERE id = ? AND state = ?`,
		StateVerified, at, challengeID, StateScored,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		ch, err := s.GetChallenge(challengeID)
		if err != nil {
			return err
		}
		// Re-verification of an already verified challenge is fine
		if ch.State == StateVerified {
			return nil
		}
		return ErrConflict
	}

	return nil
}

// ListChallenges retrieves challenges with pagination and state filtering
func (s *SQLiteDB) ListChallenges(query ChallengesQuery) (*ChallengesList, error) {
	whereClause := ""
	args := []interface{}{}

	if query.State != "" {
		whereClause = "WHERE state = ?"
		args = append(args, query.State)
	}

	countQuery := "SELECT COUNT(*) FROM challenges " + whereClause
	var totalCount int
	if err := s.db.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50 // Default page size
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT
		id, challenge_type, state, seed_commit, server_seed,
		roll_min, roll_max, top_k, winner_team, winner_tie, team_totals_json,
		created_at, scored_at, verified_at
		FROM challenges ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []Challenge
	for rows.Next() {
		var ch Challenge
		var winnerTeam, teamTotals sql.NullString
		var winnerTieInt int
		var scoredAt, verifiedAt sql.NullTime

		err := rows.Scan(
			&ch.ID, &ch.ChallengeType, &ch.State, &ch.SeedCommit, &ch.ServerSeed,
			&ch.RollMin, &ch.RollMax, &ch.TopK, &winnerTeam, &winnerTieInt, &teamTotals,
			&ch.CreatedAt, &scoredAt, &verifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}

		if winnerTeam.Valid {
			ch.WinnerTeam = winnerTeam.String
		}
		if teamTotals.Valid {
			ch.TeamTotalsJSON = teamTotals.String
		}
		if scoredAt.Valid {
			t := scoredAt.Time
			ch.ScoredAt = &t
		}
		if verifiedAt.Valid {
			t := verifiedAt.Time
			ch.VerifiedAt = &t
		}
		ch.WinnerTie = winnerTieInt == 1

		challenges = append(challenges, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return &ChallengesList{
		Challenges: challenges,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// transition runs a state-conditional update and maps a missed condition to
// ErrNotFound or ErrConflict.
func (s *SQLiteDB) transition(challengeID, query string, args ...interface{}) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetChallenge(challengeID); err != nil {
			return err
		}
		return ErrConflict
	}

	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
