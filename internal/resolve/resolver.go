package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/willsigmon/CastawayCouncil-sub001/internal/challenge"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/engine"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/store"
)

// Resolver sequences the commit-reveal protocol and the scoring core against
// persisted challenge state. It is the only component in the core that
// performs IO; everything it calls in engine and challenge is pure.
type Resolver struct {
	db     store.DB
	seeds  engine.SeedSource
	logger *log.Logger
}

// New creates a resolver over the given store and seed source
func New(db store.DB, seeds engine.SeedSource) *Resolver {
	return &Resolver{
		db:     db,
		seeds:  seeds,
		logger: log.New(os.Stdout, "[RESOLVE] ", log.LstdFlags|log.LUTC),
	}
}

// CreateRequest describes a new challenge. Zero values fall back to the
// challenge type's defaults.
type CreateRequest struct {
	ChallengeType string `json:"challenge_type"`
	TopK          int    `json:"top_k,omitempty"`
	RollMin       int    `json:"roll_min,omitempty"`
	RollMax       int    `json:"roll_max,omitempty"`
}

// ParticipantInput carries one participant's roll inputs for scoring: their
// disclosed client seed plus a single consistent snapshot of their live
// stats, items and debuffs. The snapshot is read once by the caller; the
// resolver never re-reads stats mid-score.
type ParticipantInput struct {
	ParticipantID string          `json:"participant_id"`
	Team          string          `json:"team,omitempty"`
	ClientSeed    string          `json:"client_seed,omitempty"`
	Stats         challenge.Stats `json:"stats"`
	ItemBonus     int             `json:"item_bonus,omitempty"`
	EventBonus    int             `json:"event_bonus,omitempty"`
	Debuffs       []string        `json:"debuffs,omitempty"`
}

// Outcome is the finalized result of one scoring pass.
type Outcome struct {
	Challenge  *store.Challenge      `json:"challenge"`
	Scores     []challenge.Score     `json:"scores"`
	Teams      []challenge.TeamScore `json:"teams,omitempty"`
	Winner     string                `json:"winner,omitempty"`
	WinnerIdx  int                   `json:"winner_index"`
	Tie        bool                  `json:"tie"`
}

// Verification is the audit result any party can request after scoring.
type Verification struct {
	Valid       bool              `json:"valid"`
	SeedCommit  string            `json:"seed_commit"`
	ServerSeed  string            `json:"server_seed"`
	ClientSeeds map[string]string `json:"client_seeds,omitempty"`
}

// Status is the query view of a challenge. The server seed is redacted until
// the challenge has been scored.
type Status struct {
	Challenge   *store.Challenge      `json:"challenge"`
	Commitments []store.Commitment    `json:"commitments"`
	Scores      []challenge.Score     `json:"scores,omitempty"`
	Teams       []challenge.TeamScore `json:"teams,omitempty"`
}

// Create draws a fresh server seed from the secure source, publishes only its
// SHA-256 commitment, and opens the commit window.
func (r *Resolver) Create(ctx context.Context, req CreateRequest) (*store.Challenge, error) {
	typ, ok := challenge.GetType(req.ChallengeType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.ChallengeType)
	}

	seed, err := r.seeds.NewSeed()
	if err != nil {
		return nil, err
	}

	rng := typ.RollRange()
	if req.RollMin != 0 || req.RollMax != 0 {
		rng = engine.RollRange{Min: req.RollMin, Max: req.RollMax}
	}
	if !rng.Valid() {
		return nil, fmt.Errorf("invalid roll range [%d, %d]", rng.Min, rng.Max)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = typ.DefaultTopK()
	}

	ch := &store.Challenge{
		ChallengeType: typ.ID(),
		State:         store.StateOpen,
		SeedCommit:    engine.CommitSeed(seed),
		ServerSeed:    seed,
		RollMin:       rng.Min,
		RollMax:       rng.Max,
		TopK:          topK,
	}

	if err := r.db.CreateChallenge(ch); err != nil {
		return nil, err
	}

	r.logger.Printf("challenge_created id=%s type=%s seed_commit=%s roll_range=%d-%d top_k=%d",
		ch.ID, ch.ChallengeType, ch.SeedCommit, ch.RollMin, ch.RollMax, ch.TopK)

	redacted := *ch
	redacted.ServerSeed = ""
	return &redacted, nil
}

// Commit records a participant's seed hash. Re-commits before the window
// closes supersede the previous one; anything after reveal is rejected.
func (r *Resolver) Commit(ctx context.Context, challengeID, participantID, seedHash, team string) error {
	if participantID == "" {
		return fmt.Errorf("participant id is required")
	}
	if !engine.ValidHash(seedHash) {
		return ErrInvalidHash
	}

	err := r.db.UpsertCommitment(&store.Commitment{
		ChallengeID:   challengeID,
		ParticipantID: participantID,
		SeedHash:      seedHash,
		Team:          team,
	})
	if err == store.ErrConflict {
		return ErrWindowClosed
	}
	if err != nil {
		return err
	}

	r.logger.Printf("commitment_recorded challenge_id=%s participant_id=%s seed_hash=%s",
		challengeID, participantID, seedHash)
	return nil
}

// CloseCommits explicitly closes the commit window ahead of scoring.
// Scoring also closes it implicitly; this exists for game phases where the
// window ends before the stat snapshot is taken.
func (r *Resolver) CloseCommits(ctx context.Context, challengeID string) error {
	err := r.db.CloseCommitWindow(challengeID)
	if err == store.ErrConflict {
		ch, getErr := r.db.GetChallenge(challengeID)
		if getErr != nil {
			return getErr
		}
		if ch.State == store.StateCommitted {
			return nil // already closed
		}
		return ErrAlreadyScored
	}
	return err
}

// Score reveals the server seed, derives every participant's roll from the
// combined seed material, folds in the modifier snapshot, aggregates teams,
// resolves the winner and persists the result exactly once.
func (r *Resolver) Score(ctx context.Context, challengeID string, inputs []ParticipantInput) (*Outcome, error) {
	if len(inputs) == 0 {
		return nil, ErrNoParticipants
	}

	ch, err := r.db.GetChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	if ch.State == store.StateScored || ch.State == store.StateVerified {
		return nil, ErrAlreadyScored
	}

	// The server's own commitment must hold before anything else happens.
	// A mismatch here means the stored record was tampered with.
	if err := engine.VerifyCommit(ch.ServerSeed, ch.SeedCommit); err != nil {
		return nil, err
	}

	commitments, err := r.db.GetCommitments(challengeID)
	if err != nil {
		return nil, err
	}
	committed := make(map[string]store.Commitment, len(commitments))
	for _, c := range commitments {
		committed[c.ParticipantID] = c
	}

	rng := engine.RollRange{Min: ch.RollMin, Max: ch.RollMax}
	scores := make([]challenge.Score, 0, len(inputs))
	rows := make([]store.ScoreRow, 0, len(inputs))
	disclosed := make(map[string]string)
	teams := make(map[string][]challenge.Score)
	teamOrder := []string{}

	for _, in := range inputs {
		if in.ParticipantID == "" {
			return nil, fmt.Errorf("participant id is required")
		}

		// Roll material beyond the participant id comes only from the
		// commitments table, so an auditor can replay every derivation from
		// persisted state. A disclosed seed must hash to the commitment and
		// is recorded on it; an undisclosed seed falls back to the committed
		// hash itself; a seed from a participant who never committed is
		// ignored.
		material := ""
		if c, ok := committed[in.ParticipantID]; ok {
			if c.Team != "" && in.Team != c.Team {
				return nil, fmt.Errorf("%w: participant %s committed as %q", ErrTeamMismatch, in.ParticipantID, c.Team)
			}
			if in.ClientSeed != "" {
				if engine.CommitSeed(in.ClientSeed) != c.SeedHash {
					return nil, fmt.Errorf("%w: participant %s", ErrClientSeedMismatch, in.ParticipantID)
				}
				material = in.ClientSeed
				disclosed[in.ParticipantID] = in.ClientSeed
			} else {
				material = c.SeedHash
			}
		}

		roll, err := engine.Roll(ch.ServerSeed, in.ParticipantID, material, rng)
		if err != nil {
			return nil, err
		}

		if _, unknown := challenge.DebuffPenalty(in.Debuffs); len(unknown) > 0 {
			r.logger.Printf("unknown_debuffs challenge_id=%s participant_id=%s debuffs=%v",
				challengeID, in.ParticipantID, unknown)
		}

		sc := challenge.ComputeScore(in.ParticipantID, roll, in.Stats, in.ItemBonus, in.EventBonus, in.Debuffs)
		scores = append(scores, sc)

		modJSON, err := json.Marshal(sc.Modifiers)
		if err != nil {
			return nil, err
		}
		bdJSON, err := json.Marshal(sc.Breakdown)
		if err != nil {
			return nil, err
		}
		rows = append(rows, store.ScoreRow{
			ChallengeID:   challengeID,
			ParticipantID: in.ParticipantID,
			Team:          in.Team,
			Roll:          roll,
			Total:         sc.Total,
			ModifierJSON:  string(modJSON),
			BreakdownJSON: string(bdJSON),
		})

		if in.Team != "" {
			if _, seen := teams[in.Team]; !seen {
				teamOrder = append(teamOrder, in.Team)
			}
			teams[in.Team] = append(teams[in.Team], sc)
		}
	}

	outcome := &Outcome{Scores: scores, WinnerIdx: challenge.NoWinner}
	var teamTotalsJSON string

	if len(teams) > 0 {
		sort.Strings(teamOrder)
		totals := make([]int, len(teamOrder))
		for i, name := range teamOrder {
			ts := challenge.Aggregate(name, teams[name], ch.TopK)
			outcome.Teams = append(outcome.Teams, ts)
			totals[i] = ts.Total
		}
		outcome.WinnerIdx = challenge.ResolveWinner(totals)
		if outcome.WinnerIdx == challenge.NoWinner {
			outcome.Tie = true
		} else {
			outcome.Winner = teamOrder[outcome.WinnerIdx]
		}

		raw, err := json.Marshal(outcome.Teams)
		if err != nil {
			return nil, err
		}
		teamTotalsJSON = string(raw)
	} else {
		totals := make([]int, len(scores))
		for i, sc := range scores {
			totals[i] = sc.Total
		}
		outcome.WinnerIdx = challenge.ResolveWinner(totals)
		if outcome.WinnerIdx == challenge.NoWinner {
			outcome.Tie = true
		} else {
			outcome.Winner = scores[outcome.WinnerIdx].ParticipantID
		}
	}

	scoredAt := time.Now().UTC()
	err = r.db.FinalizeScores(challengeID, &store.Outcome{
		Scores:         rows,
		ClientSeeds:    disclosed,
		WinnerTeam:     outcome.Winner,
		WinnerTie:      outcome.Tie,
		TeamTotalsJSON: teamTotalsJSON,
		ScoredAt:       scoredAt,
	})
	if err == store.ErrConflict {
		// A concurrent scorer won the compare-and-set; the persisted
		// result stands and this computation is discarded.
		return nil, ErrAlreadyScored
	}
	if err != nil {
		return nil, err
	}

	ch.State = store.StateScored
	ch.ScoredAt = &scoredAt
	ch.WinnerTeam = outcome.Winner
	ch.WinnerTie = outcome.Tie
	ch.TeamTotalsJSON = teamTotalsJSON
	outcome.Challenge = ch

	r.logger.Printf("challenge_scored id=%s participants=%d teams=%d winner=%q tie=%t",
		challengeID, len(scores), len(teams), outcome.Winner, outcome.Tie)

	return outcome, nil
}

// Verify recomputes SHA-256 over the disclosed server seed and compares it to
// the original commitment. Before reveal this reports engine.ErrNotRevealed;
// a mismatch after reveal is an integrity violation, surfaced loudly and
// never conflated with "not ready".
func (r *Resolver) Verify(ctx context.Context, challengeID string) (*Verification, error) {
	ch, err := r.db.GetChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	if ch.State != store.StateScored && ch.State != store.StateVerified {
		return nil, engine.ErrNotRevealed
	}

	v := &Verification{
		SeedCommit: ch.SeedCommit,
		ServerSeed: ch.ServerSeed,
	}

	commitments, err := r.db.GetCommitments(challengeID)
	if err != nil {
		return nil, err
	}
	// Each entry is the exact roll material used at scoring time: the
	// disclosed seed recorded during finalization, or the committed hash for
	// a participant who never disclosed. Re-deriving rolls from these values
	// reproduces the persisted results.
	if len(commitments) > 0 {
		v.ClientSeeds = make(map[string]string, len(commitments))
		for _, c := range commitments {
			if c.ClientSeed != "" {
				v.ClientSeeds[c.ParticipantID] = c.ClientSeed
			} else {
				v.ClientSeeds[c.ParticipantID] = c.SeedHash
			}
		}
	}

	if err := engine.VerifyCommit(ch.ServerSeed, ch.SeedCommit); err != nil {
		r.logger.Printf("integrity_failure challenge_id=%s seed_commit=%s", challengeID, ch.SeedCommit)
		v.Valid = false
		return v, engine.ErrSeedMismatch
	}
	v.Valid = true

	// Verification never changes the score, only the trust metadata
	if err := r.db.MarkVerified(challengeID, time.Now().UTC()); err != nil && err != store.ErrConflict {
		return nil, err
	}

	return v, nil
}

// Query returns the challenge's current state, commitments and any persisted
// scores. The server seed stays redacted until the challenge is scored.
func (r *Resolver) Query(ctx context.Context, challengeID string) (*Status, error) {
	ch, err := r.db.GetChallenge(challengeID)
	if err != nil {
		return nil, err
	}

	commitments, err := r.db.GetCommitments(challengeID)
	if err != nil {
		return nil, err
	}

	status := &Status{Challenge: ch, Commitments: commitments}

	if ch.State == store.StateScored || ch.State == store.StateVerified {
		rows, err := r.db.GetScores(challengeID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			sc := challenge.Score{
				ParticipantID: row.ParticipantID,
				Roll:          row.Roll,
				Total:         row.Total,
			}
			if err := json.Unmarshal([]byte(row.ModifierJSON), &sc.Modifiers); err != nil {
				return nil, fmt.Errorf("corrupt modifier record for %s: %w", row.ParticipantID, err)
			}
			if err := json.Unmarshal([]byte(row.BreakdownJSON), &sc.Breakdown); err != nil {
				return nil, fmt.Errorf("corrupt breakdown record for %s: %w", row.ParticipantID, err)
			}
			status.Scores = append(status.Scores, sc)
		}
		if ch.TeamTotalsJSON != "" {
			if err := json.Unmarshal([]byte(ch.TeamTotalsJSON), &status.Teams); err != nil {
				return nil, fmt.Errorf("corrupt team totals record: %w", err)
			}
		}
	} else {
		redacted := *ch
		redacted.ServerSeed = ""
		status.Challenge = &redacted
	}

	return status, nil
}
