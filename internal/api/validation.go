package api

import (
	"fmt"
	"strings"

	"github.com/willsigmon/CastawayCouncil-sub001/internal/challenge"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/engine"
)

const maxParticipants = 200

// ValidateCreateRequest validates a challenge creation request
func ValidateCreateRequest(req *CreateChallengeRequest) error {
	if req.ChallengeType == "" {
		return fmt.Errorf("challenge_type is required")
	}

	if _, exists := challenge.GetType(req.ChallengeType); !exists {
		return fmt.Errorf("challenge_type %q not found (available: %s)",
			req.ChallengeType, strings.Join(challenge.ListTypes(), ", "))
	}

	// Zero means "use the type default"; an explicit range must be sane
	if req.RollMin != 0 || req.RollMax != 0 {
		if req.RollMax < req.RollMin {
			return fmt.Errorf("roll_max (%d) must be >= roll_min (%d)", req.RollMax, req.RollMin)
		}
	}

	if req.TopK < 0 {
		return fmt.Errorf("top_k must be >= 0")
	}

	return nil
}

// ValidateCommitRequest validates a participant commitment
func ValidateCommitRequest(req *CommitRequest) error {
	if req.ParticipantID == "" {
		return fmt.Errorf("participant_id is required")
	}

	if req.SeedHash == "" {
		return fmt.Errorf("seed_hash is required")
	}
	if !engine.ValidHash(req.SeedHash) {
		return fmt.Errorf("seed_hash must be exactly 64 hex characters")
	}

	return nil
}

// ValidateScoreRequest validates a reveal-and-score request
func ValidateScoreRequest(req *ScoreRequest) error {
	if len(req.Participants) == 0 {
		return fmt.Errorf("participants is required")
	}
	if len(req.Participants) > maxParticipants {
		return fmt.Errorf("too many participants (max %d)", maxParticipants)
	}

	seen := make(map[string]bool, len(req.Participants))
	withTeam := 0
	for i, p := range req.Participants {
		if p.ParticipantID == "" {
			return fmt.Errorf("participants[%d].participant_id is required", i)
		}
		if seen[p.ParticipantID] {
			return fmt.Errorf("duplicate participant id %q", p.ParticipantID)
		}
		seen[p.ParticipantID] = true
		if p.Team != "" {
			withTeam++
		}
	}

	// A challenge is scored either as teams or as individuals; a partial
	// team assignment would silently drop the unassigned from the winner
	// resolution.
	if withTeam > 0 && withTeam < len(req.Participants) {
		return fmt.Errorf("either every participant has a team or none do (%d of %d assigned)",
			withTeam, len(req.Participants))
	}

	return nil
}

// ValidateSeedHashRequest validates a seed hash request
func ValidateSeedHashRequest(req *SeedHashRequest) error {
	if req.Seed == "" {
		return fmt.Errorf("seed is required")
	}

	return nil
}
