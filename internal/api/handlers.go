package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/challenge"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/engine"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/resolve"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/store"
)

// handleCreateChallenge opens a new challenge and publishes its seed commitment
func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := ValidateCreateRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "challenge", err.Error())
		return
	}

	ch, err := s.resolver.Create(r.Context(), resolve.CreateRequest{
		ChallengeType: req.ChallengeType,
		TopK:          req.TopK,
		RollMin:       req.RollMin,
		RollMax:       req.RollMax,
	})
	if err != nil {
		s.handleResolveError(w, r, "", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, CreateChallengeResponse{
		Challenge:       ch,
		ResolverVersion: ResolverVersion,
	})
}

// handleCommit records a participant's seed hash while the window is open
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")
	requestID := middleware.GetReqID(r.Context())

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := ValidateCommitRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "commitment", err.Error())
		return
	}

	err := s.resolver.Commit(r.Context(), challengeID, req.ParticipantID, req.SeedHash, req.Team)
	if err != nil {
		s.handleResolveError(w, r, challengeID, err)
		return
	}

	s.securityLogger.LogCommitOperation(requestID, challengeID, req.ParticipantID, req.SeedHash)

	s.writeJSON(w, http.StatusOK, CommitResponse{
		ChallengeID:     challengeID,
		ParticipantID:   req.ParticipantID,
		ResolverVersion: ResolverVersion,
	})
}

// handleCloseCommits closes the commit window ahead of scoring
func (s *Server) handleCloseCommits(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")

	if err := s.resolver.CloseCommits(r.Context(), challengeID); err != nil {
		s.handleResolveError(w, r, challengeID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"challenge_id":     challengeID,
		"state":            store.StateCommitted,
		"resolver_version": ResolverVersion,
	})
}

// handleScore reveals the server seed and finalizes the challenge outcome
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")
	requestID := middleware.GetReqID(r.Context())

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := ValidateScoreRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "participants", err.Error())
		return
	}

	outcome, err := s.resolver.Score(r.Context(), challengeID, req.Participants)
	if err != nil {
		s.handleResolveError(w, r, challengeID, err)
		return
	}

	s.securityLogger.LogScoreOperation(requestID, challengeID,
		len(outcome.Scores), len(outcome.Teams), outcome.Winner, outcome.Tie)

	s.writeJSON(w, http.StatusOK, ScoreResponse{
		Challenge:       outcome.Challenge,
		Scores:          outcome.Scores,
		Teams:           outcome.Teams,
		Winner:          outcome.Winner,
		WinnerIndex:     outcome.WinnerIdx,
		Tie:             outcome.Tie,
		ResolverVersion: ResolverVersion,
	})
}

// handleVerify lets any party recompute the commitment and audit the outcome
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")
	requestID := middleware.GetReqID(r.Context())

	v, err := s.resolver.Verify(r.Context(), challengeID)
	if err != nil {
		// On a mismatch the audit material still goes out with valid=false
		if errors.Is(err, engine.ErrSeedMismatch) && v != nil {
			s.securityLogger.LogVerifyOperation(requestID, challengeID, v.ServerSeed, false)
			s.errorHandler.HandleIntegrityError(w, r, challengeID, err)
			return
		}
		s.handleResolveError(w, r, challengeID, err)
		return
	}

	s.securityLogger.LogVerifyOperation(requestID, challengeID, v.ServerSeed, v.Valid)

	s.writeJSON(w, http.StatusOK, VerifyResponse{
		ChallengeID:     challengeID,
		Valid:           v.Valid,
		SeedCommit:      v.SeedCommit,
		ServerSeed:      v.ServerSeed,
		ClientSeeds:     v.ClientSeeds,
		ResolverVersion: ResolverVersion,
	})
}

// handleGetChallenge returns the current state, phase and persisted scores
func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")

	status, err := s.resolver.Query(r.Context(), challengeID)
	if err != nil {
		s.handleResolveError(w, r, challengeID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{
		Challenge:       status.Challenge,
		Commitments:     status.Commitments,
		Scores:          status.Scores,
		Teams:           status.Teams,
		ResolverVersion: ResolverVersion,
	})
}

// handleListChallenges returns a paginated listing, seeds redacted for
// anything not yet scored
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	query := store.ChallengesQuery{
		State: r.URL.Query().Get("state"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		query.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		query.PerPage = perPage
	}

	list, err := s.db.ListChallenges(query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	challenges := make([]store.Challenge, len(list.Challenges))
	for i, ch := range list.Challenges {
		if ch.State != store.StateScored && ch.State != store.StateVerified {
			ch.ServerSeed = ""
		}
		challenges[i] = ch
	}

	s.writeJSON(w, http.StatusOK, ChallengesResponse{
		Challenges:      challenges,
		TotalCount:      list.TotalCount,
		Page:            list.Page,
		PerPage:         list.PerPage,
		TotalPages:      list.TotalPages,
		ResolverVersion: ResolverVersion,
	})
}

// handleListTypes returns the registered challenge variants
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, TypesResponse{
		Types:           challenge.ListTypes(),
		ResolverVersion: ResolverVersion,
	})
}

// handleSeedHash hashes a seed so participants can pre-compute a commitment
func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := ValidateSeedHashRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "seed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, SeedHashResponse{
		Hash:            engine.CommitSeed(req.Seed),
		ResolverVersion: ResolverVersion,
	})
}

// handleResolveError maps resolver and store errors to the HTTP error model
func (s *Server) handleResolveError(w http.ResponseWriter, r *http.Request, challengeID string, err error) {
	ctx := map[string]interface{}{}
	if challengeID != "" {
		ctx["challenge_id"] = challengeID
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, ErrTypeChallengeNotFound, "Challenge not found", ctx)
	case errors.Is(err, resolve.ErrInvalidHash),
		errors.Is(err, resolve.ErrUnknownType),
		errors.Is(err, resolve.ErrNoParticipants),
		errors.Is(err, resolve.ErrClientSeedMismatch):
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, err.Error(), ctx)
	case errors.Is(err, resolve.ErrWindowClosed):
		s.writeError(w, http.StatusConflict, ErrTypeStateConflict, "Commit window closed", ctx)
	case errors.Is(err, resolve.ErrAlreadyScored):
		s.writeError(w, http.StatusConflict, ErrTypeStateConflict, "Challenge already scored", ctx)
	case errors.Is(err, resolve.ErrTeamMismatch):
		s.writeError(w, http.StatusConflict, ErrTypeStateConflict, err.Error(), ctx)
	case errors.Is(err, store.ErrConflict):
		s.writeError(w, http.StatusConflict, ErrTypeStateConflict, err.Error(), ctx)
	case errors.Is(err, engine.ErrNotRevealed):
		s.writeError(w, http.StatusBadRequest, ErrTypeNotRevealed, "Server seed not yet revealed", ctx)
	case errors.Is(err, engine.ErrSeedMismatch):
		s.errorHandler.HandleIntegrityError(w, r, challengeID, err)
	default:
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
	}
}
