package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/willsigmon/CastawayCouncil-sub001/internal/challenge"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/engine"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/resolve"
	"github.com/willsigmon/CastawayCouncil-sub001/internal/store"
)

type fixedSeedSource struct {
	seed string
}

func (f fixedSeedSource) NewSeed() (string, error) {
	return f.seed, nil
}

const testServerSeed = "1b4f0e9851971998e732078544c96b36c3d01cedf7caa332359d6f1d83567014"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	resolver := resolve.New(db, fixedSeedSource{seed: testServerSeed})
	return NewServer(db, resolver).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func createChallenge(t *testing.T, h http.Handler) *store.Challenge {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/api/v1/challenges", CreateChallengeRequest{ChallengeType: "roll"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp CreateChallengeResponse
	decode(t, w, &resp)
	return resp.Challenge
}

func TestChallengeLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	ch := createChallenge(t, h)
	if ch.ServerSeed != "" {
		t.Error("create response leaked the server seed")
	}
	if ch.SeedCommit != engine.CommitSeed(testServerSeed) {
		t.Error("create response missing the seed commitment")
	}

	// Commit two participants
	clientSeed := "heron-client-seed"
	w := doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/commit", CommitRequest{
		ParticipantID: "p1",
		SeedHash:      engine.CommitSeed(clientSeed),
		Team:          "herons",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("commit status = %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/commit", CommitRequest{
		ParticipantID: "p2",
		SeedHash:      engine.CommitSeed("otter-client-seed"),
		Team:          "otters",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("commit status = %d: %s", w.Code, w.Body.String())
	}

	// Close the window, then a late commit is a conflict
	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/close", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("close status = %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/commit", CommitRequest{
		ParticipantID: "p3",
		SeedHash:      engine.CommitSeed("late"),
	})
	if w.Code != http.StatusConflict {
		t.Errorf("late commit status = %d, want %d", w.Code, http.StatusConflict)
	}

	// Score with disclosed seeds and stat snapshots
	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/score", ScoreRequest{
		Participants: []resolve.ParticipantInput{
			{
				ParticipantID: "p1",
				Team:          "herons",
				ClientSeed:    clientSeed,
				Stats:         challenge.Stats{Energy: 80, Hunger: 50, Thirst: 50},
			},
			{
				ParticipantID: "p2",
				Team:          "otters",
				ClientSeed:    "otter-client-seed",
				Stats:         challenge.Stats{Energy: 20, Hunger: 20, Thirst: 40},
				Debuffs:       []string{"exhausted"},
			},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("score status = %d: %s", w.Code, w.Body.String())
	}

	var scored ScoreResponse
	decode(t, w, &scored)
	if scored.Challenge.State != store.StateScored {
		t.Errorf("scored state = %q, want %q", scored.Challenge.State, store.StateScored)
	}
	if scored.Challenge.ServerSeed != testServerSeed {
		t.Error("score response must disclose the server seed")
	}
	if len(scored.Scores) != 2 || len(scored.Teams) != 2 {
		t.Fatalf("got %d scores / %d teams, want 2 / 2", len(scored.Scores), len(scored.Teams))
	}
	for _, sc := range scored.Scores {
		if sc.Total < 1 {
			t.Errorf("participant %s total = %d, below the floor", sc.ParticipantID, sc.Total)
		}
		if len(sc.Breakdown) == 0 {
			t.Errorf("participant %s missing a breakdown", sc.ParticipantID)
		}
	}

	// Scoring twice is a conflict
	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/score", ScoreRequest{
		Participants: []resolve.ParticipantInput{{ParticipantID: "p1"}},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("re-score status = %d, want %d", w.Code, http.StatusConflict)
	}

	// Anyone can verify after reveal
	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/verify", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", w.Code, w.Body.String())
	}
	var verified VerifyResponse
	decode(t, w, &verified)
	if !verified.Valid {
		t.Error("verify reported an honest reveal as invalid")
	}
	if verified.ServerSeed != testServerSeed || verified.SeedCommit != engine.CommitSeed(testServerSeed) {
		t.Error("verify response missing the audit material")
	}
	if verified.ClientSeeds["p1"] != clientSeed {
		t.Errorf("disclosed client seed = %q, want %q", verified.ClientSeeds["p1"], clientSeed)
	}

	// Query shows the full record once verified
	w = doJSON(t, h, http.MethodGet, "/api/v1/challenges/"+ch.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", w.Code, w.Body.String())
	}
	var status StatusResponse
	decode(t, w, &status)
	if status.Challenge.State != store.StateVerified {
		t.Errorf("final state = %q, want %q", status.Challenge.State, store.StateVerified)
	}
	if len(status.Scores) != 2 {
		t.Errorf("query returned %d scores, want 2", len(status.Scores))
	}
}

func TestQueryRedactsSeedBeforeScoring(t *testing.T) {
	h := newTestHandler(t)
	ch := createChallenge(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/v1/challenges/"+ch.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", w.Code, w.Body.String())
	}

	var status StatusResponse
	decode(t, w, &status)
	if status.Challenge.ServerSeed != "" {
		t.Error("query leaked the server seed before scoring")
	}
}

func TestVerifyBeforeRevealIsAskLater(t *testing.T) {
	h := newTestHandler(t)
	ch := createChallenge(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/verify", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("verify status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var errResp ResolverError
	decode(t, w, &errResp)
	if errResp.Type != ErrTypeNotRevealed {
		t.Errorf("error type = %q, want %q", errResp.Type, ErrTypeNotRevealed)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	h := newTestHandler(t)
	ch := createChallenge(t, h)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantType   string
	}{
		{
			name:       "unknown challenge id",
			method:     http.MethodGet,
			path:       "/api/v1/challenges/no-such-id",
			wantStatus: http.StatusNotFound,
			wantType:   ErrTypeChallengeNotFound,
		},
		{
			name:       "unknown challenge type",
			method:     http.MethodPost,
			path:       "/api/v1/challenges",
			body:       CreateChallengeRequest{ChallengeType: "limbo"},
			wantStatus: http.StatusBadRequest,
			wantType:   ErrTypeValidation,
		},
		{
			name:       "malformed seed hash",
			method:     http.MethodPost,
			path:       "/api/v1/challenges/" + ch.ID + "/commit",
			body:       CommitRequest{ParticipantID: "p1", SeedHash: "zzzz"},
			wantStatus: http.StatusBadRequest,
			wantType:   ErrTypeValidation,
		},
		{
			name:       "score with no participants",
			method:     http.MethodPost,
			path:       "/api/v1/challenges/" + ch.ID + "/score",
			body:       ScoreRequest{},
			wantStatus: http.StatusBadRequest,
			wantType:   ErrTypeValidation,
		},
		{
			name:   "mixed team and team-less participants",
			method: http.MethodPost,
			path:   "/api/v1/challenges/" + ch.ID + "/score",
			body: ScoreRequest{Participants: []resolve.ParticipantInput{
				{ParticipantID: "p1", Team: "herons"},
				{ParticipantID: "p2"},
			}},
			wantStatus: http.StatusBadRequest,
			wantType:   ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			var errResp ResolverError
			decode(t, w, &errResp)
			if errResp.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", errResp.Type, tt.wantType)
			}
		})
	}
}

func TestTeamSwitchRejected(t *testing.T) {
	h := newTestHandler(t)
	ch := createChallenge(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/commit", CommitRequest{
		ParticipantID: "p1",
		SeedHash:      engine.CommitSeed("s"),
		Team:          "herons",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("commit status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+ch.ID+"/score", ScoreRequest{
		Participants: []resolve.ParticipantInput{
			{ParticipantID: "p1", Team: "otters"},
		},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("switched-team score status = %d, want %d: %s", w.Code, http.StatusConflict, w.Body.String())
	}

	var errResp ResolverError
	decode(t, w, &errResp)
	if errResp.Type != ErrTypeStateConflict {
		t.Errorf("error type = %q, want %q", errResp.Type, ErrTypeStateConflict)
	}
}

func TestListChallengesRedaction(t *testing.T) {
	h := newTestHandler(t)

	open := createChallenge(t, h)
	scored := createChallenge(t, h)
	w := doJSON(t, h, http.MethodPost, "/api/v1/challenges/"+scored.ID+"/score", ScoreRequest{
		Participants: []resolve.ParticipantInput{{ParticipantID: "p1"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("score status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/challenges", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", w.Code, w.Body.String())
	}

	var list ChallengesResponse
	decode(t, w, &list)
	if list.TotalCount != 2 {
		t.Fatalf("total count = %d, want 2", list.TotalCount)
	}
	for _, ch := range list.Challenges {
		switch ch.ID {
		case open.ID:
			if ch.ServerSeed != "" {
				t.Error("listing leaked the seed of an unscored challenge")
			}
		case scored.ID:
			if ch.ServerSeed != testServerSeed {
				t.Error("listing must disclose the seed of a scored challenge")
			}
		}
	}
}

func TestSeedHashEndpoint(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/seed/hash", SeedHashRequest{Seed: "my-seed"})
	if w.Code != http.StatusOK {
		t.Fatalf("seed hash status = %d: %s", w.Code, w.Body.String())
	}

	var resp SeedHashResponse
	decode(t, w, &resp)
	if resp.Hash != engine.CommitSeed("my-seed") {
		t.Errorf("hash = %q, want SHA-256 of the seed", resp.Hash)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/seed/hash", SeedHashRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty seed status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListTypesEndpoint(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/types", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("types status = %d: %s", w.Code, w.Body.String())
	}

	var resp TypesResponse
	decode(t, w, &resp)
	found := false
	for _, typ := range resp.Types {
		if typ == "roll" {
			found = true
		}
	}
	if !found {
		t.Errorf("types listing %v missing the default variant", resp.Types)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		w := doJSON(t, h, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

func TestVersionHeader(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/types", nil)
	if got := w.Header().Get("X-Resolver-Version"); got != ResolverVersion {
		t.Errorf("X-Resolver-Version = %q, want %q", got, ResolverVersion)
	}
}
