package handlers

import (
	"context"
	"net/http"
	"time"

	"pickYourSocksAPI/internal/geo"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/services"
)

type MatchHandler struct {
	matchService  *services.MatchService
	resultService *services.ResultService
}

func NewMatchHandler(matchService *services.MatchService, resultService *services.ResultService) *MatchHandler {
	return &MatchHandler{
		matchService:  matchService,
		resultService: resultService,
	}
}

// GET /api/v1/matches - Own match history with results
func (h *MatchHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	matches, err := h.matchService.ListMine(ctx, sess)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, matches)
}

// GET /api/v1/matches/open?sport= - Broadcasts other players can take
func (h *MatchHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	broadcasts, err := h.matchService.ListOpenBroadcasts(ctx, sess, r.URL.Query().Get("sport"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, broadcasts)
}

// POST /api/v1/matches/challenge
func (h *MatchHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req match.CreateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.matchService.CreateChallenge(ctx, sess, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, m)
}

// POST /api/v1/matches/broadcast
func (h *MatchHandler) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req match.CreateBroadcastRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.matchService.CreateBroadcast(ctx, sess, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, m)
}

// GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	m, err := h.matchService.Get(ctx, sess, matchID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

// POST /api/v1/matches/{id}/accept
func (h *MatchHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	m, err := h.matchService.Accept(ctx, sess, matchID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

// POST /api/v1/matches/{id}/decline
func (h *MatchHandler) Decline(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	m, err := h.matchService.Decline(ctx, sess, matchID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

// DELETE /api/v1/matches/{id}
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	if err := h.matchService.Cancel(ctx, sess, matchID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Match cancelled"})
}

// POST /api/v1/matches/{id}/check-in
func (h *MatchHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	var req match.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.matchService.CheckIn(ctx, sess, matchID, &req, geo.ClientIP(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}

// GET /api/v1/matches/{id}/qr - Invite deep link as a QR code
func (h *MatchHandler) InviteQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	qr, err := h.matchService.InviteQR(ctx, sess, matchID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, qr)
}

// GET /api/v1/matches/{id}/result
func (h *MatchHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	result, err := h.resultService.GetResult(ctx, sess, matchID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// POST /api/v1/matches/{id}/result - Submit or correct the caller's claim
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "id", "match ID")
	if !ok {
		return
	}

	var req match.SubmitClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claim, err := h.resultService.SubmitClaim(ctx, sess, matchID, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, claim)
}
