package handlers

import (
	"context"
	"net/http"
	"time"

	"pickYourSocksAPI/internal/types/profile"
	"pickYourSocksAPI/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
	radarService   *services.RadarService
}

func NewProfileHandler(profileService *services.ProfileService, radarService *services.RadarService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		radarService:   radarService,
	}
}

// GET /api/v1/profile
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	p, err := h.profileService.Me(ctx, sess)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// PUT /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req profile.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.profileService.Update(ctx, sess, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// PUT /api/v1/profile/public-key
func (h *ProfileHandler) SetPublicKey(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req profile.SetPublicKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profileService.SetPublicKey(ctx, sess, req.PublicKey); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Public key saved"})
}

// GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "user ID")
	if !ok {
		return
	}

	p, err := h.profileService.Get(ctx, sess, id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// GET /api/v1/profiles/{id}/public-key
func (h *ProfileHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := requireSession(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id", "user ID")
	if !ok {
		return
	}

	pk, err := h.profileService.PublicKey(ctx, id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pk)
}

// GET /api/v1/radar?sport=
func (h *ProfileHandler) Radar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	sport := r.URL.Query().Get("sport")
	if sport == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'sport' is required")
		return
	}

	candidates, err := h.radarService.Candidates(ctx, sess, sport)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, candidates)
}
