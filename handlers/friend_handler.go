package handlers

import (
	"context"
	"net/http"
	"time"

	"pickYourSocksAPI/internal/types/friendship"
	"pickYourSocksAPI/services"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// GET /api/v1/friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.List(ctx, sess)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

// GET /api/v1/friends/requests - Pending requests sent to the caller
func (h *FriendHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	requests, err := h.friendService.Incoming(ctx, sess)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}

// POST /api/v1/friends
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req friendship.AddFriendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.friendService.Request(ctx, sess, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, f)
}

// POST /api/v1/friends/{id}/accept - {id} is the requester
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	requesterID, ok := pathUUID(w, r, "id", "user ID")
	if !ok {
		return
	}

	f, err := h.friendService.Accept(ctx, sess, requesterID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, f)
}

// DELETE /api/v1/friends/{id} - Decline, withdraw or unfriend
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	otherID, ok := pathUUID(w, r, "id", "user ID")
	if !ok {
		return
	}

	if err := h.friendService.Remove(ctx, sess, otherID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}
