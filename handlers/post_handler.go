package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"pickYourSocksAPI/internal/types/post"
	"pickYourSocksAPI/services"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req post.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.postService.Create(ctx, sess, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

// GET /api/v1/posts/feed?sport=&limit=
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.postService.Feed(ctx, sess, r.URL.Query().Get("sport"), limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

// GET /api/v1/profiles/{id}/posts?limit=
func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "id", "user ID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.postService.ListByUser(ctx, sess, userID, limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}
