package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickYourSocksAPI/internal/types/post"
	"pickYourSocksAPI/services"
)

func TestPostHandler_CreateFeedAndProfilePosts(t *testing.T) {
	e := newEnv(t)
	h := NewPostHandler(services.NewPostService(e.store, e.store, "https://cdn.example.com"))
	media := "https://cdn.example.com/posts/" + bob.String() + "/1700000000000-ace.jpg"

	rec := call(t, http.MethodPost, "/posts", "/posts", h.Create, &bob, map[string]string{
		"caption": "Ace!", "sport": "tennis", "media_type": "image", "media_url": media,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[post.Post](t, rec)
	assert.Equal(t, post.MediaImage, created.MediaType)

	rec = call(t, http.MethodPost, "/posts", "/posts", h.Create, &bob, map[string]string{
		"sport": "tennis", "media_type": "image", "media_url": "https://elsewhere.example.com/x.jpg",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrForeignMedia.Error(), errorMessage(t, rec))

	rec = call(t, http.MethodPost, "/posts", "/posts", h.Create, &bob, map[string]string{"sport": "tennis", "media_type": "audio"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, http.MethodPost, "/posts", "/posts", h.Create, nil, map[string]string{"caption": "x", "sport": "tennis"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, http.MethodGet, "/posts/feed", "/posts/feed?sport=tennis", h.Feed, &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[[]post.FeedPost](t, rec)
	require.Len(t, feed, 1)
	assert.Equal(t, created.ID, feed[0].ID)
	assert.Equal(t, "Bob", feed[0].Author.Name)

	rec = call(t, http.MethodGet, "/posts/feed", "/posts/feed?sport=golf", h.Feed, &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]post.FeedPost](t, rec))

	rec = call(t, http.MethodGet, "/profiles/{id}/posts", "/profiles/"+bob.String()+"/posts", h.ListByUser, &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]post.Post](t, rec), 1)

	rec = call(t, http.MethodGet, "/profiles/{id}/posts", "/profiles/"+uuid.NewString()+"/posts", h.ListByUser, &alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, http.MethodGet, "/profiles/{id}/posts", "/profiles/nope/posts", h.ListByUser, &alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
