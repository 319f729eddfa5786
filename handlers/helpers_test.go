package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/storage/memory"
	"pickYourSocksAPI/internal/types/profile"
	"pickYourSocksAPI/services"
)

var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type env struct {
	store         *memory.Store
	notifications *services.NotificationService
	matches       *services.MatchService
	results       *services.ResultService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	store.PutProfile(&profile.Profile{ID: alice, Name: "Alice", Sports: []string{"tennis"}})
	store.PutProfile(&profile.Profile{ID: bob, Name: "Bob", Sports: []string{"tennis"}})

	notifications := services.NewNotificationService(store)
	return &env{
		store:         store,
		notifications: notifications,
		matches:       services.NewMatchService(store, store, store, notifications, nil),
		results:       services.NewResultService(store, store, notifications, nil),
	}
}

// call routes one request through a single mux route so path variables resolve.
// A nil user sends the request unauthenticated.
func call(t *testing.T, method, pattern, path string, h http.HandlerFunc, user *uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(session.NewContext(req.Context(), session.Session{UserID: *user}))
	}

	r := mux.NewRouter()
	r.HandleFunc(pattern, h).Methods(method)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func as(id uuid.UUID) session.Session {
	return session.Session{UserID: id}
}
