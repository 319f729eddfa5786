package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/internal/types/notification"
	"pickYourSocksAPI/services"
)

func TestMatchHandler_ChallengeLifecycle(t *testing.T) {
	e := newEnv(t)
	h := NewMatchHandler(e.matches, e.results)

	rec := call(t, http.MethodPost, "/matches/challenge", "/matches/challenge", h.CreateChallenge, &alice,
		map[string]any{"opponent_id": bob.String(), "sport": "Tennis"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[match.MatchRequest](t, rec)
	assert.Equal(t, match.StatusPending, created.Status)
	assert.Equal(t, "tennis", created.Sport)

	path := "/matches/" + created.ID.String()

	rec = call(t, http.MethodPost, "/matches/{id}/accept", path+"/accept", h.Accept, &alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, http.MethodPost, "/matches/{id}/accept", path+"/accept", h.Accept, &bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, match.StatusAccepted, decode[match.MatchRequest](t, rec).Status)

	rec = call(t, http.MethodPost, "/matches/{id}/accept", path+"/accept", h.Accept, &bob, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, u := range []*uuid.UUID{&alice, &bob} {
		rec = call(t, http.MethodPost, "/matches/{id}/check-in", path+"/check-in", h.CheckIn, u,
			map[string]any{"latitude": 48.8566, "longitude": 2.3522})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	outcome := decode[match.CheckInOutcome](t, rec)
	assert.True(t, outcome.Verified)
	require.NotNil(t, outcome.DistanceMeters)
	assert.Zero(t, *outcome.DistanceMeters)

	rec = call(t, http.MethodPost, "/matches/{id}/result", path+"/result", h.SubmitResult, &alice,
		map[string]any{"result_type": "win", "score": "6-4 6-3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, http.MethodPost, "/matches/{id}/result", path+"/result", h.SubmitResult, &bob,
		map[string]any{"result_type": "loss", "score": "6-4 6-3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claim := decode[services.ClaimResponse](t, rec)
	require.NotNil(t, claim.Result)
	assert.True(t, claim.Result.IsVerified)
	require.NotNil(t, claim.Result.WinnerID)
	assert.Equal(t, alice, *claim.Result.WinnerID)

	rec = call(t, http.MethodGet, "/matches/{id}/result", path+"/result", h.GetResult, &bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[match.MatchResult](t, rec).IsVerified)

	rec = call(t, http.MethodDelete, "/matches/{id}", path, h.Cancel, &alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	unread, err := e.notifications.UnreadCount(context.Background(), as(alice))
	require.NoError(t, err)
	assert.Positive(t, unread)
}

func TestMatchHandler_Errors(t *testing.T) {
	e := newEnv(t)
	h := NewMatchHandler(e.matches, e.results)

	rec := call(t, http.MethodGet, "/matches", "/matches", h.ListMine, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, http.MethodGet, "/matches/{id}", "/matches/not-a-uuid", h.Get, &alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid match ID", errorMessage(t, rec))

	rec = call(t, http.MethodGet, "/matches/{id}", "/matches/"+uuid.NewString(), h.Get, &alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, http.MethodPost, "/matches/challenge", "/matches/challenge", h.CreateChallenge, &alice,
		map[string]any{"opponent_id": alice.String(), "sport": "tennis"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchHandler_CheckInErrors(t *testing.T) {
	e := newEnv(t)
	h := NewMatchHandler(e.matches, e.results)
	ctx := context.Background()

	m, err := e.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"})
	require.NoError(t, err)
	_, err = e.matches.Accept(ctx, as(bob), m.ID)
	require.NoError(t, err)
	path := "/matches/" + m.ID.String() + "/check-in"

	rec := call(t, http.MethodPost, "/matches/{id}/check-in", path, h.CheckIn, &alice, map[string]any{"location_error": "timeout"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "took too long")

	rec = call(t, http.MethodPost, "/matches/{id}/check-in", path, h.CheckIn, &alice, map[string]any{"latitude": 91, "longitude": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stale, err := e.store.CreateMatch(ctx, &match.MatchRequest{CreatorID: alice, Sport: "tennis", Status: match.StatusAccepted})
	require.NoError(t, err)
	rec = call(t, http.MethodPost, "/matches/{id}/check-in", "/matches/"+stale.ID.String()+"/check-in", h.CheckIn, &alice,
		map[string]any{"latitude": 48.85, "longitude": 2.35})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, services.ErrStaleMatch.Error(), errorMessage(t, rec))
}

func TestMatchHandler_BroadcastAndQR(t *testing.T) {
	e := newEnv(t)
	h := NewMatchHandler(e.matches, e.results)

	rec := call(t, http.MethodPost, "/matches/broadcast", "/matches/broadcast", h.CreateBroadcast, &alice, map[string]any{"sport": "padel"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[match.MatchRequest](t, rec)

	rec = call(t, http.MethodGet, "/matches/open", "/matches/open?sport=padel", h.ListOpen, &bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open := decode[[]match.OpenBroadcast](t, rec)
	require.Len(t, open, 1)
	assert.Equal(t, "Alice", open[0].CreatorName)

	rec = call(t, http.MethodGet, "/matches/{id}/qr", "/matches/"+created.ID.String()+"/qr", h.InviteQR, &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	qr := decode[services.InviteQRResponse](t, rec)
	assert.Equal(t, services.InviteScheme+created.ID.String(), qr.Link)
	assert.NotEmpty(t, qr.QrCodeBase64)

	rec = call(t, http.MethodGet, "/matches", "/matches", h.ListMine, &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]match.MatchWithResult](t, rec), 1)
}

func TestMatchHandler_DeclineNotifiesCreator(t *testing.T) {
	e := newEnv(t)
	h := NewMatchHandler(e.matches, e.results)

	m, err := e.matches.CreateChallenge(context.Background(), as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"})
	require.NoError(t, err)

	rec := call(t, http.MethodPost, "/matches/{id}/decline", "/matches/"+m.ID.String()+"/decline", h.Decline, &bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, match.StatusDeclined, decode[match.MatchRequest](t, rec).Status)

	page, err := e.notifications.List(context.Background(), as(alice), 1, 20, false)
	require.NoError(t, err)
	var types []notification.NotificationType
	for _, n := range page.Notifications {
		types = append(types, n.Type)
	}
	assert.Contains(t, types, notification.TypeChallengeDeclined)
}

type recordingLocator struct {
	ips []string
}

func (l *recordingLocator) Locate(ctx context.Context, ip string) (*match.Coordinate, error) {
	l.ips = append(l.ips, ip)
	return &match.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, nil
}

func TestMatchHandler_CheckInIPFallbackUsesForwardedFor(t *testing.T) {
	e := newEnv(t)
	locator := &recordingLocator{}
	e.matches.SetLocator(locator)
	h := NewMatchHandler(e.matches, e.results)
	ctx := context.Background()

	m, err := e.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"})
	require.NoError(t, err)
	_, err = e.matches.Accept(ctx, as(bob), m.ID)
	require.NoError(t, err)

	r := mux.NewRouter()
	r.HandleFunc("/matches/{id}/check-in", h.CheckIn).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/matches/"+m.ID.String()+"/check-in", strings.NewReader(`{"location_error": "permission_denied"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:5555"
	req = req.WithContext(session.NewContext(req.Context(), as(alice)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[match.CheckInOutcome](t, rec)
	assert.Equal(t, "ip", outcome.LocationSource)
	assert.Equal(t, []string{"203.0.113.7"}, locator.ips)
}
