package services

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickYourSocksAPI/internal/geo"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/internal/types/notification"
)

const (
	baseLat = 48.8566
	baseLng = 2.3522
)

// metersNorth shifts latitude by roughly d meters.
func metersNorth(d float64) float64 {
	return baseLat + d/111320.0
}

type stubLocator struct {
	coord *match.Coordinate
	err   error
	calls int
}

func (l *stubLocator) Locate(ctx context.Context, ip string) (*match.Coordinate, error) {
	l.calls++
	return l.coord, l.err
}

func acceptedMatch(t *testing.T, f *fixture) *match.MatchRequest {
	t.Helper()
	ctx := context.Background()
	m, err := f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "Tennis"})
	require.NoError(t, err)
	m, err = f.matches.Accept(ctx, as(bob), m.ID)
	require.NoError(t, err)
	return m
}

func checkIn(lat, lng float64) *match.CheckInRequest {
	return &match.CheckInRequest{Latitude: ptr(lat), Longitude: ptr(lng)}
}

func TestCreateChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: " Tennis "})
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, m.Status)
	assert.Equal(t, alice, m.CreatorID)
	require.NotNil(t, m.OpponentID)
	assert.Equal(t, bob, *m.OpponentID)
	assert.Equal(t, "tennis", m.Sport)

	got := f.notifier.to(bob, notification.TypeChallengeReceived)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Msg, "Alice")
	assert.Equal(t, TableMatchRequests, f.events.last().Table)
	assert.Equal(t, EventInsert, f.events.last().Event)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, f.events.last().Audience)
}

func TestCreateChallenge_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: alice.String(), Sport: "tennis"})
	assert.ErrorIs(t, err, ErrSelfChallenge)

	_, err = f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: "nope", Sport: "tennis"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: uuid.New().String(), Sport: "tennis"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateChallenge_AllowsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"}

	first, err := f.matches.CreateChallenge(ctx, as(alice), req)
	require.NoError(t, err)
	second, err := f.matches.CreateChallenge(ctx, as(alice), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAccept_Challenge(t *testing.T) {
	f := newFixture(t)
	m := acceptedMatch(t, f)

	assert.Equal(t, match.StatusAccepted, m.Status)
	require.NotNil(t, m.AcceptedBy)
	assert.Equal(t, bob, *m.AcceptedBy)
	assert.Equal(t, bob, *m.OpponentID)
	assert.Len(t, f.notifier.to(alice, notification.TypeChallengeAccepted), 1)
	assert.Contains(t, f.radar.users, alice)
	assert.Contains(t, f.radar.users, bob)
}

func TestAccept_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"})
	require.NoError(t, err)

	_, err = f.matches.Accept(ctx, as(alice), m.ID)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = f.matches.Accept(ctx, as(carol), m.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.matches.Accept(ctx, as(bob), uuid.New())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestAccept_BroadcastRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateBroadcast(ctx, as(alice), &match.CreateBroadcastRequest{Sport: "tennis"})
	require.NoError(t, err)
	assert.Equal(t, match.StatusActive, m.Status)
	assert.Nil(t, m.OpponentID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []uuid.UUID{bob, carol} {
		wg.Add(1)
		go func(i int, user uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.matches.Accept(ctx, as(user), m.ID)
		}(i, user)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrMatchConflict):
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
}

func TestDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"})
	require.NoError(t, err)

	_, err = f.matches.Decline(ctx, as(carol), m.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	declined, err := f.matches.Decline(ctx, as(bob), m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusDeclined, declined.Status)
	assert.Len(t, f.notifier.to(alice, notification.TypeChallengeDeclined), 1)

	_, err = f.matches.Accept(ctx, as(bob), m.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDecline_BroadcastHasNoDeclinePath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateBroadcast(ctx, as(alice), &match.CreateBroadcastRequest{Sport: "tennis"})
	require.NoError(t, err)

	_, err = f.matches.Decline(ctx, as(bob), m.ID)
	assert.Error(t, err)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := acceptedMatch(t, f)

	assert.ErrorIs(t, f.matches.Cancel(ctx, as(carol), m.ID), ErrNotParticipant)

	require.NoError(t, f.matches.Cancel(ctx, as(bob), m.ID))
	assert.Len(t, f.notifier.to(alice, notification.TypeMatchCancelled), 1)
	assert.Empty(t, f.notifier.to(bob, notification.TypeMatchCancelled))
	assert.Equal(t, EventDelete, f.events.last().Event)

	_, err := f.matches.Get(ctx, as(alice), m.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestCancel_LockedByVerifiedResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := acceptedMatch(t, f)

	_, err := f.results.SubmitClaim(ctx, as(alice), m.ID, &match.SubmitClaimRequest{ResultType: match.ResultWin, Score: "6-4"})
	require.NoError(t, err)
	_, err = f.results.SubmitClaim(ctx, as(bob), m.ID, &match.SubmitClaimRequest{ResultType: match.ResultLoss, Score: "6-4"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.matches.Cancel(ctx, as(alice), m.ID), ErrResultLocked)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broadcast, err := f.matches.CreateBroadcast(ctx, as(alice), &match.CreateBroadcastRequest{Sport: "tennis"})
	require.NoError(t, err)
	_, err = f.matches.Get(ctx, as(carol), broadcast.ID)
	assert.NoError(t, err, "open broadcasts are public")

	m := acceptedMatch(t, f)
	_, err = f.matches.Get(ctx, as(carol), m.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	got, err := f.matches.Get(ctx, as(alice), m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Result)
}

func TestListOpenBroadcasts_ExcludesOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.matches.CreateBroadcast(ctx, as(alice), &match.CreateBroadcastRequest{Sport: "tennis"})
	require.NoError(t, err)
	_, err = f.matches.CreateBroadcast(ctx, as(bob), &match.CreateBroadcastRequest{Sport: "padel"})
	require.NoError(t, err)

	mine, err := f.matches.ListOpenBroadcasts(ctx, as(alice), "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, bob, mine[0].CreatorID)
	assert.Equal(t, "Bob", mine[0].CreatorName)

	filtered, err := f.matches.ListOpenBroadcasts(ctx, as(carol), "TENNIS")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, alice, filtered[0].CreatorID)
}

func TestCheckIn_WaitingThenVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := acceptedMatch(t, f)

	first, err := f.matches.CheckIn(ctx, as(alice), m.ID, checkIn(baseLat, baseLng), "")
	require.NoError(t, err)
	assert.True(t, first.Waiting)
	assert.False(t, first.Verified)
	assert.Nil(t, first.DistanceMeters)
	assert.Equal(t, "device", first.LocationSource)

	second, err := f.matches.CheckIn(ctx, as(bob), m.ID, checkIn(metersNorth(150), baseLng), "")
	require.NoError(t, err)
	assert.True(t, second.Verified)
	require.NotNil(t, second.DistanceMeters)
	assert.InDelta(t, 150, *second.DistanceMeters, 2)
	assert.True(t, second.Match.ProximityVerified)

	assert.Len(t, f.notifier.to(alice, notification.TypeProximityVerified), 1)
	assert.Len(t, f.notifier.to(bob, notification.TypeProximityVerified), 1)

	_, err = f.matches.CheckIn(ctx, as(alice), m.ID, checkIn(baseLat, baseLng), "")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestCheckIn_TooFar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := acceptedMatch(t, f)

	_, err := f.matches.CheckIn(ctx, as(alice), m.ID, checkIn(baseLat, baseLng), "")
	require.NoError(t, err)

	out, err := f.matches.CheckIn(ctx, as(bob), m.ID, checkIn(metersNorth(500), baseLng), "")
	require.NoError(t, err)
	assert.False(t, out.Verified)
	assert.False(t, out.Waiting)
	require.NotNil(t, out.DistanceMeters)
	assert.InDelta(t, 500, *out.DistanceMeters, 3)
	assert.Contains(t, out.Message, "200 m")
	assert.False(t, out.Match.ProximityVerified)
	assert.Len(t, f.notifier.to(bob, notification.TypeProximityTooFar), 1)

	// Moving closer and checking in again verifies.
	out, err = f.matches.CheckIn(ctx, as(bob), m.ID, checkIn(metersNorth(50), baseLng), "")
	require.NoError(t, err)
	assert.True(t, out.Verified)
}

func TestCheckIn_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := acceptedMatch(t, f)

	_, err := f.matches.CheckIn(ctx, as(alice), m.ID, &match.CheckInRequest{}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.matches.CheckIn(ctx, as(alice), m.ID, checkIn(91, 0), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.matches.CheckIn(ctx, as(alice), m.ID, &match.CheckInRequest{LocationError: "bogus"}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.matches.CheckIn(ctx, as(carol), m.ID, checkIn(baseLat, baseLng), "")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestCheckIn_NotAcceptedYet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateChallenge(ctx, as(alice), &match.CreateChallengeRequest{OpponentID: bob.String(), Sport: "tennis"})
	require.NoError(t, err)

	_, err = f.matches.CheckIn(ctx, as(alice), m.ID, checkIn(baseLat, baseLng), "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckIn_StaleMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale, err := f.store.CreateMatch(ctx, &match.MatchRequest{CreatorID: alice, Sport: "tennis", Status: match.StatusAccepted})
	require.NoError(t, err)

	_, err = f.matches.CheckIn(ctx, as(alice), stale.ID, checkIn(baseLat, baseLng), "")
	require.ErrorIs(t, err, ErrStaleMatch)
	assert.Equal(t, "This match was created before a data fix and is missing its opponent. Cancel it and create a new one.", err.Error())
}

func TestCheckIn_LocationErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("timeout is not retried", func(t *testing.T) {
		f := newFixture(t)
		loc := &stubLocator{coord: &match.Coordinate{Latitude: baseLat, Longitude: baseLng}}
		f.matches.SetLocator(loc)
		m := acceptedMatch(t, f)

		_, err := f.matches.CheckIn(ctx, as(alice), m.ID, &match.CheckInRequest{LocationError: "timeout"}, "203.0.113.9")
		var locErr *geo.LocationError
		require.ErrorAs(t, err, &locErr)
		assert.Equal(t, geo.Timeout, locErr.Code)
		assert.Zero(t, loc.calls)
	})

	t.Run("permission denied falls back to ip", func(t *testing.T) {
		f := newFixture(t)
		loc := &stubLocator{coord: &match.Coordinate{Latitude: baseLat, Longitude: baseLng}}
		f.matches.SetLocator(loc)
		m := acceptedMatch(t, f)

		out, err := f.matches.CheckIn(ctx, as(alice), m.ID, &match.CheckInRequest{LocationError: "permission_denied"}, "203.0.113.9")
		require.NoError(t, err)
		assert.Equal(t, "ip", out.LocationSource)
		assert.True(t, out.Waiting)
		assert.Equal(t, 1, loc.calls)
	})

	t.Run("failed fallback returns the classified error", func(t *testing.T) {
		f := newFixture(t)
		loc := &stubLocator{err: geo.ErrIPLookupFailed}
		f.matches.SetLocator(loc)
		m := acceptedMatch(t, f)

		_, err := f.matches.CheckIn(ctx, as(alice), m.ID, &match.CheckInRequest{LocationError: "permission_denied"}, "203.0.113.9")
		var locErr *geo.LocationError
		require.ErrorAs(t, err, &locErr)
		assert.Equal(t, geo.PermissionDenied, locErr.Code)
		assert.Equal(t, 1, loc.calls)
	})
}

func TestInviteQR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.matches.CreateBroadcast(ctx, as(alice), &match.CreateBroadcastRequest{Sport: "tennis"})
	require.NoError(t, err)

	qr, err := f.matches.InviteQR(ctx, as(alice), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "pickyoursocks://match/"+m.ID.String(), qr.Link)

	png, err := base64.StdEncoding.DecodeString(qr.QrCodeBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
