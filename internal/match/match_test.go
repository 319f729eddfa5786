package match

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "pickYourSocksAPI/internal/types/match"
)

var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	carol = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func challenge() *types.MatchRequest {
	opp := bob
	return &types.MatchRequest{ID: uuid.New(), CreatorID: alice, OpponentID: &opp, Sport: "tennis", Status: types.StatusPending}
}

func broadcast() *types.MatchRequest {
	return &types.MatchRequest{ID: uuid.New(), CreatorID: alice, Sport: "padel", Status: types.StatusActive}
}

func accepted() *types.MatchRequest {
	m := challenge()
	ApplyAccept(m, bob)
	return m
}

func TestCheckAccept(t *testing.T) {
	assert.NoError(t, CheckAccept(challenge(), bob))
	assert.ErrorIs(t, CheckAccept(challenge(), carol), ErrNotParticipant)
	assert.ErrorIs(t, CheckAccept(challenge(), alice), ErrNotAllowed)

	assert.NoError(t, CheckAccept(broadcast(), carol))
	assert.ErrorIs(t, CheckAccept(broadcast(), alice), ErrNotAllowed)

	assert.ErrorIs(t, CheckAccept(accepted(), carol), ErrMatchConflict)
	assert.ErrorIs(t, CheckAccept(accepted(), bob), ErrInvalidTransition)

	declined := challenge()
	declined.Status = types.StatusDeclined
	assert.ErrorIs(t, CheckAccept(declined, bob), ErrInvalidTransition)
}

func TestApplyAccept_SetsAcceptorAndOpponentTogether(t *testing.T) {
	m := broadcast()
	ApplyAccept(m, carol)

	assert.Equal(t, types.StatusAccepted, m.Status)
	require.NotNil(t, m.AcceptedBy)
	require.NotNil(t, m.OpponentID)
	assert.Equal(t, carol, *m.AcceptedBy)
	assert.Equal(t, carol, *m.OpponentID)
	assert.False(t, IsStale(m))
}

func TestCheckDecline(t *testing.T) {
	assert.NoError(t, CheckDecline(challenge(), bob))
	assert.ErrorIs(t, CheckDecline(challenge(), alice), ErrNotAllowed)
	assert.ErrorIs(t, CheckDecline(challenge(), carol), ErrNotParticipant)
	assert.ErrorIs(t, CheckDecline(broadcast(), carol), ErrNotParticipant)
	assert.ErrorIs(t, CheckDecline(accepted(), bob), ErrInvalidTransition)
}

func TestCheckCancel(t *testing.T) {
	assert.NoError(t, CheckCancel(accepted(), alice, false))
	assert.NoError(t, CheckCancel(accepted(), bob, false))
	assert.ErrorIs(t, CheckCancel(accepted(), carol, false), ErrNotParticipant)
	assert.ErrorIs(t, CheckCancel(accepted(), bob, true), ErrResultLocked)

	assert.NoError(t, CheckCancel(challenge(), alice, false))
	assert.ErrorIs(t, CheckCancel(challenge(), bob, false), ErrNotAllowed)
	assert.ErrorIs(t, CheckCancel(broadcast(), carol, false), ErrNotParticipant)
}

func TestCheckCheckIn(t *testing.T) {
	role, err := CheckCheckIn(accepted(), alice)
	require.NoError(t, err)
	assert.Equal(t, types.RoleCreator, role)

	role, err = CheckCheckIn(accepted(), bob)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAcceptor, role)

	_, err = CheckCheckIn(accepted(), carol)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = CheckCheckIn(challenge(), alice)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	verified := accepted()
	verified.ProximityVerified = true
	_, err = CheckCheckIn(verified, bob)
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	stale := accepted()
	stale.OpponentID = nil
	stale.AcceptedBy = nil
	_, err = CheckCheckIn(stale, alice)
	assert.ErrorIs(t, err, ErrStaleMatch)
}

func TestApplyCheckIn_StoresCoordinateByRole(t *testing.T) {
	m := accepted()
	ApplyCheckIn(m, types.RoleAcceptor, types.Coordinate{Latitude: 1, Longitude: 2})
	assert.Nil(t, m.CreatorLocation)
	require.NotNil(t, m.AcceptorLocation)
	assert.Equal(t, 1.0, m.AcceptorLocation.Latitude)

	ApplyCheckIn(m, types.RoleCreator, types.Coordinate{Latitude: 3, Longitude: 4})
	require.NotNil(t, m.CreatorLocation)
	assert.Equal(t, 4.0, m.CreatorLocation.Longitude)
}

func TestAudience(t *testing.T) {
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, Audience(challenge()))
	assert.ElementsMatch(t, []uuid.UUID{alice}, Audience(broadcast()))
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, Audience(accepted()))
}

func TestClaimedWinner(t *testing.T) {
	m := accepted()

	w, err := ClaimedWinner(m, alice, types.ResultWin)
	require.NoError(t, err)
	assert.Equal(t, alice, w)

	w, err = ClaimedWinner(m, bob, types.ResultLoss)
	require.NoError(t, err)
	assert.Equal(t, alice, w)

	_, err = ClaimedWinner(m, carol, types.ResultWin)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestApplyClaim_Agreement(t *testing.T) {
	m := accepted()

	r, err := ApplyClaim(nil, m, alice, types.ResultWin, "21-18")
	require.NoError(t, err)
	assert.Equal(t, alice, r.Player1ID)
	assert.Equal(t, bob, r.Player2ID)
	require.NotNil(t, r.Player1)
	assert.Nil(t, r.Player2)
	assert.False(t, r.IsVerified)

	r, err = ApplyClaim(r, m, bob, types.ResultLoss, "21-18")
	require.NoError(t, err)
	assert.True(t, r.IsVerified)
	require.NotNil(t, r.WinnerID)
	assert.Equal(t, alice, *r.WinnerID)
}

func TestApplyClaim_DisputeIsOrderIndependent(t *testing.T) {
	m := accepted()

	first, err := ApplyClaim(nil, m, alice, types.ResultWin, "6-4 6-4")
	require.NoError(t, err)
	first, err = ApplyClaim(first, m, bob, types.ResultWin, "4-6 4-6")
	require.NoError(t, err)

	second, err := ApplyClaim(nil, m, bob, types.ResultWin, "4-6 4-6")
	require.NoError(t, err)
	second, err = ApplyClaim(second, m, alice, types.ResultWin, "6-4 6-4")
	require.NoError(t, err)

	for _, r := range []*types.MatchResult{first, second} {
		assert.False(t, r.IsVerified)
		assert.Nil(t, r.WinnerID)
		assert.Equal(t, OutcomeDisputed, OutcomeOf(r))
	}
}

func TestApplyClaim_OverwritesOnlyOwnSlot(t *testing.T) {
	m := accepted()

	r, err := ApplyClaim(nil, m, bob, types.ResultWin, "3-1")
	require.NoError(t, err)
	r, err = ApplyClaim(r, m, alice, types.ResultWin, "1-3")
	require.NoError(t, err)

	r, err = ApplyClaim(r, m, alice, types.ResultLoss, "1-3")
	require.NoError(t, err)

	assert.Equal(t, "3-1", r.Player2.Score)
	assert.Equal(t, bob, r.Player2.ClaimedWinner)
	assert.Equal(t, bob, r.Player1.ClaimedWinner)
	assert.True(t, r.IsVerified)
}

func TestApplyClaim_Rejections(t *testing.T) {
	m := accepted()

	_, err := ApplyClaim(nil, m, alice, types.ResultWin, "   ")
	assert.ErrorIs(t, err, ErrInvalidClaim)

	_, err = ApplyClaim(nil, m, alice, "draw", "1-1")
	assert.ErrorIs(t, err, ErrInvalidClaim)

	_, err = ApplyClaim(nil, m, carol, types.ResultWin, "1-0")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = ApplyClaim(nil, challenge(), alice, types.ResultWin, "1-0")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stale := accepted()
	stale.AcceptedBy = nil
	stale.OpponentID = nil
	_, err = ApplyClaim(nil, stale, alice, types.ResultWin, "1-0")
	assert.ErrorIs(t, err, ErrStaleMatch)

	locked := &types.MatchResult{IsVerified: true}
	_, err = ApplyClaim(locked, m, alice, types.ResultWin, "1-0")
	assert.ErrorIs(t, err, ErrResultLocked)
}

func TestReconcile(t *testing.T) {
	r := &types.MatchResult{}
	assert.Equal(t, OutcomeAwaiting, Reconcile(r))

	r.Player1 = &types.Claim{ClaimedWinner: alice, Score: "2-0"}
	assert.Equal(t, OutcomeAwaiting, Reconcile(r))
	assert.False(t, r.IsVerified)

	r.Player2 = &types.Claim{ClaimedWinner: alice, Score: "2-0"}
	assert.Equal(t, OutcomeVerified, Reconcile(r))
	assert.Equal(t, alice, *r.WinnerID)
}
