package match

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "pickYourSocksAPI/internal/types/match"
)

// ClaimedWinner turns a win/loss report relative to the reporter into a winner identity.
func ClaimedWinner(m *types.MatchRequest, reporter uuid.UUID, rt types.ResultType) (uuid.UUID, error) {
	other, err := Counterpart(m, reporter)
	if err != nil {
		return uuid.Nil, err
	}
	switch rt {
	case types.ResultWin:
		return reporter, nil
	case types.ResultLoss:
		return other, nil
	}
	return uuid.Nil, fmt.Errorf("%w: result_type must be win or loss", ErrInvalidClaim)
}

// CheckClaim validates that reporter may submit a claim on m.
func CheckClaim(m *types.MatchRequest, reporter uuid.UUID, rt types.ResultType, score string) error {
	if IsStale(m) {
		return ErrStaleMatch
	}
	if m.Status != types.StatusAccepted {
		return ErrInvalidTransition
	}
	if RoleOf(m, reporter) == types.RoleNone {
		return ErrNotParticipant
	}
	if rt != types.ResultWin && rt != types.ResultLoss {
		return fmt.Errorf("%w: result_type must be win or loss", ErrInvalidClaim)
	}
	if strings.TrimSpace(score) == "" {
		return fmt.Errorf("%w: score is required", ErrInvalidClaim)
	}
	return nil
}

// ApplyClaim writes the reporter's slot on existing (creating the row when nil)
// and re-derives verification. Only the reporter's slot changes.
func ApplyClaim(existing *types.MatchResult, m *types.MatchRequest, reporter uuid.UUID, rt types.ResultType, score string) (*types.MatchResult, error) {
	if err := CheckClaim(m, reporter, rt, score); err != nil {
		return nil, err
	}
	if existing != nil && existing.IsVerified {
		return nil, ErrResultLocked
	}

	winner, err := ClaimedWinner(m, reporter, rt)
	if err != nil {
		return nil, err
	}

	r := existing
	if r == nil {
		r = &types.MatchResult{
			MatchID:   m.ID,
			Sport:     m.Sport,
			Player1ID: m.CreatorID,
			Player2ID: *m.AcceptedBy,
		}
	}

	claim := &types.Claim{ClaimedWinner: winner, Score: strings.TrimSpace(score)}
	if RoleOf(m, reporter) == types.RoleCreator {
		r.Player1 = claim
	} else {
		r.Player2 = claim
	}

	Reconcile(r)
	return r, nil
}

// Outcome of a reconciliation pass.
type Outcome string

const (
	OutcomeAwaiting Outcome = "awaiting"
	OutcomeVerified Outcome = "verified"
	OutcomeDisputed Outcome = "disputed"
)

// Reconcile derives IsVerified and WinnerID from the two claim slots.
func Reconcile(r *types.MatchResult) Outcome {
	if r.Player1 == nil || r.Player2 == nil {
		r.IsVerified = false
		r.WinnerID = nil
		return OutcomeAwaiting
	}
	if r.Player1.ClaimedWinner == r.Player2.ClaimedWinner {
		w := r.Player1.ClaimedWinner
		r.IsVerified = true
		r.WinnerID = &w
		return OutcomeVerified
	}
	r.IsVerified = false
	r.WinnerID = nil
	return OutcomeDisputed
}

// OutcomeOf reads the current state without mutating r.
func OutcomeOf(r *types.MatchResult) Outcome {
	switch {
	case r == nil || r.Player1 == nil || r.Player2 == nil:
		return OutcomeAwaiting
	case r.IsVerified:
		return OutcomeVerified
	}
	return OutcomeDisputed
}
