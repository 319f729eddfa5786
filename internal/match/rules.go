// Package match holds the lifecycle and reconciliation rules for match requests.
// Stores call these under their own guard so memory and postgres agree on outcomes.
package match

import (
	"github.com/google/uuid"

	types "pickYourSocksAPI/internal/types/match"
)

// IsStale reports an accepted row lacking the acceptor or opponent.
func IsStale(m *types.MatchRequest) bool {
	return m.Status == types.StatusAccepted && (m.AcceptedBy == nil || m.OpponentID == nil)
}

// RoleOf returns the caller's side of the match. Before acceptance a named
// opponent has no role yet.
func RoleOf(m *types.MatchRequest, userID uuid.UUID) types.Role {
	if userID == m.CreatorID {
		return types.RoleCreator
	}
	if m.Status != types.StatusAccepted {
		return types.RoleNone
	}
	if m.AcceptedBy != nil && *m.AcceptedBy == userID {
		return types.RoleAcceptor
	}
	if m.AcceptedBy == nil && m.OpponentID != nil && *m.OpponentID == userID {
		return types.RoleAcceptor
	}
	return types.RoleNone
}

// IsInvolved covers named opponents of pending challenges as well as roles.
func IsInvolved(m *types.MatchRequest, userID uuid.UUID) bool {
	if RoleOf(m, userID) != types.RoleNone {
		return true
	}
	return m.OpponentID != nil && *m.OpponentID == userID
}

// Counterpart returns the other participant of an accepted match.
func Counterpart(m *types.MatchRequest, userID uuid.UUID) (uuid.UUID, error) {
	if IsStale(m) {
		return uuid.Nil, ErrStaleMatch
	}
	switch RoleOf(m, userID) {
	case types.RoleCreator:
		if m.AcceptedBy == nil {
			return uuid.Nil, ErrInvalidTransition
		}
		return *m.AcceptedBy, nil
	case types.RoleAcceptor:
		return m.CreatorID, nil
	}
	return uuid.Nil, ErrNotParticipant
}

// Audience is every user that should hear about changes to m.
func Audience(m *types.MatchRequest) []uuid.UUID {
	out := []uuid.UUID{m.CreatorID}
	if m.OpponentID != nil && *m.OpponentID != m.CreatorID {
		out = append(out, *m.OpponentID)
	}
	if m.AcceptedBy != nil && *m.AcceptedBy != m.CreatorID && (m.OpponentID == nil || *m.AcceptedBy != *m.OpponentID) {
		out = append(out, *m.AcceptedBy)
	}
	return out
}

func CheckAccept(m *types.MatchRequest, userID uuid.UUID) error {
	if m.CreatorID == userID {
		return ErrNotAllowed
	}
	switch m.Status {
	case types.StatusPending, types.StatusActive:
		if m.OpponentID != nil && *m.OpponentID != userID {
			return ErrNotParticipant
		}
		return nil
	case types.StatusAccepted:
		if m.AcceptedBy != nil && *m.AcceptedBy == userID {
			return ErrInvalidTransition
		}
		return ErrMatchConflict
	}
	return ErrInvalidTransition
}

// ApplyAccept sets acceptor and opponent in one step.
func ApplyAccept(m *types.MatchRequest, userID uuid.UUID) {
	id := userID
	m.Status = types.StatusAccepted
	m.AcceptedBy = &id
	m.OpponentID = &id
}

// CheckDecline only admits the named receiver of a pending challenge.
func CheckDecline(m *types.MatchRequest, userID uuid.UUID) error {
	if m.OpponentID == nil || *m.OpponentID != userID {
		if m.CreatorID == userID {
			return ErrNotAllowed
		}
		return ErrNotParticipant
	}
	if m.Status != types.StatusPending {
		return ErrInvalidTransition
	}
	return nil
}

// CheckCancel allows participants to delete an accepted match that has no
// verified result, and the creator to withdraw a request nobody took.
func CheckCancel(m *types.MatchRequest, userID uuid.UUID, resultVerified bool) error {
	switch m.Status {
	case types.StatusAccepted:
		if RoleOf(m, userID) == types.RoleNone {
			return ErrNotParticipant
		}
		if resultVerified {
			return ErrResultLocked
		}
		return nil
	default:
		if m.CreatorID != userID {
			if m.OpponentID != nil && *m.OpponentID == userID {
				return ErrNotAllowed
			}
			return ErrNotParticipant
		}
		return nil
	}
}

// CheckCheckIn returns the caller's role for storing the coordinate.
func CheckCheckIn(m *types.MatchRequest, userID uuid.UUID) (types.Role, error) {
	if IsStale(m) {
		return types.RoleNone, ErrStaleMatch
	}
	role := RoleOf(m, userID)
	if role == types.RoleNone {
		return role, ErrNotParticipant
	}
	if m.Status != types.StatusAccepted {
		return role, ErrInvalidTransition
	}
	if m.ProximityVerified {
		return role, ErrAlreadyVerified
	}
	return role, nil
}

func ApplyCheckIn(m *types.MatchRequest, role types.Role, c types.Coordinate) {
	point := c
	if role == types.RoleCreator {
		m.CreatorLocation = &point
	} else {
		m.AcceptorLocation = &point
	}
}
