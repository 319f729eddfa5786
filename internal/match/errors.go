package match

import "errors"

var (
	ErrNotParticipant    = errors.New("not a participant of this match")
	ErrNotAllowed        = errors.New("not allowed to perform this action on the match")
	ErrInvalidTransition = errors.New("match is not in a state that allows this action")
	ErrMatchConflict     = errors.New("match has already been taken by another player")
	ErrSelfChallenge     = errors.New("cannot challenge yourself")
	ErrAlreadyVerified   = errors.New("proximity already verified for this match")
	ErrResultLocked      = errors.New("result is verified and can no longer change")
	ErrInvalidClaim      = errors.New("invalid result claim")

	// ErrStaleMatch marks accepted rows written before opponent tracking existed.
	ErrStaleMatch = errors.New("This match was created before a data fix and is missing its opponent. Cancel it and create a new one.")
)
