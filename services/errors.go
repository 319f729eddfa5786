package services

import (
	"errors"

	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/storage"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrMatchNotFound       = errors.New("match not found")
	ErrResultNotFound      = errors.New("result not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrNotificationMissing = errors.New("notification not found")
	ErrFriendshipExists    = errors.New("friendship already exists")
	ErrFriendRequestGone   = errors.New("friend request not found")
	ErrPublicKeyMissing    = errors.New("user has not published a public key")
	ErrInvalidPublicKey    = errors.New("public key must be a base64 SPKI RSA key of at least 2048 bits")
	ErrMessageTooLong      = errors.New("message is too long")
	ErrUploadsDisabled     = errors.New("uploads are not configured")
	ErrUploadForbidden     = errors.New("you can only upload your own files")
	ErrUploadFailed        = errors.New("upload failed")
	ErrUploadTimeout       = errors.New("upload timed out")
	ErrForeignMedia        = errors.New("media_url must point at your own uploaded media")
)

// Lifecycle errors surface unchanged from the rules package.
var (
	ErrNotParticipant    = rules.ErrNotParticipant
	ErrNotAllowed        = rules.ErrNotAllowed
	ErrInvalidTransition = rules.ErrInvalidTransition
	ErrMatchConflict     = rules.ErrMatchConflict
	ErrSelfChallenge     = rules.ErrSelfChallenge
	ErrAlreadyVerified   = rules.ErrAlreadyVerified
	ErrResultLocked      = rules.ErrResultLocked
	ErrInvalidClaim      = rules.ErrInvalidClaim
	ErrStaleMatch        = rules.ErrStaleMatch
)

// notFound swaps the store's generic miss for the caller-facing sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return sentinel
	}
	return err
}
