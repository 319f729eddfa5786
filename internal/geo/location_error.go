package geo

import (
	"errors"
	"fmt"
)

// LocationErrorCode is the reason a device could not produce a position.
type LocationErrorCode string

const (
	PermissionDenied    LocationErrorCode = "permission_denied"
	PositionUnavailable LocationErrorCode = "position_unavailable"
	Timeout             LocationErrorCode = "timeout"
)

var ErrUnknownLocationError = errors.New("unknown location_error code")

type LocationError struct {
	Code LocationErrorCode
}

func (e *LocationError) Error() string {
	return e.Message()
}

// Message is the user-facing text for the failure.
func (e *LocationError) Message() string {
	switch e.Code {
	case PermissionDenied:
		return "Location access was denied. Allow location access for PickYourSocks to check in."
	case PositionUnavailable:
		return "Your position is unavailable right now. Move somewhere with better signal and try again."
	case Timeout:
		return "Getting your location took too long. Please try again."
	default:
		return fmt.Sprintf("location error: %s", e.Code)
	}
}

func ParseLocationError(code string) (*LocationError, error) {
	switch c := LocationErrorCode(code); c {
	case PermissionDenied, PositionUnavailable, Timeout:
		return &LocationError{Code: c}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLocationError, code)
}
