// Package geo implements the proximity rule used by match check-in.
package geo

import (
	"errors"
	"math"

	"pickYourSocksAPI/internal/types/match"
)

const (
	EarthRadiusMeters   = 6371000.0
	DefaultRadiusMeters = 200.0
)

var ErrInvalidCoordinate = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b match.Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func Validate(c match.Coordinate) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		c.Latitude < -90 || c.Latitude > 90 ||
		c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

type Decision struct {
	// Waiting is set while either party has not reported a position yet.
	Waiting        bool
	Verified       bool
	DistanceMeters int
}

// Evaluate applies the proximity rule: verified only when strictly inside radius.
func Evaluate(creator, acceptor *match.Coordinate, radius float64) Decision {
	if creator == nil || acceptor == nil {
		return Decision{Waiting: true}
	}
	d := Distance(*creator, *acceptor)
	return Decision{
		Verified:       d < radius,
		DistanceMeters: int(math.Round(d)),
	}
}
