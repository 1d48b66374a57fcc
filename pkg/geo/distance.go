package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate validation errors.
var (
	ErrInvalidCoordinate    = errors.New("coordinate is not a finite number")
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// CalculateDistance returns the great-circle distance in kilometers between
// two points given in degrees.
//
// Inputs are passed through unchecked: latitudes outside [-90, 90] or
// longitudes outside [-180, 180] produce whatever the formula yields, and a
// NaN input produces NaN. Use Distance for a validated result.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Validate checks that lat and lon are finite and inside the standard ranges.
func Validate(lat, lon float64) error {
	for _, v := range []float64{lat, lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidCoordinate
		}
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g", ErrCoordinateOutOfRange, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %g", ErrCoordinateOutOfRange, lon)
	}
	return nil
}

// Distance validates both coordinates and returns the distance between them
// in kilometers.
func Distance(a, b types.Coordinate) (float64, error) {
	if err := Validate(a.Latitude, a.Longitude); err != nil {
		return 0, err
	}
	if err := Validate(b.Latitude, b.Longitude); err != nil {
		return 0, err
	}
	return CalculateDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude), nil
}
