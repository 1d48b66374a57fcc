package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

func TestCalculateDistance_IdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{40.7128, -74.0060},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, CalculateDistance(p[0], p[1], p[0], p[1]), "point %v", p)
	}
}

func TestCalculateDistance_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{40.7128, -74.0060, 34.0522, -118.2437},
		{19.076, 72.8777, 28.6139, 77.2090},
		{0, 0, 0, 1},
		{-45, 170, 45, -170},
	}
	for _, p := range pairs {
		ab := CalculateDistance(p[0], p[1], p[2], p[3])
		ba := CalculateDistance(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9, "pair %v", p)
	}
}

func TestCalculateDistance_KnownFixtures(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		want      float64
		tolerance float64
	}{
		{name: "one degree of longitude at the equator", lat1: 0, lon1: 0, lat2: 0, lon2: 1, want: 111.19, tolerance: 0.5},
		{name: "new york to los angeles", lat1: 40.7128, lon1: -74.0060, lat2: 34.0522, lon2: -118.2437, want: 3936, tolerance: 20},
		{name: "pole to pole", lat1: 90, lon1: 0, lat2: -90, lon2: 0, want: math.Pi * EarthRadiusKm, tolerance: 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestCalculateDistance_NaNPassesThrough(t *testing.T) {
	assert.True(t, math.IsNaN(CalculateDistance(math.NaN(), 0, 0, 0)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr error
	}{
		{name: "origin", lat: 0, lon: 0},
		{name: "corners", lat: 90, lon: -180},
		{name: "latitude too large", lat: 90.1, lon: 0, wantErr: ErrCoordinateOutOfRange},
		{name: "longitude too small", lat: 0, lon: -180.5, wantErr: ErrCoordinateOutOfRange},
		{name: "nan", lat: math.NaN(), lon: 0, wantErr: ErrInvalidCoordinate},
		{name: "inf", lat: 0, lon: math.Inf(1), wantErr: ErrInvalidCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.lat, tt.lon)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDistance(t *testing.T) {
	ny := types.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	la := types.Coordinate{Latitude: 34.0522, Longitude: -118.2437}

	d, err := Distance(ny, la)
	require.NoError(t, err)
	assert.InDelta(t, 3936, d, 20)

	_, err = Distance(ny, types.Coordinate{Latitude: 120})
	assert.ErrorIs(t, err, ErrCoordinateOutOfRange)
}
