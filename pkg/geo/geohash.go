package geo

import (
	"github.com/mmcloughlin/geohash"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// DefaultGeohashPrecision gives cells of roughly 150 m x 150 m.
const DefaultGeohashPrecision uint = 7

// Geohash encodes c with the given number of characters.
func Geohash(c types.Coordinate, precision uint) string {
	if precision == 0 {
		precision = DefaultGeohashPrecision
	}
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, precision)
}

// CellCenter decodes a geohash to the center of its cell.
func CellCenter(hash string) types.Coordinate {
	lat, lon := geohash.Decode(hash)
	return types.Coordinate{Latitude: lat, Longitude: lon}
}

// Neighbors returns the eight cells surrounding hash.
func Neighbors(hash string) []string {
	return geohash.Neighbors(hash)
}
