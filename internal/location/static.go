package location

import (
	"context"

	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// StaticSource always reports the same coordinate.
type StaticSource struct {
	Coordinate types.Coordinate
}

// Position returns the configured coordinate, or PositionUnavailable when it
// is not a valid WGS84 position.
func (s StaticSource) Position(ctx context.Context, _ Options) (types.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return types.Coordinate{}, err
	}
	if err := geo.Validate(s.Coordinate.Latitude, s.Coordinate.Longitude); err != nil {
		return types.Coordinate{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}
	return s.Coordinate, nil
}
