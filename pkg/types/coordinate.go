package types

import "time"

// Coordinate is a position fix in WGS84 degrees. Accuracy is in meters as
// reported by the source and is zero when unknown.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Fix is a Coordinate together with the time it was acquired. Fixes are what
// the local position cache stores.
type Fix struct {
	FixID      string     `json:"fix_id"`
	Coordinate Coordinate `json:"coordinate"`
	Source     string     `json:"source"`
	AcquiredAt time.Time  `json:"acquired_at"`
}

// Age returns how old the fix is relative to now.
func (f Fix) Age(now time.Time) time.Duration {
	return now.Sub(f.AcquiredAt)
}
