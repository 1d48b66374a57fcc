package geo

// Proximity labels, closest first.
const (
	LabelVeryClose  = "very close"
	LabelNearby     = "nearby"
	LabelWithinArea = "within area"
	LabelFar        = "far (within range)"
)

// Progress maps a distance inside a radius to 0..100, where 100 is at the
// center and 0 is at or beyond the radius.
func Progress(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 || distanceKm >= radiusKm {
		return 0
	}
	p := (1 - distanceKm/radiusKm) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Label returns a coarse proximity label for a distance inside radiusKm, or
// "" when the distance is outside it.
func Label(distanceKm, radiusKm float64) string {
	switch p := Progress(distanceKm, radiusKm); {
	case p >= 75:
		return LabelVeryClose
	case p >= 50:
		return LabelNearby
	case p >= 25:
		return LabelWithinArea
	case p > 0:
		return LabelFar
	default:
		return ""
	}
}
