package geo

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// pointTolerance is the half-size of the box stored for each point.
const pointTolerance = 1e-7

// Neighbor is an index hit with its great-circle distance from the query point.
type Neighbor struct {
	ID         int64
	Coordinate types.Coordinate
	DistanceKm float64
}

// entry adapts an indexed point to rtreego.Spatial. Points are stored as
// (latitude, longitude).
type entry struct {
	id    int64
	coord types.Coordinate
}

func (e *entry) Bounds() rtreego.Rect {
	return rtreego.Point{e.coord.Latitude, e.coord.Longitude}.ToRect(pointTolerance)
}

// Index is an in-memory R-tree over task positions. Candidates are selected
// in degree space, wrapping at the antimeridian, and ranked by Haversine
// distance. Safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// Insert adds a point. Invalid coordinates are ignored and reported as false.
func (ix *Index) Insert(id int64, c types.Coordinate) bool {
	if Validate(c.Latitude, c.Longitude) != nil {
		return false
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Insert(&entry{id: id, coord: c})
	return true
}

// Nearest returns up to k points closest to c, nearest first.
func (ix *Index) Nearest(c types.Coordinate, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	// Degree-space neighbors only bound the answer: the k-th of them on the
	// sphere gives a radius that must contain the true k nearest.
	ix.mu.RLock()
	seed := ix.rank(c, ix.tree.NearestNeighbors(k, rtreego.Point{c.Latitude, c.Longitude}))
	ix.mu.RUnlock()
	if len(seed) < k {
		return seed
	}
	r := seed[len(seed)-1].DistanceKm
	out := ix.Within(c, r+r*1e-9+1e-9)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Within returns every point no farther than radiusKm from c, nearest first.
func (ix *Index) Within(c types.Coordinate, radiusKm float64) []Neighbor {
	if radiusKm <= 0 {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dLat, dLon := capSpan(c.Latitude, radiusKm)
	minLat := math.Max(-90-pointTolerance, c.Latitude-dLat)
	maxLat := math.Min(90+pointTolerance, c.Latitude+dLat)

	var spatials []rtreego.Spatial
	if dLon >= 180 {
		spatials = ix.search(minLat, maxLat, -180-pointTolerance, 180+pointTolerance)
	} else {
		lo, hi := c.Longitude-dLon, c.Longitude+dLon
		spatials = ix.search(minLat, maxLat, lo, hi)
		// Parts of the cap past the antimeridian.
		if lo < -180 {
			spatials = append(spatials, ix.search(minLat, maxLat, lo+360, 180+pointTolerance)...)
		}
		if hi > 180 {
			spatials = append(spatials, ix.search(minLat, maxLat, -180-pointTolerance, hi-360)...)
		}
	}

	hits := ix.rank(c, spatials)
	out := hits[:0]
	for _, h := range hits {
		if h.DistanceKm <= radiusKm {
			out = append(out, h)
		}
	}
	return out
}

// capSpan returns the latitude and longitude half-widths in degrees of the
// box enclosing the spherical cap of radiusKm around latitude lat. The
// longitude half-width is 180 when the cap reaches a pole.
func capSpan(lat, radiusKm float64) (dLat, dLon float64) {
	delta := radiusKm / EarthRadiusKm
	dLat = degrees(delta)
	if delta >= math.Pi/2-math.Abs(radians(lat)) {
		return dLat, 180
	}
	return dLat, math.Min(180, degrees(math.Asin(math.Sin(delta)/math.Cos(radians(lat)))))
}

func (ix *Index) search(minLat, maxLat, minLon, maxLon float64) []rtreego.Spatial {
	bb, err := rtreego.NewRectFromPoints(
		rtreego.Point{minLat, minLon},
		rtreego.Point{maxLat, maxLon},
	)
	if err != nil {
		return nil
	}
	return ix.tree.SearchIntersect(bb)
}

func (ix *Index) rank(c types.Coordinate, spatials []rtreego.Spatial) []Neighbor {
	seen := make(map[*entry]bool, len(spatials))
	out := make([]Neighbor, 0, len(spatials))
	for _, s := range spatials {
		e, ok := s.(*entry)
		if !ok || e == nil || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, Neighbor{
			ID:         e.id,
			Coordinate: e.coord,
			DistanceKm: CalculateDistance(c.Latitude, c.Longitude, e.coord.Latitude, e.coord.Longitude),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
