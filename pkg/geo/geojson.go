package geo

import "github.com/mesh-intelligence/geotask/pkg/types"

// GeoJSON object types used here.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"
	TypePoint             = "Point"
)

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type" yaml:"type"`
	BBox     []float64 `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	Features []Feature `json:"features" yaml:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type" yaml:"type"`
	ID         any            `json:"id,omitempty" yaml:"id,omitempty"`
	Geometry   Geometry       `json:"geometry" yaml:"geometry"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// Geometry is a GeoJSON geometry. Only points are produced.
type Geometry struct {
	Type        string    `json:"type" yaml:"type"`
	Coordinates []float64 `json:"coordinates" yaml:"coordinates"` // [Lon, Lat]
}

// PointGeometry returns a Point for c. GeoJSON orders positions lon, lat.
func PointGeometry(c types.Coordinate) Geometry {
	return Geometry{Type: TypePoint, Coordinates: []float64{c.Longitude, c.Latitude}}
}

// NewFeatureCollection returns an empty collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: TypeFeatureCollection, Features: []Feature{}}
}

// AddPoint appends a point feature and widens the bounding box.
func (fc *FeatureCollection) AddPoint(id any, c types.Coordinate, props map[string]any) {
	if props == nil {
		props = map[string]any{}
	}
	fc.Features = append(fc.Features, Feature{
		Type:       TypeFeature,
		ID:         id,
		Geometry:   PointGeometry(c),
		Properties: props,
	})

	if len(fc.BBox) != 4 {
		fc.BBox = []float64{c.Longitude, c.Latitude, c.Longitude, c.Latitude}
		return
	}
	fc.BBox[0] = min(fc.BBox[0], c.Longitude)
	fc.BBox[1] = min(fc.BBox[1], c.Latitude)
	fc.BBox[2] = max(fc.BBox[2], c.Longitude)
	fc.BBox[3] = max(fc.BBox[3], c.Latitude)
}
