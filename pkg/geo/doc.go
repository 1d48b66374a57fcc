// Package geo provides the client-side geospatial helpers: great-circle
// distance, coordinate validation, geohash cell labels, proximity labels and
// an in-memory spatial index over task positions.
package geo
