package tasks

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// NearbyItem is a task annotated with its distance from the query center.
type NearbyItem struct {
	Task       types.Task `json:"task"`
	DistanceKm *float64   `json:"distance_km,omitempty"`
	Label      string     `json:"label,omitempty"`
	Progress   float64    `json:"progress"`
	Geohash    string     `json:"geohash,omitempty"`
}

// NearbyResult is the outcome of a nearby search.
type NearbyResult struct {
	Center   types.Coordinate `json:"center"`
	RadiusKm float64          `json:"radius_km"`
	Status   string           `json:"status,omitempty"`
	Items    []NearbyItem     `json:"items"`
}

// Nearby locates the user and lists tasks within radiusKm. A location
// failure and a query failure each end the flow with a *FlowError carrying
// the user message. Invalid radius or status is returned as is.
func (s *Service) Nearby(ctx context.Context, radiusKm float64, status string) (*NearbyResult, error) {
	q, err := types.NearbyQuery{Radius: radiusKm, Status: status}.Normalize()
	if err != nil {
		return nil, err
	}

	center, err := s.locate(ctx)
	if err != nil {
		return nil, &FlowError{Stage: StageLocate, Message: MsgLocationUnavailable, Err: err}
	}
	return s.NearbyFrom(ctx, center, q.Radius, q.Status)
}

// NearbyFrom lists tasks within radiusKm of an explicit center.
func (s *Service) NearbyFrom(ctx context.Context, center types.Coordinate, radiusKm float64, status string) (*NearbyResult, error) {
	q, err := types.NearbyQuery{
		Latitude:  center.Latitude,
		Longitude: center.Longitude,
		Radius:    radiusKm,
		Status:    status,
	}.Normalize()
	if err != nil {
		return nil, err
	}

	found, err := s.api.NearbyTasks(ctx, q)
	if err != nil {
		return nil, &FlowError{Stage: StageQuery, Message: MsgNearbyFailed, Err: err}
	}

	res := &NearbyResult{Center: center, RadiusKm: q.Radius, Status: q.Status, Items: make([]NearbyItem, 0, len(found))}
	filled := 0
	for _, t := range found {
		item := NearbyItem{Task: t}
		if t.Distance == nil {
			if c, ok := t.Coordinate(); ok {
				d := geo.CalculateDistance(center.Latitude, center.Longitude, c.Latitude, c.Longitude)
				item.Task.Distance = &d
				filled++
			}
		}
		if item.Task.Distance != nil {
			d := *item.Task.Distance
			item.DistanceKm = &d
			item.Label = geo.Label(d, q.Radius)
			item.Progress = geo.Progress(d, q.Radius)
		}
		if c, ok := item.Task.Coordinate(); ok {
			item.Geohash = s.geohash(c)
		}
		res.Items = append(res.Items, item)
	}

	s.log.WithFields(logrus.Fields{
		"count":           len(res.Items),
		"radius_km":       q.Radius,
		"local_distances": filled,
	}).Debug("nearby tasks")
	return res, nil
}
