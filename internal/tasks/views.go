package tasks

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// Dashboard summarizes the task list for the current user.
type Dashboard struct {
	Total        int              `json:"total"`
	Pending      int              `json:"pending"`
	InProgress   int              `json:"in_progress"`
	Done         int              `json:"done"`
	AssignedToMe int              `json:"assigned_to_me"`
	Nearby       *int             `json:"nearby"`
	NearbyCenter types.Coordinate `json:"nearby_center"`
	CenterSource string           `json:"center_source"`
	Recent       []types.Task     `json:"recent"`
}

// Dashboard counts tasks by status, tasks assigned to the current user and
// tasks within the default radius of the current position (or the configured
// dashboard center). Nearby is nil when that query fails.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	all, err := s.api.ListTasks(ctx, types.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Total: len(all)}
	for i := range all {
		switch status, _ := types.ParseStatus(all[i].Status); status {
		case types.StatusPending:
			d.Pending++
		case types.StatusInProgress:
			d.InProgress++
		case types.StatusDone:
			d.Done++
		}
		if all[i].IsAssignedTo(user.ID) {
			d.AssignedToMe++
		}
	}

	d.NearbyCenter, d.CenterSource = s.centerOr(ctx, s.opts.DashboardCenter)
	nearby, err := s.api.NearbyTasks(ctx, types.NearbyQuery{
		Latitude:  d.NearbyCenter.Latitude,
		Longitude: d.NearbyCenter.Longitude,
		Radius:    types.DefaultRadiusKm,
	})
	if err != nil {
		s.log.WithError(err).Warn("dashboard nearby count")
	} else {
		n := len(nearby)
		d.Nearby = &n
	}

	limit := min(s.opts.RecentLimit, len(all))
	d.Recent = all[:limit]
	return d, nil
}

// MapView is the task map: located tasks as GeoJSON and the view center.
type MapView struct {
	Center       types.Coordinate       `json:"center"`
	CenterSource string                 `json:"center_source"`
	Skipped      int                    `json:"skipped"`
	Features     *geo.FeatureCollection `json:"features"`
}

// Map renders tasks matching filter that have a location. The center is the
// current position, or the configured map center when that is unavailable.
func (s *Service) Map(ctx context.Context, filter types.TaskFilter) (*MapView, error) {
	all, err := s.api.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	view := &MapView{Features: geo.NewFeatureCollection()}
	view.Center, view.CenterSource = s.centerOr(ctx, s.opts.MapCenter)

	for i := range all {
		t := &all[i]
		c, ok := t.Coordinate()
		if !ok {
			view.Skipped++
			continue
		}
		props := map[string]any{
			"title":       t.Title,
			"status":      t.Status,
			"geohash":     s.geohash(c),
			"distance_km": geo.CalculateDistance(view.Center.Latitude, view.Center.Longitude, c.Latitude, c.Longitude),
		}
		if t.Address != "" {
			props["address"] = t.Address
		}
		if t.AssignedTo != nil {
			props["assigned_to"] = *t.AssignedTo
		}
		view.Features.AddPoint(t.ID, c, props)
	}
	return view, nil
}

// ProfileView is the current user with the tasks they created and the tasks
// assigned to them.
type ProfileView struct {
	User     types.User   `json:"user"`
	Created  []types.Task `json:"created"`
	Assigned []types.Task `json:"assigned"`
}

// Profile fetches the profile from the API, refreshing the cached one.
func (s *Service) Profile(ctx context.Context) (*ProfileView, error) {
	u, err := s.api.Profile(ctx)
	if err != nil {
		return nil, err
	}
	created, err := s.api.ListTasks(ctx, types.TaskFilter{CreatedByMe: true})
	if err != nil {
		return nil, fmt.Errorf("listing created tasks: %w", err)
	}
	assigned, err := s.api.ListTasks(ctx, types.TaskFilter{AssignedToMe: true})
	if err != nil {
		return nil, fmt.Errorf("listing assigned tasks: %w", err)
	}
	return &ProfileView{User: *u, Created: created, Assigned: assigned}, nil
}
