package tasks

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/internal/sqlite"
	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// Create creates a task. With here set, latitude and longitude come from the
// current position and override any given ones.
func (s *Service) Create(ctx context.Context, nt types.NewTask, here bool) (*types.Task, error) {
	if here {
		c, err := s.locate(ctx)
		if err != nil {
			return nil, &FlowError{Stage: StageLocate, Message: MsgCurrentLocation, Err: err}
		}
		nt.Latitude = &c.Latitude
		nt.Longitude = &c.Longitude
	}
	if nt.Latitude != nil && nt.Longitude != nil {
		if err := geo.Validate(*nt.Latitude, *nt.Longitude); err != nil {
			return nil, err
		}
	}
	return s.api.CreateTask(ctx, nt)
}

// SetStatus changes a task's status. Any user may do this; the server
// decides whether the change is allowed.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*types.Task, error) {
	canonical, err := types.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.api.UpdateTask(ctx, id, types.TaskUpdate{Status: &canonical})
}

// Reassign assigns a task to another user. Only the creator may do this;
// other users get ErrNotCreator without a request being sent.
func (s *Service) Reassign(ctx context.Context, id, assignee int64) (*types.Task, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.api.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != user.ID {
		return nil, fmt.Errorf("task %d: %w", id, types.ErrNotCreator)
	}

	s.log.WithFields(logrus.Fields{"task_id": id, "assignee": assignee}).Debug("reassigning task")
	return s.api.UpdateTask(ctx, id, types.TaskUpdate{AssignedTo: &assignee})
}

// Nearest returns the k located tasks closest to the current position,
// ranked locally through a spatial index.
func (s *Service) Nearest(ctx context.Context, k int, filter types.TaskFilter) (*NearbyResult, error) {
	center, err := s.locate(ctx)
	if err != nil {
		return nil, &FlowError{Stage: StageLocate, Message: MsgLocationUnavailable, Err: err}
	}
	return s.NearestFrom(ctx, center, k, filter)
}

// NearestFrom is Nearest with an explicit center.
func (s *Service) NearestFrom(ctx context.Context, center types.Coordinate, k int, filter types.TaskFilter) (*NearbyResult, error) {
	all, err := s.api.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	byID := make(map[int64]types.Task, len(all))
	ix := geo.NewIndex()
	for _, t := range all {
		if c, ok := t.Coordinate(); ok && ix.Insert(t.ID, c) {
			byID[t.ID] = t
		}
	}

	res := &NearbyResult{Center: center, Items: []NearbyItem{}}
	for _, n := range ix.Nearest(center, k) {
		t := byID[n.ID]
		d := n.DistanceKm
		t.Distance = &d
		res.Items = append(res.Items, NearbyItem{
			Task:       t,
			DistanceKm: &d,
			Geohash:    s.geohash(n.Coordinate),
		})
	}
	return res, nil
}

// Export writes the tasks matching filter to path as JSON Lines, replacing
// the file atomically. It returns the number of tasks written.
func (s *Service) Export(ctx context.Context, filter types.TaskFilter, path string) (int, error) {
	all, err := s.api.ListTasks(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("listing tasks: %w", err)
	}
	if err := sqlite.WriteJSONL(path, all); err != nil {
		return 0, fmt.Errorf("exporting tasks: %w", err)
	}
	s.log.WithFields(logrus.Fields{"path": path, "count": len(all)}).Info("tasks exported")
	return len(all), nil
}
