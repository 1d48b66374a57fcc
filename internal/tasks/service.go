// Package tasks composes the API client, the locator and the geo helpers into
// the user-facing task flows: nearby search, dashboard, map, profile,
// creation at the current position, reassignment and export.
package tasks

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/internal/location"
	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// API is the subset of the REST client the flows use.
type API interface {
	ListTasks(ctx context.Context, filter types.TaskFilter) ([]types.Task, error)
	GetTask(ctx context.Context, id int64) (*types.Task, error)
	CreateTask(ctx context.Context, nt types.NewTask) (*types.Task, error)
	UpdateTask(ctx context.Context, id int64, u types.TaskUpdate) (*types.Task, error)
	NearbyTasks(ctx context.Context, q types.NearbyQuery) ([]types.Task, error)
	Profile(ctx context.Context) (*types.User, error)
}

// Locator yields the current position.
type Locator interface {
	CurrentPosition(ctx context.Context) (types.Coordinate, error)
}

// Default fallback centers.
var (
	DefaultMapCenter       = types.Coordinate{Latitude: 19.076, Longitude: 72.8777}
	DefaultDashboardCenter = types.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
)

// DefaultRecentLimit is how many tasks the dashboard lists.
const DefaultRecentLimit = 5

// Options configures a Service.
type Options struct {
	MapCenter        types.Coordinate
	DashboardCenter  types.Coordinate
	GeohashPrecision uint
	RecentLimit      int
}

// DefaultOptions returns the built-in fallback centers and limits.
func DefaultOptions() Options {
	return Options{
		MapCenter:        DefaultMapCenter,
		DashboardCenter:  DefaultDashboardCenter,
		GeohashPrecision: geo.DefaultGeohashPrecision,
		RecentLimit:      DefaultRecentLimit,
	}
}

// Service runs task flows.
type Service struct {
	api     API
	locator Locator
	profile types.ProfileCache
	opts    Options
	log     *logrus.Entry
}

// NewService creates a Service. locator and profile may be nil: without a
// locator every position lookup fails with location.ErrNotSupported, and
// without a profile cache the current user is fetched from the API.
func NewService(api API, locator Locator, profile types.ProfileCache, opts Options, log *logrus.Entry) *Service {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	if opts.GeohashPrecision == 0 {
		opts.GeohashPrecision = geo.DefaultGeohashPrecision
	}
	if log == nil {
		log = logging.Discard().Component("tasks")
	}
	return &Service{api: api, locator: locator, profile: profile, opts: opts, log: log}
}

func (s *Service) locate(ctx context.Context) (types.Coordinate, error) {
	if s.locator == nil {
		return types.Coordinate{}, location.ErrNotSupported
	}
	return s.locator.CurrentPosition(ctx)
}

// centerOr returns the current position, or fallback when it is unavailable.
// The second value names which one was used.
func (s *Service) centerOr(ctx context.Context, fallback types.Coordinate) (types.Coordinate, string) {
	c, err := s.locate(ctx)
	if err != nil {
		s.log.WithError(err).Debug("using fallback center")
		return fallback, CenterDefault
	}
	return c, CenterCurrent
}

// Center sources.
const (
	CenterCurrent = "current"
	CenterDefault = "default"
)

// CurrentUser returns the cached profile, fetching it from the API when the
// cache is empty or absent.
func (s *Service) CurrentUser(ctx context.Context) (*types.User, error) {
	if s.profile != nil {
		u, err := s.profile.User()
		if err != nil {
			s.log.WithError(err).Warn("reading cached profile")
		} else if u != nil {
			return u, nil
		}
	}
	u, err := s.api.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return u, nil
}

// geohash returns the cell label for c.
func (s *Service) geohash(c types.Coordinate) string {
	return geo.Geohash(c, s.opts.GeohashPrecision)
}
