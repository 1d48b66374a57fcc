package location

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// FixCache persists position fixes per source name.
type FixCache interface {
	Latest(source string) (types.Fix, error)
	Save(fix types.Fix) (string, error)
}

// CachedSource serves a stored fix when it is no older than MaximumAge and
// otherwise asks the inner source, storing what it returns.
type CachedSource struct {
	name  string
	inner Source
	cache FixCache
	now   func() time.Time
	log   *logrus.Entry
}

// NewCachedSource wraps inner. name scopes the cached fixes.
func NewCachedSource(name string, inner Source, cache FixCache, log *logrus.Entry) *CachedSource {
	if log == nil {
		log = logging.Discard().Component("location")
	}
	return &CachedSource{name: name, inner: inner, cache: cache, now: time.Now, log: log}
}

func (s *CachedSource) Position(ctx context.Context, opts Options) (types.Coordinate, error) {
	if opts.MaximumAge > 0 {
		fix, err := s.cache.Latest(s.name)
		switch {
		case err == nil && fix.Age(s.now()) <= opts.MaximumAge:
			s.log.WithFields(logrus.Fields{
				"fix_id": fix.FixID,
				"age":    fix.Age(s.now()).Round(time.Second),
			}).Debug("using cached position")
			return fix.Coordinate, nil
		case err != nil && !errors.Is(err, types.ErrNotFound):
			s.log.WithError(err).Warn("reading position cache")
		}
	}

	c, err := s.inner.Position(ctx, opts)
	if err != nil {
		return types.Coordinate{}, err
	}

	if _, err := s.cache.Save(types.Fix{Coordinate: c, Source: s.name, AcquiredAt: s.now()}); err != nil {
		s.log.WithError(err).Warn("writing position cache")
	}
	return c, nil
}
