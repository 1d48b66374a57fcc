package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// memCache is an in-memory FixCache.
type memCache struct {
	fixes   map[string]types.Fix
	readErr error
	saved   int
}

func newMemCache() *memCache { return &memCache{fixes: map[string]types.Fix{}} }

func (m *memCache) Latest(source string) (types.Fix, error) {
	if m.readErr != nil {
		return types.Fix{}, m.readErr
	}
	f, ok := m.fixes[source]
	if !ok {
		return types.Fix{}, types.ErrNotFound
	}
	return f, nil
}

func (m *memCache) Save(f types.Fix) (string, error) {
	m.saved++
	f.FixID = "fix"
	m.fixes[f.Source] = f
	return f.FixID, nil
}

func TestCachedSource(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cached := types.Coordinate{Latitude: 1, Longitude: 2, Accuracy: 5000}

	tests := []struct {
		name       string
		cachedAge  time.Duration
		haveCached bool
		readErr    error
		maxAge     time.Duration
		wantInner  int32
		want       types.Coordinate
	}{
		{"empty cache", 0, false, nil, 5 * time.Minute, 1, mumbai},
		{"fresh fix reused", time.Minute, true, nil, 5 * time.Minute, 0, cached},
		{"stale fix refreshed", 10 * time.Minute, true, nil, 5 * time.Minute, 1, mumbai},
		{"zero maximum age skips cache", 0, true, nil, 0, 1, mumbai},
		{"cache read error falls through", 0, false, errors.New("disk"), 5 * time.Minute, 1, mumbai},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMemCache()
			cache.readErr = tt.readErr
			if tt.haveCached {
				cache.fixes["ip"] = types.Fix{Coordinate: cached, Source: "ip", AcquiredAt: now.Add(-tt.cachedAge)}
			}
			inner := &countingSource{c: mumbai}
			src := NewCachedSource("ip", inner, cache, nil)
			src.now = func() time.Time { return now }

			got, err := src.Position(context.Background(), Options{MaximumAge: tt.maxAge})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantInner, inner.calls.Load())
			if tt.wantInner > 0 {
				assert.Equal(t, 1, cache.saved, "fresh fixes are stored")
			}
		})
	}
}

func TestCachedSource_InnerErrorNotCached(t *testing.T) {
	cache := newMemCache()
	inner := &countingSource{err: &PositionError{Code: PermissionDenied}}
	_, err := NewCachedSource("ip", inner, cache, nil).Position(context.Background(), DefaultOptions())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, cache.saved)
}
