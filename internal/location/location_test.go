package location

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

var mumbai = types.Coordinate{Latitude: 19.076, Longitude: 72.8777, Accuracy: 25}

// countingSource records how often it is asked and answers with c or err.
type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	c     types.Coordinate
	err   error
}

func (s *countingSource) Position(ctx context.Context, _ Options) (types.Coordinate, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return types.Coordinate{}, ctx.Err()
		}
	}
	return s.c, s.err
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.HighAccuracy)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, 300000*time.Millisecond, opts.MaximumAge)
}

func TestLocator_NotSupported(t *testing.T) {
	l := NewLocator(nil, DefaultOptions(), nil)
	assert.False(t, l.Supported())

	_, err := l.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrNotSupported)

	var nilLocator *Locator
	_, err = nilLocator.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestLocator_Success(t *testing.T) {
	src := &countingSource{c: mumbai}
	l := NewLocator(src, DefaultOptions(), nil)

	got, err := l.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mumbai, got)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestLocator_SourceErrorPassesThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   error
	}{
		{"permission denied", &PositionError{Code: PermissionDenied, Message: "User denied Geolocation"}, ErrPermissionDenied},
		{"unavailable", &PositionError{Code: PositionUnavailable}, ErrPositionUnavailable},
		{"source timeout", &PositionError{Code: Timeout}, ErrTimeout},
		{"plain error", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{err: tt.err}
			_, err := NewLocator(src, DefaultOptions(), nil).CurrentPosition(context.Background())
			require.Error(t, err)
			assert.Same(t, tt.err, err, "error is returned unchanged")
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.EqualValues(t, 1, src.calls.Load(), "no retry")
		})
	}
}

func TestLocator_Timeout(t *testing.T) {
	src := &countingSource{c: mumbai, delay: time.Second}
	l := NewLocator(src, DefaultOptions(), nil)

	_, err := l.CurrentPositionWith(context.Background(), Options{Timeout: 20 * time.Millisecond})
	require.Error(t, err)

	var pe *PositionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Timeout, pe.Code)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLocator_ContextCanceled(t *testing.T) {
	src := &countingSource{c: mumbai, delay: time.Second}
	l := NewLocator(src, Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.CurrentPosition(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocator_ConcurrentCallsAreIndependent(t *testing.T) {
	src := &countingSource{c: mumbai, delay: 10 * time.Millisecond}
	l := NewLocator(src, DefaultOptions(), nil)

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := l.CurrentPosition(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < 5; i++ {
		assert.NoError(t, <-errs)
	}
	assert.EqualValues(t, 5, src.calls.Load())
}

func TestPositionError_Error(t *testing.T) {
	assert.Equal(t, "location: timeout", (&PositionError{Code: Timeout}).Error())
	assert.Equal(t, "location: permission denied: nope",
		(&PositionError{Code: PermissionDenied, Message: "nope"}).Error())
	assert.Equal(t, "code 9", ErrorCode(9).String())
	assert.False(t, errors.Is(&PositionError{Code: Timeout}, ErrPermissionDenied))
}

func TestStaticSource(t *testing.T) {
	got, err := StaticSource{Coordinate: mumbai}.Position(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, mumbai, got)

	_, err = StaticSource{Coordinate: types.Coordinate{Latitude: 120}}.Position(context.Background(), DefaultOptions())
	assert.ErrorIs(t, err, ErrPositionUnavailable)
}
