// Package location acquires the device's current position from a pluggable
// source. A call is single-shot: it returns one fix or one error and never
// retries.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// Default acquisition options.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaximumAge = 5 * time.Minute
)

// ErrNotSupported is returned when no position source is available.
var ErrNotSupported = errors.New("geolocation is not supported on this platform")

// Options tune a single acquisition.
type Options struct {
	// HighAccuracy asks the source for its best fix.
	HighAccuracy bool
	// Timeout bounds the whole acquisition. Zero means no bound.
	Timeout time.Duration
	// MaximumAge is how old a cached fix may be and still be returned.
	// Zero always asks for a fresh fix.
	MaximumAge time.Duration
}

// DefaultOptions returns high accuracy, a 10 second timeout and a 5 minute
// maximum age.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      DefaultTimeout,
		MaximumAge:   DefaultMaximumAge,
	}
}

// Source produces a position fix. Implementations report failures as
// *PositionError where they can.
type Source interface {
	Position(ctx context.Context, opts Options) (types.Coordinate, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, opts Options) (types.Coordinate, error)

func (f SourceFunc) Position(ctx context.Context, opts Options) (types.Coordinate, error) {
	return f(ctx, opts)
}

// ErrorCode classifies a PositionError.
type ErrorCode int

const (
	PermissionDenied    ErrorCode = 1
	PositionUnavailable ErrorCode = 2
	Timeout             ErrorCode = 3
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// PositionError is a failed acquisition.
type PositionError struct {
	Code    ErrorCode
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return "location: " + e.Code.String()
	}
	return fmt.Sprintf("location: %s: %s", e.Code, e.Message)
}

// Is matches any *PositionError with the same code, so
// errors.Is(err, &PositionError{Code: Timeout}) works without a message.
func (e *PositionError) Is(target error) bool {
	var pe *PositionError
	if !errors.As(target, &pe) {
		return false
	}
	return pe.Code == e.Code
}

// Sentinels for errors.Is checks by code.
var (
	ErrPermissionDenied    = &PositionError{Code: PermissionDenied}
	ErrPositionUnavailable = &PositionError{Code: PositionUnavailable}
	ErrTimeout             = &PositionError{Code: Timeout}
)

// Locator answers current-position requests from one Source.
type Locator struct {
	source Source
	opts   Options
	log    *logrus.Entry
}

// NewLocator creates a Locator. A nil source makes every call fail with
// ErrNotSupported. A nil log discards output.
func NewLocator(source Source, opts Options, log *logrus.Entry) *Locator {
	if log == nil {
		log = logging.Discard().Component("location")
	}
	return &Locator{source: source, opts: opts, log: log}
}

// Supported reports whether the locator has a source.
func (l *Locator) Supported() bool {
	return l != nil && l.source != nil
}

// Options returns the locator's default options.
func (l *Locator) Options() Options {
	return l.opts
}

// CurrentPosition acquires a fix with the locator's default options.
func (l *Locator) CurrentPosition(ctx context.Context) (types.Coordinate, error) {
	if l == nil {
		return types.Coordinate{}, ErrNotSupported
	}
	return l.CurrentPositionWith(ctx, l.opts)
}

// CurrentPositionWith acquires a fix with explicit options. When opts.Timeout
// elapses first it returns a *PositionError with code Timeout. Errors from
// the source are returned unchanged.
func (l *Locator) CurrentPositionWith(ctx context.Context, opts Options) (types.Coordinate, error) {
	if !l.Supported() {
		return types.Coordinate{}, ErrNotSupported
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		c   types.Coordinate
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := l.source.Position(ctx, opts)
		done <- result{c, err}
	}()

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	start := time.Now()
	select {
	case r := <-done:
		if r.err != nil {
			l.log.WithError(r.err).Debug("position request failed")
			return types.Coordinate{}, r.err
		}
		l.log.WithFields(logrus.Fields{
			"latitude":  r.c.Latitude,
			"longitude": r.c.Longitude,
			"accuracy":  r.c.Accuracy,
			"elapsed":   time.Since(start),
		}).Debug("position acquired")
		return r.c, nil
	case <-deadline:
		l.log.WithField("timeout", opts.Timeout).Debug("position request timed out")
		return types.Coordinate{}, &PositionError{
			Code:    Timeout,
			Message: fmt.Sprintf("no position within %s", opts.Timeout),
		}
	case <-ctx.Done():
		return types.Coordinate{}, ctx.Err()
	}
}
