package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/pkg/geo"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

// IPAccuracyMeters is the accuracy reported for IP lookups (city level).
const IPAccuracyMeters = 5000.0

// DefaultIPEndpoint is the default IP geolocation lookup URL.
const DefaultIPEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon"

// ipResponse is the lookup payload.
type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPSource resolves the position from the public IP address.
type IPSource struct {
	endpoint string
	client   *http.Client
	log      *logrus.Entry
}

// NewIPSource creates an IPSource. Empty endpoint selects DefaultIPEndpoint;
// a nil client uses one with a 10 second timeout.
func NewIPSource(endpoint string, client *http.Client, log *logrus.Entry) *IPSource {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = logging.Discard().Component("location")
	}
	return &IPSource{endpoint: endpoint, client: client, log: log}
}

// Position performs one lookup. HighAccuracy cannot improve an IP fix and is
// ignored.
func (s *IPSource) Position(ctx context.Context, opts Options) (types.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return types.Coordinate{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	s.log.WithFields(logrus.Fields{
		"url":           s.endpoint,
		"high_accuracy": opts.HighAccuracy,
	}).Debug("ip lookup")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return types.Coordinate{}, &PositionError{Code: Timeout, Message: err.Error()}
		}
		if errors.Is(err, context.Canceled) {
			return types.Coordinate{}, err
		}
		return types.Coordinate{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return types.Coordinate{}, &PositionError{
			Code:    PermissionDenied,
			Message: fmt.Sprintf("lookup refused: HTTP %d", resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return types.Coordinate{}, &PositionError{
			Code:    PositionUnavailable,
			Message: fmt.Sprintf("lookup failed: HTTP %d", resp.StatusCode),
		}
	}

	var body ipResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err != nil {
		return types.Coordinate{}, &PositionError{Code: PositionUnavailable, Message: "decode lookup: " + err.Error()}
	}
	if body.Status != "" && body.Status != "success" {
		msg := body.Message
		if msg == "" {
			msg = body.Status
		}
		return types.Coordinate{}, &PositionError{Code: PositionUnavailable, Message: msg}
	}
	if err := geo.Validate(body.Lat, body.Lon); err != nil {
		return types.Coordinate{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}

	return types.Coordinate{
		Latitude:  body.Lat,
		Longitude: body.Lon,
		Accuracy:  IPAccuracyMeters,
	}, nil
}
