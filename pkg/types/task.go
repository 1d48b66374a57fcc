package types

import (
	"fmt"
	"strings"
)

// Task statuses. The server is the authority on transitions; the client only
// normalizes the value it sends.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Statuses lists the canonical status values in display order.
var Statuses = []string{StatusPending, StatusInProgress, StatusDone}

// statusAliases maps lower-cased spellings seen on the wire to canonical values.
var statusAliases = map[string]string{
	"pending":     StatusPending,
	"in progress": StatusInProgress,
	"in_progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"done":        StatusDone,
	"completed":   StatusDone,
	"complete":    StatusDone,
}

// ParseStatus returns the canonical status for s. Matching ignores case and
// accepts the snake_case and "completed" spellings. Returns ErrInvalidStatus
// for anything else, including the empty string.
func ParseStatus(s string) (string, error) {
	canonical, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrInvalidStatus, s, strings.Join(Statuses, ", "))
	}
	return canonical, nil
}

// Task is a geotagged work item. Latitude and Longitude are nil when the task
// has no location. Distance is only present in nearby-query responses or when
// filled in locally.
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Status      string   `json:"status,omitempty"`
	CreatedBy   int64    `json:"created_by,omitempty"`
	AssignedTo  *int64   `json:"assigned_to,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	Creator     *User    `json:"creator,omitempty"`
	Assignee    *User    `json:"assignee,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
}

// HasLocation reports whether both coordinates are set and not both zero.
// Tasks at exactly (0, 0) are treated as unlocated, matching how the API
// stores missing coordinates.
func (t *Task) HasLocation() bool {
	if t.Latitude == nil || t.Longitude == nil {
		return false
	}
	return *t.Latitude != 0 || *t.Longitude != 0
}

// Coordinate returns the task position. The second value is false when the
// task has no location.
func (t *Task) Coordinate() (Coordinate, bool) {
	if !t.HasLocation() {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *t.Latitude, Longitude: *t.Longitude}, true
}

// IsAssignedTo reports whether the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID int64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// NewTask is the payload for creating a task. Empty fields are not sent.
type NewTask struct {
	Title       string
	Description string
	Address     string
	Latitude    *float64
	Longitude   *float64
	AssignedTo  *int64
	ImagePath   string // local file to upload; optional
}

// TaskUpdate is the payload for updating a task. Nil fields are left untouched
// on the server.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	AssignedTo  *int64  `json:"assigned_to,omitempty"`
}

// TaskFilter narrows a task listing. Zero values are omitted from the query.
type TaskFilter struct {
	Status       string
	CreatedByMe  bool
	AssignedToMe bool
}

// DefaultRadiusKm is the nearby-query radius used when none is given.
const DefaultRadiusKm = 10.0

// NearbyQuery is the body of a nearby-tasks request. Status is omitted from
// the JSON body when empty.
type NearbyQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	Status    string  `json:"status,omitempty"`
}

// Normalize applies the default radius and canonicalizes the status filter.
// Returns ErrInvalidRadius for a negative radius and ErrInvalidStatus for an
// unknown status.
func (q NearbyQuery) Normalize() (NearbyQuery, error) {
	if q.Radius < 0 {
		return q, ErrInvalidRadius
	}
	if q.Radius == 0 {
		q.Radius = DefaultRadiusKm
	}
	if q.Status != "" {
		s, err := ParseStatus(q.Status)
		if err != nil {
			return q, err
		}
		q.Status = s
	}
	return q, nil
}
