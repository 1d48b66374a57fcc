package tasks

// User-facing flow messages.
const (
	MsgLocationUnavailable = "Unable to get location. Please allow location access."
	MsgNearbyFailed        = "Failed to fetch nearby tasks"
	MsgCurrentLocation     = "Failed to get current location"
)

// Stage names the step of a flow that failed.
type Stage string

const (
	StageLocate Stage = "locate"
	StageQuery  Stage = "query"
)

// FlowError is a terminal flow failure. Message is what the user sees; Err
// keeps the cause for errors.Is and errors.As.
type FlowError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
