package types

import (
	"errors"
	"fmt"
)

// Local store backends.
const (
	BackendSQLite = "sqlite"
)

// DefaultFixHistory is how many position fixes the store keeps per source
// when Config.FixHistory is zero.
const DefaultFixHistory = 20

// Store configuration errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data dir must not be empty")
	ErrInvalidHistory = errors.New("fix history must not be negative")
)

// Config selects and parameterizes the local store that holds the session
// token, the cached profile and recent position fixes.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	FixHistory int    `json:"fix_history,omitempty" yaml:"fix_history,omitempty"`
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	switch c.Backend {
	case "":
		return ErrBackendEmpty
	case BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.FixHistory < 0 {
		return ErrInvalidHistory
	}
	return nil
}

// History returns FixHistory, or DefaultFixHistory when it is unset.
func (c Config) History() int {
	if c.FixHistory == 0 {
		return DefaultFixHistory
	}
	return c.FixHistory
}
