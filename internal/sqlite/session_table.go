package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Session      = (*SessionTable)(nil)
	_ types.ProfileCache = (*SessionTable)(nil)
)

// SessionTable persists the bearer token and the profile of the logged-in
// user as key/value rows.
type SessionTable struct {
	backend *Backend
}

// Token returns the stored token, or "" when none is stored.
func (st *SessionTable) Token() (string, error) {
	v, err := st.get(keyToken)
	if errors.Is(err, types.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetToken stores token. An empty token is the same as Clear.
func (st *SessionTable) SetToken(token string) error {
	if token == "" {
		return st.Clear()
	}
	return st.put(keyToken, token)
}

// Clear removes the token and the cached profile. Idempotent.
func (st *SessionTable) Clear() error {
	return st.backend.withDB(func(db *sql.DB) error {
		if _, err := db.Exec("DELETE FROM session WHERE key IN (?, ?)", keyToken, keyUser); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		st.backend.log.Debug("session cleared")
		return nil
	})
}

// SetUser caches the profile of the logged-in user.
func (st *SessionTable) SetUser(user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return st.put(keyUser, string(data))
}

// User returns the cached profile, or nil when none is cached.
func (st *SessionTable) User() (*types.User, error) {
	v, err := st.get(keyUser)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u types.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &u, nil
}

func (st *SessionTable) get(key string) (string, error) {
	var value string
	err := st.backend.withDB(func(db *sql.DB) error {
		err := db.QueryRow("SELECT value FROM session WHERE key = ?", key).Scan(&value)
		if err == sql.ErrNoRows {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading session %s: %w", key, err)
		}
		return nil
	})
	return value, err
}

func (st *SessionTable) put(key, value string) error {
	return st.backend.withDB(func(db *sql.DB) error {
		_, err := db.Exec(
			"INSERT INTO session (key, value, updated_at) VALUES (?, ?, ?) "+
				"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
			key, value, time.Now().UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("writing session %s: %w", key, err)
		}
		return nil
	})
}
