// Package session holds the bearer token used by the API client and reads
// the claims carried inside it.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// ErrMalformedToken is returned when a token cannot be decoded as a JWT.
var ErrMalformedToken = errors.New("malformed access token")

// EnvToken supplies a token for one process without touching the stored
// session.
const EnvToken = "GEOTASK_TOKEN"

// Store is a session that also caches the logged-in user.
type Store interface {
	types.Session
	types.ProfileCache
}

// Compile-time interface checks.
var _ Store = (*Memory)(nil)

// Memory is a process-local session, used when the token comes from
// EnvToken. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  *types.User
}

// NewMemory returns a session seeded with token, which may be empty.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	if token == "" {
		m.user = nil
	}
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}

func (m *Memory) SetUser(u types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &u
	return nil
}

func (m *Memory) User() (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, nil
	}
	u := *m.user
	return &u, nil
}

// Claims is the subset of token claims the client uses.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token has an expiry at or before now.
// Tokens without an exp claim never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// UserID returns the subject as a numeric user ID when it is one.
func (c Claims) UserID() (int64, bool) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseClaims decodes token without verifying its signature. The server is
// the authority on validity; the client only reads subject and expiry.
func ParseClaims(token string) (Claims, error) {
	parser := jwt.NewParser()
	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var c Claims
	switch sub := mc["sub"].(type) {
	case string:
		c.Subject = sub
	case float64:
		c.Subject = strconv.FormatInt(int64(sub), 10)
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// Current reads the token from s and decodes its claims.
// Returns types.ErrNotLoggedIn when s holds no token.
func Current(s types.Session) (string, Claims, error) {
	token, err := s.Token()
	if err != nil {
		return "", Claims{}, err
	}
	if token == "" {
		return "", Claims{}, types.ErrNotLoggedIn
	}
	c, err := ParseClaims(token)
	if err != nil {
		return token, Claims{}, err
	}
	return token, c, nil
}
