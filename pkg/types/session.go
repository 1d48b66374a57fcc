package types

// Session holds the bearer token used to authenticate API requests. It is
// injected into the request layer; nothing else mutates request headers.
type Session interface {
	// Token returns the stored token, or "" when logged out.
	Token() (string, error)

	// SetToken stores a token, replacing any previous one.
	SetToken(token string) error

	// Clear removes the token and any cached profile. Idempotent.
	Clear() error
}

// ProfileCache is an optional extension of Session that remembers the user
// the token belongs to. Creator-only actions are checked against it.
type ProfileCache interface {
	SetUser(user User) error
	User() (*User, error)
}
