package auth

import "context"

// User is the account record the engine reads from the external user
// store. TokenVersion is the monotonic counter that invalidates every
// outstanding token when it advances.
type User struct {
	ID           string
	Username     string
	Role         string
	OrgID        string
	PasswordHash string
	TokenVersion int64
	IsActive     bool
}

// UserStore is the external credential store. Implementations must return
// ErrUserNotFound for unknown ids and usernames; any other error is
// treated as a backend failure.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	IncrementTokenVersion(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Hasher is the external password-hashing primitive. password.BcryptHasher
// satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Principal is the authenticated identity attached to a validated
// request.
type Principal struct {
	UserID    string
	Username  string
	Role      string
	OrgID     string
	SessionID string
}

// TokenPair is an access/refresh token pair issued together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by Engine.Login. Degraded is set when the
// tokens were issued but the session could not be registered because the
// session store was unavailable; the login itself still succeeded.
type LoginResult struct {
	TokenPair
	User     *User
	Degraded bool
}

// RefreshResult is returned by Engine.Refresh.
type RefreshResult struct {
	TokenPair
	Degraded bool
}
