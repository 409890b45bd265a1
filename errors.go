package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token is past its exp claim.
	ErrExpiredToken = errors.New("token expired")
	// ErrRevokedToken is returned when a token's jti is blacklisted.
	ErrRevokedToken = errors.New("token has been revoked")
	// ErrVersionStale is returned when a token's embedded version no longer
	// matches the user's current token version. The token was superseded by
	// a password change or a global invalidation; no blacklist entry exists
	// or is needed.
	ErrVersionStale = errors.New("token superseded by credential change")
	// ErrRefreshReuseDetected is returned when an already-consumed refresh
	// token is presented again. By the time the caller observes this error,
	// every session of the owning user has been revoked.
	ErrRefreshReuseDetected = errors.New("refresh token reuse detected")
	// ErrLoginLocked is returned while the identifier is locked out.
	// The concrete value is a *LockedError carrying the remaining duration.
	ErrLoginLocked = errors.New("too many failed login attempts")
	// ErrInvalidCredentials is returned on a failed credential check. It
	// deliberately does not say which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountDisabled is returned for users whose active flag is off.
	ErrAccountDisabled = errors.New("account is deactivated")
	// ErrUserNotFound must be returned by UserStore lookups for unknown ids.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable is returned when a store round trip failed and
	// the configured policy does not permit proceeding without it.
	ErrStoreUnavailable = errors.New("auth store unavailable")
	// ErrPasswordPolicy is returned when a new password is too short.
	ErrPasswordPolicy = errors.New("password must be at least 8 characters")
	// ErrPasswordReuse is returned when the new password equals the old one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrResetInvalid is returned for unknown, expired, or already-used
	// reset tokens.
	ErrResetInvalid = errors.New("invalid or expired reset token")
	// ErrEngineNotReady is returned when the builder was given an
	// incomplete dependency set.
	ErrEngineNotReady = errors.New("auth engine not initialized")
)

// LockedError is the concrete error behind ErrLoginLocked. Remaining is
// how long the caller should tell the user to wait.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %s", e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrLoginLocked) hold for *LockedError values.
func (e *LockedError) Is(target error) bool {
	return target == ErrLoginLocked
}
