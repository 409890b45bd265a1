package auth

import (
	"context"
	"errors"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/throttle"
)

// Login authenticates a username/password pair, issues a token pair, and
// registers a session. The lockout check runs before any credential work
// so a locked identifier costs no bcrypt time and leaks nothing about
// whether the password was right.
func (e *Engine) Login(ctx context.Context, username, pass string) (*LoginResult, error) {
	identifier := throttleIdentifier(ctx, username)

	locked, err := e.throttle.IsLocked(ctx, identifier)
	if err != nil {
		// Throttle store failures fail soft: a broken counter must not
		// take logins down with it.
		e.metrics.Inc(MetricStoreDegraded)
		e.logger.Warn().Err(err).Msg("lockout check unavailable, proceeding")
	}
	if locked {
		remaining, _ := e.throttle.LockRemaining(ctx, identifier)
		e.metrics.Inc(MetricLoginLocked)
		return nil, &LockedError{Remaining: remaining}
	}

	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, e.failLogin(ctx, identifier, username)
		}
		return nil, err
	}

	if !e.hasher.Verify(pass, user.PasswordHash) {
		return nil, e.failLogin(ctx, identifier, username)
	}

	if !user.IsActive {
		// A correct password against a disabled account is not a
		// throttling signal.
		return nil, ErrAccountDisabled
	}

	if _, err := e.throttle.RecordAttempt(ctx, identifier, true); err != nil {
		e.metrics.Inc(MetricStoreDegraded)
		e.logger.Warn().Err(err).Msg("failed to clear login attempt counter")
	}

	pair, accessClaims, _, err := e.issuePair(user)
	if err != nil {
		return nil, err
	}

	degraded := e.registerSession(ctx, user, accessClaims)

	e.metrics.Inc(MetricLoginSuccess)
	e.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", accessClaims.ID).
		Bool("degraded", degraded).
		Msg("login succeeded")

	return &LoginResult{TokenPair: pair, User: user, Degraded: degraded}, nil
}

// IsLoginLocked reports whether the username is currently locked out for
// the caller's address.
func (e *Engine) IsLoginLocked(ctx context.Context, username string) (bool, error) {
	return e.throttle.IsLocked(ctx, throttleIdentifier(ctx, username))
}

func (e *Engine) failLogin(ctx context.Context, identifier, username string) error {
	count, err := e.throttle.RecordAttempt(ctx, identifier, false)
	if err != nil {
		e.metrics.Inc(MetricStoreDegraded)
		e.logger.Warn().Err(err).Msg("failed to record login attempt")
	}
	e.metrics.Inc(MetricLoginFailure)
	e.logger.Info().
		Str("username", username).
		Int("failures", count).
		Msg("login attempt rejected")
	return ErrInvalidCredentials
}

func throttleIdentifier(ctx context.Context, username string) string {
	return throttle.Identifier(username, clientIPFromContext(ctx))
}
