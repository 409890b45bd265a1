package auth

import (
	"context"
	"errors"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/reset"
)

const minPasswordLength = 8

// ChangePassword verifies the current password, installs the new hash,
// bumps the user's token version, and revokes every session. Returns how
// many sessions were revoked.
func (e *Engine) ChangePassword(ctx context.Context, userID, current, next string) (int, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !e.hasher.Verify(current, user.PasswordHash) {
		return 0, ErrInvalidCredentials
	}
	if err := checkPasswordPolicy(next); err != nil {
		return 0, err
	}
	if next == current {
		return 0, ErrPasswordReuse
	}

	return e.installPassword(ctx, user, next)
}

// RequestPasswordReset issues a single-use reset token. The return shape
// is identical whether or not the username exists, so the endpoint
// cannot be used to probe accounts; for unknown users the token is empty
// and the caller sends nothing.
func (e *Engine) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}
	if !user.IsActive {
		return "", nil
	}

	tok, err := e.resets.Issue(ctx, user.ID, e.config.Session.ResetTTL)
	if err != nil {
		return "", err
	}
	e.logger.Info().Str("user_id", user.ID).Msg("password reset token issued")
	return tok, nil
}

// ConfirmPasswordReset consumes a reset token and installs the new
// password. Like a password change, it invalidates every outstanding
// token and session.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, resetToken, next string) (int, error) {
	rec, err := e.resets.Consume(ctx, resetToken)
	if err != nil {
		if errors.Is(err, reset.ErrNotFound) {
			return 0, ErrResetInvalid
		}
		return 0, err
	}
	if err := checkPasswordPolicy(next); err != nil {
		return 0, err
	}

	user, err := e.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return 0, err
	}
	return e.installPassword(ctx, user, next)
}

func (e *Engine) installPassword(ctx context.Context, user *User, next string) (int, error) {
	hash, err := e.hasher.Hash(next)
	if err != nil {
		return 0, err
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return 0, err
	}
	if err := e.users.IncrementTokenVersion(ctx, user.ID); err != nil {
		return 0, err
	}

	revoked, err := e.RevokeAllSessions(ctx, user.ID)
	if err != nil {
		// The version bump already invalidated every token; stale session
		// records age out on their own.
		e.logger.Warn().Err(err).
			Str("user_id", user.ID).
			Msg("session sweep failed after password change")
		return 0, nil
	}

	e.logger.Info().
		Str("user_id", user.ID).
		Int("sessions_revoked", revoked).
		Msg("password updated")
	return revoked, nil
}

func checkPasswordPolicy(pass string) error {
	if len(pass) < minPasswordLength {
		return ErrPasswordPolicy
	}
	return nil
}
