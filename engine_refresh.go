package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/refresh"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/token"
)

// Refresh rotates a refresh token: the presented token is consumed
// atomically, and a fresh access/refresh pair is issued. Presenting an
// already-consumed token is treated as theft — every session of the
// owning user is revoked before the error is returned.
func (e *Engine) Refresh(ctx context.Context, raw string) (*RefreshResult, error) {
	claims, err := e.codec.Decode(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != token.TypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}

	// Consume first so the jti burns regardless of what the user lookup
	// says. The used marker outlives the token itself.
	markerTTL := claims.RemainingLife(e.clock())
	outcome, err := e.refreshes.TryConsume(ctx, claims.ID, markerTTL)
	if err != nil {
		// Rotation is always fail-closed: admitting a reused token is
		// worse than a failed refresh.
		return nil, fmt.Errorf("%w: refresh consume failed", ErrStoreUnavailable)
	}
	if outcome == refresh.AlreadyUsed {
		e.metrics.Inc(MetricRefreshReuseDetected)
		revoked, revErr := e.RevokeAllSessions(ctx, claims.Subject)
		e.logger.Error().
			Str("user_id", claims.Subject).
			Str("jti", claims.ID).
			Int("sessions_revoked", revoked).
			Err(revErr).
			Msg("refresh token reuse detected")
		return nil, ErrRefreshReuseDetected
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if claims.Version != user.TokenVersion {
		return nil, ErrVersionStale
	}

	pair, accessClaims, _, err := e.issuePair(user)
	if err != nil {
		return nil, err
	}
	degraded := e.registerSession(ctx, user, accessClaims)

	e.metrics.Inc(MetricRefreshSuccess)
	e.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", accessClaims.ID).
		Msg("refresh rotation completed")

	return &RefreshResult{TokenPair: pair, Degraded: degraded}, nil
}
