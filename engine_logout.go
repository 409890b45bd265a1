package auth

import (
	"context"
	"time"
)

// Logout revokes the presented access token and drops its session.
// Logout is best effort by design: an unparseable token has nothing to
// revoke and returns nil, since the caller's goal — that the token not
// be usable — already holds.
func (e *Engine) Logout(ctx context.Context, raw string) error {
	claims, err := e.decodeAccess(raw)
	if err != nil {
		return nil
	}

	remaining := claims.RemainingLife(e.clock())
	if remaining <= 0 {
		remaining = time.Second
	}
	if err := e.blacklist.Revoke(ctx, claims.ID, remaining); err != nil {
		return err
	}
	e.metrics.Inc(MetricSessionRevoked)

	if err := e.sessions.Remove(ctx, claims.Subject, claims.ID); err != nil {
		e.logger.Warn().Err(err).
			Str("session_id", claims.ID).
			Msg("session record removal failed during logout")
	}

	e.logger.Info().
		Str("user_id", claims.Subject).
		Str("session_id", claims.ID).
		Msg("logout completed")
	return nil
}
