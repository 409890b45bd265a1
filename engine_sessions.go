package auth

import (
	"context"
	"errors"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/session"
)

// ListSessions returns the user's live sessions, newest first.
func (e *Engine) ListSessions(ctx context.Context, userID string) ([]*session.Record, error) {
	return e.sessions.List(ctx, userID)
}

// RevokeSession kills one session: its access token goes on the
// blacklist for the rest of its natural life and the record is removed.
func (e *Engine) RevokeSession(ctx context.Context, userID, sessionID string) error {
	rec, err := e.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	remaining := rec.CreatedAt.Add(e.config.Token.AccessTTL).Sub(e.clock())
	if err := e.blacklist.Revoke(ctx, sessionID, remaining); err != nil {
		return err
	}
	if err := e.sessions.Remove(ctx, userID, sessionID); err != nil {
		return err
	}

	e.metrics.Inc(MetricSessionRevoked)
	e.logger.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Msg("session revoked")
	return nil
}

// RevokeAllSessions kills every session of the user and returns how many
// were removed. Each session's access jti is blacklisted first so the
// removal can never outpace the revocation.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	records, err := e.sessions.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := e.clock()
	for _, rec := range records {
		remaining := rec.CreatedAt.Add(e.config.Token.AccessTTL).Sub(now)
		if err := e.blacklist.Revoke(ctx, rec.SessionID, remaining); err != nil {
			return 0, err
		}
	}

	removed, err := e.sessions.RemoveAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i := 0; i < removed; i++ {
		e.metrics.Inc(MetricSessionRevoked)
	}

	e.logger.Info().
		Str("user_id", userID).
		Int("count", removed).
		Msg("all sessions revoked")
	return removed, nil
}
