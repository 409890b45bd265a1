package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/token"
)

// ValidateRequest checks a bearer access token end to end: signature and
// expiry, token type, revocation, account status, and token version. On
// success it returns the caller's Principal and touches the session's
// activity timestamp best effort.
func (e *Engine) ValidateRequest(ctx context.Context, raw string) (*Principal, error) {
	claims, err := e.decodeAccess(raw)
	if err != nil {
		e.metrics.Inc(MetricValidateRejected)
		return nil, err
	}

	revoked, err := e.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		if e.config.Store.RevocationFailPolicy == FailOpen {
			e.metrics.Inc(MetricRevocationBypassed)
			e.logger.Warn().Err(err).
				Str("jti", claims.ID).
				Msg("revocation store unreachable, fail-open policy admits token")
		} else {
			e.metrics.Inc(MetricValidateRejected)
			return nil, fmt.Errorf("%w: revocation check failed", ErrStoreUnavailable)
		}
	}
	if revoked {
		e.metrics.Inc(MetricValidateRejected)
		return nil, ErrRevokedToken
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		e.metrics.Inc(MetricValidateRejected)
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		e.metrics.Inc(MetricValidateRejected)
		return nil, ErrAccountDisabled
	}
	if claims.Version != user.TokenVersion {
		e.metrics.Inc(MetricValidateRejected)
		return nil, ErrVersionStale
	}

	if err := e.sessions.Touch(ctx, user.ID, claims.ID); err != nil {
		// Missing or unreachable session records do not fail validation;
		// the token alone carries the authorization.
		e.logger.Debug().Err(err).
			Str("session_id", claims.ID).
			Msg("session touch skipped")
	}

	return &Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      claims.Role,
		OrgID:     claims.OrgID,
		SessionID: claims.ID,
	}, nil
}

// decodeAccess parses and verifies raw and requires the access type.
func (e *Engine) decodeAccess(raw string) (*token.Claims, error) {
	claims, err := e.codec.Decode(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != token.TypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return claims, nil
}
