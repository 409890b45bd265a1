package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/blacklist"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/password"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/refresh"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/reset"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/session"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/throttle"
	"github.com/guruvedhanth-s/Employee-performance-Tracker/token"
)

// Engine orchestrates the authentication lifecycle: login, request
// validation, refresh rotation, logout, session control, and password
// maintenance. Construct it through Builder; all methods are safe for
// concurrent use.
type Engine struct {
	config Config
	logger zerolog.Logger

	redis  redis.UniversalClient
	users  UserStore
	hasher Hasher

	codec     *token.Codec
	blacklist *blacklist.List
	sessions  *session.Registry
	refreshes *refresh.Tracker
	throttle  *throttle.Throttle
	resets    *reset.Store

	metrics *Metrics

	// now is overridable in tests. Nil means time.Now.
	now func() time.Time
}

func defaultHasher() Hasher {
	return password.NewBcryptHasher()
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// Metrics exposes the engine's counters for scraping.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Ping verifies the backing store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.Store.OpTimeout)
	defer cancel()
	if err := e.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// issuePair mints an access/refresh token pair sharing nothing but the
// subject; each carries its own jti.
func (e *Engine) issuePair(u *User) (TokenPair, *token.Claims, *token.Claims, error) {
	access, accessClaims, err := e.codec.Issue(
		u.ID, u.Role, u.OrgID, u.TokenVersion, token.TypeAccess, e.config.Token.AccessTTL)
	if err != nil {
		return TokenPair{}, nil, nil, err
	}
	refreshTok, refreshClaims, err := e.codec.Issue(
		u.ID, u.Role, u.OrgID, u.TokenVersion, token.TypeRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		return TokenPair{}, nil, nil, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refreshTok}, accessClaims, refreshClaims, nil
}

// registerSession records the session keyed by the access token's jti.
// A store failure is reported to the caller as degraded, not fatal: the
// user holds valid tokens either way.
func (e *Engine) registerSession(ctx context.Context, u *User, accessClaims *token.Claims) (degraded bool) {
	now := e.clock()
	rec := &session.Record{
		SessionID:      accessClaims.ID,
		UserID:         u.ID,
		Device:         deviceLabel(userAgentFromContext(ctx)),
		IPAddress:      clientIPFromContext(ctx),
		UserAgent:      userAgentFromContext(ctx),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := e.sessions.Create(ctx, rec); err != nil {
		e.metrics.Inc(MetricStoreDegraded)
		e.logger.Warn().Err(err).
			Str("user_id", u.ID).
			Str("session_id", accessClaims.ID).
			Msg("session registration failed, continuing degraded")
		return true
	}
	e.metrics.Inc(MetricSessionCreated)
	return false
}

// deviceLabel derives a coarse device name from the User-Agent string.
func deviceLabel(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	if len(userAgent) > 64 {
		return userAgent[:64]
	}
	return userAgent
}
