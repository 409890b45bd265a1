package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	auth "github.com/guruvedhanth-s/Employee-performance-Tracker"
)

type principalContextKey struct{}

// PrincipalFromContext returns the Principal the Guard stored for the
// current request.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*auth.Principal)
	return p, ok
}

// Guard returns middleware that validates the bearer token on every
// request and stores the resulting Principal in the request context.
// Expired, revoked, and superseded tokens get 401; a disabled account
// gets 403; a revocation-store outage under the fail-closed policy gets
// 503.
func Guard(engine *auth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithClientIP(r.Context(), clientIP(r))
			ctx = auth.WithUserAgent(ctx, r.UserAgent())

			principal, err := engine.ValidateRequest(ctx, token)
			if err != nil {
				status := http.StatusUnauthorized
				switch {
				case errors.Is(err, auth.ErrAccountDisabled):
					status = http.StatusForbidden
				case errors.Is(err, auth.ErrStoreUnavailable):
					status = http.StatusServiceUnavailable
				}
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx = context.WithValue(ctx, principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that admits only principals holding one
// of the given roles. It must run inside Guard.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
