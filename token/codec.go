package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type discriminates access tokens from refresh tokens. The codec embeds
// it in the signed claims and callers must check it before trusting a
// token for a given purpose.
type Type string

const (
	// TypeAccess is the short-lived per-request credential.
	TypeAccess Type = "access"
	// TypeRefresh is the longer-lived single-use rotation credential.
	TypeRefresh Type = "refresh"
)

var (
	// ErrMalformed is returned when the token is not a parseable JWT.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned when the signature does not verify
	// or the token was signed with an unexpected algorithm.
	ErrSignatureInvalid = errors.New("invalid token signature")
	// ErrExpired is returned when the exp claim is in the past.
	ErrExpired = errors.New("token expired")
)

// Claims is the signed claim set carried by both token types. Claims are
// integrity-protected, not encrypted; never embed secrets in them.
//
// Canonical wire names: sub, role, orgId, version, jti, iat, exp, type.
type Claims struct {
	Role    string `json:"role"`
	OrgID   string `json:"orgId"`
	Version int64  `json:"version"`
	Type    Type   `json:"type"`
	jwt.RegisteredClaims
}

// Config holds the symmetric signing parameters. The algorithm is pinned
// per deployment; tokens signed with any other algorithm are rejected.
type Config struct {
	Secret    []byte
	Algorithm string // "HS256" (default), "HS384", "HS512"
	Leeway    time.Duration
}

// Codec issues and decodes signed claim sets. It is stateless and safe
// for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	leeway time.Duration
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret must not be empty")
	}
	if cfg.Leeway < 0 {
		return nil, errors.New("negative leeway")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = "HS256"
	}
	switch alg {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	return &Codec{
		secret: cfg.Secret,
		method: jwt.GetSigningMethod(alg),
		leeway: cfg.Leeway,
	}, nil
}

// Issue signs a new token of the given type. The jti is a fresh uuid4 on
// every call; the returned Claims carry it along with iat/exp so callers
// can register sessions and compute remaining lifetimes without decoding
// their own output.
func (c *Codec) Issue(sub, role, orgID string, version int64, typ Type, ttl time.Duration) (string, *Claims, error) {
	if ttl <= 0 {
		return "", nil, errors.New("non-positive token ttl")
	}

	now := time.Now()
	claims := &Claims{
		Role:    role,
		OrgID:   orgID,
		Version: version,
		Type:    typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Decode verifies the signature and expiry and returns the claims.
// Failures are classified as ErrExpired, ErrSignatureInvalid, or
// ErrMalformed; callers discriminate with errors.Is.
func (c *Codec) Decode(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
	}
	if c.leeway > 0 {
		options = append(options, jwt.WithLeeway(c.leeway))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrSignatureInvalid
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// RemainingLife reports how long the token is still valid, zero or
// negative when already expired. Used to size revocation entries so they
// never outlive what they revoke.
func (cl *Claims) RemainingLife(now time.Time) time.Duration {
	if cl.ExpiresAt == nil {
		return 0
	}
	return cl.ExpiresAt.Time.Sub(now)
}
