package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind tags a token as belonging to exactly one verification audience.
// An access token can never be replayed as a refresh token or vice versa.
type Kind string

const (
	// Access is the short-lived kind presented on ordinary API calls.
	Access Kind = "access"
	// Refresh is the long-lived kind exchanged for new token pairs.
	Refresh Kind = "refresh"
)

// ErrInvalidToken covers every verification failure: bad signature, missing
// claims, kind mismatch, expiry, and a premature nbf. Callers surface a
// single opaque failure to clients regardless of the underlying cause.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload carried by both token kinds.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a shared symmetric secret.
// All time comparisons run against a single UTC clock.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a codec for the given signing secret.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	return &Codec{
		secret: secret,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue builds {sub, type, iat, exp} claims for the subject and returns the
// signed compact serialization. Issue has no side effects beyond signing.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		Type: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify parses the token, checks the signature and registered claims, and
// requires the type claim to match the expected kind.
func (c *Codec) Verify(tokenStr string, expected Kind) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Type == "" {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}
	if claims.Type != string(expected) {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, expected)
	}

	return claims, nil
}
