// Package token issues and validates the signed access tokens used for
// request authorization. Tokens are self-contained: any holder of the
// signing secret can validate them without a database round-trip.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned for any structurally or cryptographically
	// invalid token: bad signature, unexpected algorithm, garbage input.
	ErrMalformed = errors.New("malformed access token")
	// ErrExpired is returned for a well-signed token past its expiry.
	ErrExpired = errors.New("access token expired")
)

// Claims represents the claim set carried by an access token
type Claims struct {
	UserID uint     `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claim set includes the given role
func (c *Claims) HasRole(name string) bool {
	for _, role := range c.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// Signer signs and validates access tokens with an immutable HMAC secret.
// The secret is fixed at construction and never mutated at runtime.
type Signer struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewSigner creates a Signer with the given secret and access token lifetime
func NewSigner(secret string, accessTTL time.Duration) *Signer {
	return &Signer{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured access token lifetime
func (s *Signer) TTL() time.Duration {
	return s.accessTTL
}

// Issue serializes the claim set into a signed HS256 JWT expiring at now+TTL
func (s *Signer) Issue(userID uint, roles []string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature before trusting any claim, then checks
// expiry. Returns ErrExpired only for a correctly signed token past its
// expiry; every other failure is ErrMalformed. It never fails open.
func (s *Signer) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Verify signing method before handing out the key
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		// Signature problems win over expiry: an expired token with a bad
		// signature is malformed, not expired.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrMalformed
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
