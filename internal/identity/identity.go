// Package identity verifies tokens issued by the external identity provider.
// The provider is trusted as-is: a valid token yields the (id, email) pair the
// rest of the service keys users by.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingKey   = errors.New("identity signing key is not configured")
	ErrInvalidToken = errors.New("invalid identity token")
)

// Identity is what the provider asserts about the caller.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Claims is the token payload. Subject carries the provider's user id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	key    []byte
	issuer string
}

// NewVerifier builds an HS256 verifier. An empty issuer disables the issuer check.
func NewVerifier(signingKey, issuer string) (*Verifier, error) {
	if signingKey == "" {
		return nil, ErrMissingKey
	}
	return &Verifier{key: []byte(signingKey), issuer: issuer}, nil
}

// Verify parses and validates a token and returns the asserted identity.
func (v *Verifier) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: subject and email are required", ErrInvalidToken)
	}

	return &Identity{
		ID:    claims.Subject,
		Email: strings.ToLower(claims.Email),
		Name:  claims.Name,
	}, nil
}

// Issue signs a token for id. Used by tests and local tooling that stand in
// for the provider.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}
