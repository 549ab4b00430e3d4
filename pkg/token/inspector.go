// Package token inspects access tokens issued by the upstream auth service.
// The gateway never verifies signatures (that is the upstream's job); it only
// peeks at the exp claim to refresh the session before a token goes stale.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry indicates the token carries no exp claim
var ErrNoExpiry = errors.New("token has no expiry claim")

// Inspector reads JWT claims without signature verification
type Inspector struct {
	parser *jwt.Parser
}

// NewInspector creates a new token inspector
func NewInspector() *Inspector {
	return &Inspector{
		parser: jwt.NewParser(),
	}
}

// ExpiresAt returns the expiry time of the token's exp claim
func (i *Inspector) ExpiresAt(tokenString string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	_, _, err := i.parser.ParseUnverified(tokenString, &claims)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}

	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token's exp claim is in the past
func (i *Inspector) IsExpired(tokenString string) bool {
	expiresAt, err := i.ExpiresAt(tokenString)
	if err != nil {
		return false
	}
	return time.Now().After(expiresAt)
}

// ExpiresWithin reports whether the token expires within the given leeway.
// Opaque (non-JWT) tokens and tokens without exp report false; those sessions
// are renewed reactively on the first 401 instead.
func (i *Inspector) ExpiresWithin(tokenString string, leeway time.Duration) bool {
	expiresAt, err := i.ExpiresAt(tokenString)
	if err != nil {
		return false
	}
	return time.Now().Add(leeway).After(expiresAt)
}
