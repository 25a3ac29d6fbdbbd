package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is display-only information parsed from the bearer token.
// The signature is NOT verified here: authentication decisions rest solely
// on token presence and the server's 401 responses.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseClaims decodes the token's claims without verification, for the
// whoami display. Opaque (non-JWT) tokens return an error and the caller
// simply omits the detail.
func ParseClaims(token string) (TokenClaims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, fmt.Errorf("parsing token claims: %w", err)
	}

	var claims TokenClaims
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
