package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoExpiry     = errors.New("token has no expiry claim")
	ErrMalformedJWT = errors.New("malformed token")
)

// Expiry extracts the exp claim from an access token without verifying the
// signature. Verification is the backend's job; the client only needs the
// expiry to decide whether a refresh is due before sending a request.
func Expiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, ErrMalformedJWT
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}

	return exp.Time, nil
}

// ExpiresWithin reports whether the token expires inside the given window.
// Opaque (non-JWT) tokens report false so the 401-refresh path stays the
// fallback for backends that do not issue JWTs.
func ExpiresWithin(tokenString string, window time.Duration) bool {
	exp, err := Expiry(tokenString)
	if err != nil {
		return false
	}
	return time.Until(exp) < window
}
