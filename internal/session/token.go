package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errNoExpiry = errors.New("token has no expiry claim")

// tokenExpiry decodes the claims segment of a three-part bearer token and
// returns its expiry. The signature is NOT verified here — the gateway owns
// verification; the client only needs to know when to stop presenting the
// token. Every failure path (malformed token, undecodable payload, missing
// or non-numeric exp) returns an error, which callers treat as expired.
func tokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errNoExpiry
	}
	return exp.Time, nil
}
