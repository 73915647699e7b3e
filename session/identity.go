package session

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/discograf/discograf/errors"
)

// usernameClaims is the priority order for deriving a display name from the
// access token payload
var usernameClaims = []string{
	"preferred_username",
	"username",
	"user_name",
	"email",
	"name",
	"sub",
}

const fallbackUsername = "user"

// User is the identity derived from the access token payload
type User struct {
	Username  string `json:"username"`
	ExpiresAt int64  `json:"exp"` // epoch seconds
}

// decodeIdentity extracts the identity from a JWT payload without verifying
// the signature. The gateway trusts the server that issued the token; the
// decode only derives display data and the expiry instant.
//
// A token without a usable expiry claim is invalid in its entirety.
func decodeIdentity(token string) (*User, error) {
	if token == "" {
		return nil, errors.BadRequest("token is empty")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, 400, "malformed token")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.BadRequest("token has no expiry claim")
	}

	user := &User{
		Username:  fallbackUsername,
		ExpiresAt: exp.Unix(),
	}

	for _, name := range usernameClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			user.Username = v
			break
		}
	}

	return user, nil
}
