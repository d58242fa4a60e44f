package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Lifetime returns how long tok remains valid according to its exp claim.
// The signature is not checked: the backend owns the key, the gateway only
// uses the claim to size cookies. Falls back when tok is not a JWT or has no
// usable exp, and never exceeds fallback.
func Lifetime(tok string, fallback time.Duration, now time.Time) time.Duration {
	claims, err := parseClaims(tok)
	if err != nil {
		return fallback
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return fallback
	}
	remaining := time.Unix(int64(exp), 0).Sub(now)
	if remaining <= 0 {
		return 0
	}
	if remaining > fallback {
		return fallback
	}
	return remaining
}

// Subject returns the user identifier carried by tok, for logging
func Subject(tok string) string {
	claims, err := parseClaims(tok)
	if err != nil {
		return ""
	}
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func parseClaims(tok string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tok, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
