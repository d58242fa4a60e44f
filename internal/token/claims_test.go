package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func createTestJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestLifetime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		tok  string
		want time.Duration
	}{
		{"not a jwt", "opaque-token", time.Hour},
		{"no exp", createTestJWT(t, jwt.MapClaims{"user_id": 7}), time.Hour},
		{"shorter than fallback", createTestJWT(t, jwt.MapClaims{"exp": now.Add(20 * time.Minute).Unix()}), 20 * time.Minute},
		{"capped at fallback", createTestJWT(t, jwt.MapClaims{"exp": now.Add(5 * time.Hour).Unix()}), time.Hour},
		{"already expired", createTestJWT(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lifetime(tt.tok, time.Hour, now); got != tt.want {
				t.Errorf("Lifetime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	if got := Subject(createTestJWT(t, jwt.MapClaims{"user_id": 42})); got != "42" {
		t.Errorf("Subject(user_id=42) = %q", got)
	}
	if got := Subject(createTestJWT(t, jwt.MapClaims{"sub": "abc"})); got != "abc" {
		t.Errorf("Subject(sub=abc) = %q", got)
	}
	if got := Subject("garbage"); got != "" {
		t.Errorf("Subject(garbage) = %q, want empty", got)
	}
}
