package authproxy

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hireportal/internal/backend"
)

// NeedsRefresh reports whether resp signals an expired access token: any 401,
// or a 403 whose body says the token is no longer valid.
func NeedsRefresh(resp *backend.Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		return bodyIndicatesExpiry(resp.Body)
	default:
		return false
	}
}

func bodyIndicatesExpiry(body json.RawMessage) bool {
	if len(body) == 0 {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	if code, _ := payload["code"].(string); code == "token_not_valid" {
		return true
	}
	for _, key := range []string{"detail", "error", "message"} {
		if msg, ok := payload[key].(string); ok && strings.Contains(strings.ToLower(msg), "expired") {
			return true
		}
	}
	return false
}
