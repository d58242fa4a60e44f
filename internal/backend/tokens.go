package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrRefreshRejected means the backend refused to issue a new access token
var ErrRefreshRejected = errors.New("refresh token rejected")

// TokenPair is an access token and, when the backend rotates, a new refresh token
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Refresh exchanges refreshToken for a new access token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   c.refreshPath,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.StatusCode)
	}

	pair, ok := ParseTokenPair(resp.Body)
	if !ok {
		return nil, fmt.Errorf("%w: no access token in response", ErrRefreshRejected)
	}
	return pair, nil
}

// ParseTokenPair finds the tokens in a login or refresh body. The backend
// has used access/refresh, access_token/refresh_token and a nested "tokens"
// object across endpoints.
func ParseTokenPair(body json.RawMessage) (*TokenPair, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	if nested, ok := payload["tokens"]; ok {
		if pair, ok := ParseTokenPair(nested); ok {
			return pair, true
		}
	}

	pair := &TokenPair{
		Access:  firstString(payload, "access", "access_token", "token"),
		Refresh: firstString(payload, "refresh", "refresh_token"),
	}
	if pair.Access == "" {
		return nil, false
	}
	return pair, true
}

func firstString(payload map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
