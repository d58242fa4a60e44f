package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/apipaths"
	"github.com/hireportal/internal/authproxy"
	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/normalize"
	"github.com/hireportal/internal/token"
)

// AuthResponse is returned by login and register. Tokens are repeated in the
// body for clients that keep them in localStorage.
type AuthResponse struct {
	User         json.RawMessage `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
}

type refreshRequest struct {
	Refresh      string `json:"refresh"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (r refreshRequest) token() string {
	if r.Refresh != "" {
		return r.Refresh
	}
	return r.RefreshToken
}

// login forwards credentials to the backend and stores the issued tokens in cookies
func (s *Server) login(c *gin.Context) {
	s.exchangeCredentials(c, apipaths.BackendLogin, true)
}

// register creates an account; cookies are set when the backend signs the user in
func (s *Server) register(c *gin.Context) {
	s.exchangeCredentials(c, apipaths.BackendRegister, false)
}

func (s *Server) exchangeCredentials(c *gin.Context, backendPath string, tokensRequired bool) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if len(body) == 0 || !json.Valid(body) {
		s.respondError(c, domain.NewValidationError("Request body must be a JSON object", nil))
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method: http.MethodPost,
		Path:   backendPath,
		Body:   body,
		Header: s.forwardHeaders(c),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !resp.OK() {
		s.relay(c, resp)
		return
	}

	pair, ok := backend.ParseTokenPair(resp.Body)
	if !ok {
		if tokensRequired {
			s.respondError(c, domain.NewUpstreamError(http.StatusBadGateway, "Backend did not issue tokens", nil))
			return
		}
		s.relay(c, resp)
		return
	}

	s.setTokenCookies(c, pair)

	s.logger.InfoContext(c.Request.Context(), "user signed in",
		"subject", token.Subject(pair.Access),
		"path", backendPath,
	)

	c.JSON(resp.StatusCode, AuthResponse{
		User:         s.userFromBody(resp.Body),
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	})
}

// refresh exchanges the refresh token from the cookie or the JSON body
func (s *Server) refresh(c *gin.Context) {
	refreshToken := s.refreshTokenFromRequest(c)
	if refreshToken == "" {
		s.respondError(c, domain.NewAuthError("Refresh token required", nil))
		return
	}

	pair, err := s.caller.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		s.respondAuthError(c, err, errors.Is(err, authproxy.ErrRefreshFailed))
		return
	}

	s.setTokenCookies(c, pair)

	resp := gin.H{"access_token": pair.Access, "access": pair.Access}
	if pair.Refresh != "" {
		resp["refresh_token"] = pair.Refresh
		resp["refresh"] = pair.Refresh
	}
	c.JSON(http.StatusOK, resp)
}

// logout blacklists the refresh token upstream when possible and always
// clears the auth cookies.
func (s *Server) logout(c *gin.Context) {
	refreshToken := s.refreshTokenFromRequest(c)
	creds := token.Resolve(c.Request)

	if refreshToken != "" {
		if err := s.backendLogout(c, refreshToken, creds.Access); err != nil {
			s.logger.WarnContext(c.Request.Context(), "backend logout failed", "error", err)
		}
	}

	token.ClearAuthCookies(c.Writer, s.cookies)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// backendLogout asks the backend to blacklist refreshToken
func (s *Server) backendLogout(c *gin.Context, refreshToken, accessToken string) error {
	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to encode logout request: %w", err)
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method: http.MethodPost,
		Path:   apipaths.BackendLogout,
		Body:   payload,
		Token:  accessToken,
		Header: s.forwardHeaders(c),
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("backend rejected logout with status %d", resp.StatusCode)
	}
	return nil
}

func (s *Server) refreshTokenFromRequest(c *gin.Context) string {
	if creds := token.Resolve(c.Request); creds.Refresh != "" {
		return creds.Refresh
	}
	var body refreshRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return ""
	}
	return body.token()
}

// userFromBody extracts the user object from a login response
func (s *Server) userFromBody(body json.RawMessage) json.RawMessage {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return json.RawMessage("null")
	}
	user, ok := payload["user"]
	if !ok {
		return json.RawMessage("null")
	}
	mapped, err := normalize.Response("media_urls", user, s.backend.BaseURL())
	if err != nil {
		return user
	}
	return mapped
}

// relay writes a backend response unchanged
func (s *Server) relay(c *gin.Context, resp *backend.Response) {
	if len(resp.Body) == 0 {
		c.Status(resp.StatusCode)
		c.Writer.WriteHeaderNow()
		return
	}
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}
