package http

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/authproxy"
	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/normalize"
	"github.com/hireportal/internal/routes"
	"github.com/hireportal/internal/token"
)

// forwardedHeaders are copied from the browser request to the backend
var forwardedHeaders = []string{"Accept-Language", requestIDHeader}

// proxyHandler serves one route of the table: resolve the token, forward,
// refresh once if needed, then normalize the 2xx body.
func (s *Server) proxyHandler(route routes.Route) gin.HandlerFunc {
	params := route.PathParams()

	return func(c *gin.Context) {
		body, contentType, err := s.readProxyBody(c, route)
		if err != nil {
			s.respondError(c, err)
			return
		}

		values := make(map[string]string, len(params))
		for _, name := range params {
			values[name] = c.Param(name)
		}

		req := backend.Request{
			Method:      route.Method,
			Path:        route.BackendPath(values),
			RawQuery:    c.Request.URL.RawQuery,
			Body:        body,
			ContentType: contentType,
			Header:      s.forwardHeaders(c),
		}

		creds := token.Resolve(c.Request)
		var result *authproxy.Result
		if route.Auth {
			result, err = s.caller.Call(c.Request.Context(), creds, req)
		} else {
			result, err = s.caller.CallOptional(c.Request.Context(), creds, req)
		}
		if err != nil {
			// Keep a pair obtained before the retry failed, unless the
			// stale-token path is about to expire the cookies anyway
			if result != nil && result.Refreshed && !(route.StaleToken && mapError(err).Status == http.StatusUnauthorized) {
				s.setTokenCookies(c, result.Tokens)
			}
			s.respondAuthError(c, err, route.StaleToken)
			return
		}

		if result.Refreshed {
			s.setTokenCookies(c, result.Tokens)
		}
		s.writeBackendResponse(c, route, result.Response)
	}
}

// readProxyBody reads the request body and applies the route's request
// transform to JSON bodies. Other bodies are forwarded untouched.
func (s *Server) readProxyBody(c *gin.Context, route routes.Route) ([]byte, string, error) {
	if c.Request.Body == nil || c.Request.Method == http.MethodGet {
		return nil, "", nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := c.GetHeader("Content-Type")
	if len(body) == 0 || route.Normalize == "" || !isJSON(contentType) {
		return body, contentType, nil
	}

	mapped, err := normalize.Request(route.Normalize, body)
	if err != nil {
		return nil, "", domain.NewValidationError("Invalid JSON body", err)
	}
	return mapped, contentType, nil
}

// writeBackendResponse relays the backend status. 2xx bodies pass through the
// route's transform; error bodies are relayed untouched so field errors reach the client.
func (s *Server) writeBackendResponse(c *gin.Context, route routes.Route, resp *backend.Response) {
	if resp.StatusCode == http.StatusUnauthorized && route.StaleToken {
		s.respondAuthError(c, domain.ErrAuthenticationRequired, true)
		return
	}

	body := resp.Body
	if resp.OK() && route.Normalize != "" {
		mapped, err := normalize.Response(route.Normalize, body, s.backend.BaseURL())
		if err != nil {
			s.logger.WarnContext(c.Request.Context(), "normalize failed, relaying raw body",
				"route", route.Name,
				"transform", route.Normalize,
				"error", err,
			)
		} else {
			body = mapped
		}
	}

	s.relay(c, &backend.Response{StatusCode: resp.StatusCode, Body: body})
}

// setTokenCookies stores a refreshed pair; the refresh cookie is only
// rewritten when the backend rotated it.
func (s *Server) setTokenCookies(c *gin.Context, pair *backend.TokenPair) {
	if pair == nil || pair.Access == "" {
		return
	}
	token.SetAccessCookie(c.Writer, s.cookies, pair.Access)
	if pair.Refresh != "" {
		token.SetRefreshCookie(c.Writer, s.cookies, pair.Refresh)
	}
}

func (s *Server) forwardHeaders(c *gin.Context) http.Header {
	h := make(http.Header)
	for _, name := range forwardedHeaders {
		if v := c.GetHeader(name); v != "" {
			h.Set(name, v)
		}
	}
	if id := c.GetString(requestIDKey); id != "" {
		h.Set(requestIDHeader, id)
	}
	h.Set("X-Forwarded-For", c.ClientIP())
	return h
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
