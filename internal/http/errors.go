package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/authproxy"
	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/token"
)

// ErrorResponse is the body of every error the gateway produces itself
type ErrorResponse struct {
	Error   string      `json:"error"`
	Kind    domain.Kind `json:"kind"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func toErrorResponse(derr *domain.Error, includeCause bool) ErrorResponse {
	resp := ErrorResponse{
		Error:   derr.Message,
		Kind:    derr.Kind,
		Code:    derr.Code,
		Details: derr.Details,
	}
	if includeCause && resp.Details == nil && derr.Cause != nil {
		resp.Details = derr.Cause.Error()
	}
	return resp
}

// mapError translates errors from the proxy stack into domain errors
func mapError(err error) *domain.Error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr
	}

	switch {
	case errors.Is(err, authproxy.ErrNoToken):
		return domain.ErrAuthenticationRequired
	case errors.Is(err, authproxy.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, authproxy.ErrRefreshFailed):
		return &domain.Error{
			Kind:    domain.KindAuth,
			Status:  http.StatusUnauthorized,
			Message: domain.ErrSessionExpired.Message,
			Cause:   err,
		}
	case errors.Is(err, authproxy.ErrRetryFailed):
		return domain.NewAuthError("Authentication failed after token refresh", err)
	case errors.Is(err, backend.ErrUnavailable):
		return domain.NewUpstreamError(http.StatusServiceUnavailable, "Backend temporarily unavailable", err)
	case errors.Is(err, backend.ErrUnreachable):
		return domain.NewUpstreamError(http.StatusBadGateway, "Backend unreachable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewUpstreamError(http.StatusGatewayTimeout, "Backend timed out", err)
	case errors.Is(err, backend.ErrMalformedResponse):
		return domain.NewUpstreamError(http.StatusBadGateway, "Invalid response from backend", err)
	case isBodyTooLarge(err):
		var maxErr *http.MaxBytesError
		errors.As(err, &maxErr)
		return errBodyTooLarge(maxErr.Limit)
	}
	return domain.NewInternalError("Internal server error", err)
}

// respondError writes err in the shared error shape
func (s *Server) respondError(c *gin.Context, err error) {
	derr := mapError(err)

	if derr.Status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path,
			"status", derr.Status,
			"kind", derr.Kind,
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
	}

	c.JSON(derr.Status, toErrorResponse(derr, !s.config.IsProduction() && derr.Kind != domain.KindInternal))
}

// respondAuthError writes an error for a stale-token route. A final 401 tells
// the client its stored tokens are useless and expires the auth cookies.
func (s *Server) respondAuthError(c *gin.Context, err error, staleToken bool) {
	derr := mapError(err)
	if staleToken && derr.Status == http.StatusUnauthorized {
		token.ClearAuthCookies(c.Writer, s.cookies)
		derr = derr.WithCode(domain.CodeStaleToken)
	}
	s.respondError(c, derr)
}
