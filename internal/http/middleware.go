package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireportal/internal/config"
	"github.com/hireportal/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestIDMiddleware propagates or assigns a request id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// loggerMiddleware logs each request once it has been handled
func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// recoveryMiddleware turns panics into a 500 error body. The stack is only
// exposed outside production.
func recoveryMiddleware(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(requestIDKey),
					"stack", stack,
				)

				derr := domain.NewInternalError("Internal server error", fmt.Errorf("panic: %v", rec))
				if !cfg.IsProduction() {
					derr = derr.WithDetails(gin.H{"panic": fmt.Sprint(rec), "stack": stack})
				}
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(derr.Status, toErrorResponse(derr, false))
			}
		}()
		c.Next()
	}
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// HSTS (only if using HTTPS)
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// cacheControlMiddleware disables caching of API responses and lets uploads be cached
func cacheControlMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api/") {
			c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Writer.Header().Set("Pragma", "no-cache")
			c.Writer.Header().Set("Expires", "0")
		} else if strings.HasPrefix(path, "/uploads/") {
			// Stored names carry a random suffix and are never rewritten
			c.Writer.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}

		c.Next()
	}
}

// bodyLimitMiddleware caps request bodies. Multipart bodies may carry one file
// of up to maxFileBytes plus form overhead; exceeding that is a rejected file
// (400), not an oversized request.
func bodyLimitMiddleware(maxBytes, maxFileBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		limit := maxBytes
		tooLarge := errBodyTooLarge(maxBytes)
		if strings.HasPrefix(strings.ToLower(c.GetHeader("Content-Type")), "multipart/") {
			limit = maxFileBytes + multipartOverhead
			tooLarge = errFileTooLarge(maxFileBytes)
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(tooLarge.Status, toErrorResponse(tooLarge, false))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// rateLimitMiddleware rejects clients that exceed their token bucket
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || s.limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		s.respondError(c, domain.NewRateLimitError("Too many requests, please slow down"))
		c.Abort()
	}
}

func errBodyTooLarge(limit int64) *domain.Error {
	return &domain.Error{
		Kind:    domain.KindValidation,
		Status:  http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("Request body too large (maximum %d bytes)", limit),
	}
}

func errFileTooLarge(limit int64) *domain.Error {
	return domain.NewValidationError(fmt.Sprintf("File too large (maximum %d bytes)", limit), nil)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
