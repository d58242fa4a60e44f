// Package authproxy forwards authenticated calls to the backend and performs
// the refresh-and-retry dance when the access token has expired.
package authproxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/token"
)

var (
	ErrNoToken       = errors.New("no access token")
	ErrTokenExpired  = errors.New("access token expired and no refresh token present")
	ErrRefreshFailed = errors.New("token refresh failed")
	ErrRetryFailed   = errors.New("request failed after token refresh")
)

// Forwarder is the part of the backend client the caller needs
type Forwarder interface {
	Do(ctx context.Context, req backend.Request) (*backend.Response, error)
	Refresh(ctx context.Context, refreshToken string) (*backend.TokenPair, error)
}

// Result is a backend response plus the tokens obtained while producing it.
// When a retry fails, Call returns a Result carrying only the new tokens
// together with the error.
type Result struct {
	Response  *backend.Response
	Tokens    *backend.TokenPair // set only when Refreshed
	Refreshed bool
}

// Caller runs backend requests on behalf of a browser session
type Caller struct {
	backend Forwarder
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCaller creates a caller over the given backend
func NewCaller(b Forwarder, logger *slog.Logger) *Caller {
	return &Caller{
		backend: b,
		logger:  logger,
	}
}

// Call forwards req with the access token from creds. A missing token is
// ErrNoToken; the backend is not contacted.
func (c *Caller) Call(ctx context.Context, creds token.Credentials, req backend.Request) (*Result, error) {
	if !creds.HasAccess() {
		return nil, ErrNoToken
	}
	return c.call(ctx, creds, req)
}

// CallOptional behaves like Call when a token is present and forwards the
// request anonymously otherwise.
func (c *Caller) CallOptional(ctx context.Context, creds token.Credentials, req backend.Request) (*Result, error) {
	if !creds.HasAccess() {
		resp, err := c.backend.Do(ctx, req.WithToken(""))
		if err != nil {
			return nil, err
		}
		return &Result{Response: resp}, nil
	}
	return c.call(ctx, creds, req)
}

func (c *Caller) call(ctx context.Context, creds token.Credentials, req backend.Request) (*Result, error) {
	resp, err := c.backend.Do(ctx, req.WithToken(creds.Access))
	if resp == nil || !NeedsRefresh(resp) {
		if err != nil {
			return nil, err
		}
		return &Result{Response: resp}, nil
	}

	if creds.Refresh == "" {
		return nil, ErrTokenExpired
	}

	pair, err := c.refresh(ctx, creds.Refresh)
	if err != nil {
		c.logger.WarnContext(ctx, "authproxy: refresh failed",
			"path", req.Path,
			"subject", token.Subject(creds.Access),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	c.logger.InfoContext(ctx, "authproxy: access token refreshed",
		"path", req.Path,
		"subject", token.Subject(pair.Access),
		"rotated", pair.Refresh != "",
	)

	// The pair is returned even when the retry fails: a rotated refresh
	// token has already been consumed upstream.
	refreshed := &Result{Tokens: pair, Refreshed: true}

	// One retry only; a second expiry is reported, never refreshed again
	retry, err := c.backend.Do(ctx, req.WithToken(pair.Access))
	switch {
	case retry != nil && NeedsRefresh(retry):
		return refreshed, fmt.Errorf("%w: backend still rejects the new token (status %d)", ErrRetryFailed, retry.StatusCode)
	case errors.Is(err, backend.ErrMalformedResponse):
		return refreshed, err
	case err != nil:
		return refreshed, fmt.Errorf("%w: %w", ErrRetryFailed, err)
	}

	refreshed.Response = retry
	return refreshed, nil
}

// refresh exchanges the refresh token, coalescing concurrent exchanges of the
// same token. The exchange outlives a single caller's cancellation since
// other waiters may share it.
func (c *Caller) refresh(ctx context.Context, refreshToken string) (*backend.TokenPair, error) {
	v, err, shared := c.group.Do(refreshToken, func() (any, error) {
		return c.backend.Refresh(context.WithoutCancel(ctx), refreshToken)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "authproxy: shared in-flight refresh")
	}
	return v.(*backend.TokenPair), nil
}

// Refresh exchanges refreshToken for a new pair on behalf of an explicit
// refresh request, sharing any exchange already in flight for that token.
func (c *Caller) Refresh(ctx context.Context, refreshToken string) (*backend.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrTokenExpired
	}
	pair, err := c.refresh(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return pair, nil
}
