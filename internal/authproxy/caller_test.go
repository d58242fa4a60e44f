package authproxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/token"
)

// fakeBackend accepts only its current access token
type fakeBackend struct {
	mu           sync.Mutex
	validToken   string
	newToken     string
	refreshErr   error
	refreshDelay time.Duration
	rejectAll    bool
	doErrOnRetry error

	doCalls      []string
	refreshCalls atomic.Int32
}

func (f *fakeBackend) Do(ctx context.Context, req backend.Request) (*backend.Response, error) {
	f.mu.Lock()
	f.doCalls = append(f.doCalls, req.Token)
	calls := len(f.doCalls)
	valid := f.validToken
	f.mu.Unlock()

	if calls > 1 && f.doErrOnRetry != nil {
		return nil, f.doErrOnRetry
	}
	if f.rejectAll || (req.Token != "" && req.Token != valid) {
		return &backend.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       json.RawMessage(`{"detail":"Given token not valid for any token type","code":"token_not_valid"}`),
		}, nil
	}
	return &backend.Response{StatusCode: http.StatusOK, Body: json.RawMessage(`{"ok":true}`)}, nil
}

func (f *fakeBackend) Refresh(ctx context.Context, refreshToken string) (*backend.TokenPair, error) {
	f.refreshCalls.Add(1)
	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	f.mu.Lock()
	f.validToken = f.newToken
	f.mu.Unlock()
	return &backend.TokenPair{Access: f.newToken}, nil
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.doCalls...)
}

func TestCall_NoToken(t *testing.T) {
	fb := &fakeBackend{validToken: "a"}
	caller := NewCaller(fb, slog.Default())

	_, err := caller.Call(context.Background(), token.Credentials{Refresh: "r"}, backend.Request{Path: "/api/me/"})
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if len(fb.calls()) != 0 {
		t.Error("backend must not be contacted without a token")
	}
	if fb.refreshCalls.Load() != 0 {
		t.Error("refresh must not be attempted without an access token")
	}
}

func TestCall_ValidToken(t *testing.T) {
	fb := &fakeBackend{validToken: "a"}
	caller := NewCaller(fb, slog.Default())

	res, err := caller.Call(context.Background(), token.Credentials{Access: "a"}, backend.Request{Path: "/api/me/"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if res.Refreshed {
		t.Error("expected no refresh for a valid token")
	}
	if res.Response.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.Response.StatusCode)
	}
}

func TestCall_RefreshAndRetryOnce(t *testing.T) {
	fb := &fakeBackend{validToken: "fresh", newToken: "fresh"}
	caller := NewCaller(fb, slog.Default())

	res, err := caller.Call(context.Background(),
		token.Credentials{Access: "stale", Refresh: "r"},
		backend.Request{Path: "/api/me/"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !res.Refreshed || res.Tokens == nil || res.Tokens.Access != "fresh" {
		t.Fatalf("expected refreshed result with new token, got %+v", res)
	}

	calls := fb.calls()
	if len(calls) != 2 || calls[0] != "stale" || calls[1] != "fresh" {
		t.Errorf("expected exactly one retry with the new token, got %v", calls)
	}
	if fb.refreshCalls.Load() != 1 {
		t.Errorf("expected one refresh, got %d", fb.refreshCalls.Load())
	}
}

func TestCall_SecondFailureDoesNotRefreshAgain(t *testing.T) {
	fb := &fakeBackend{newToken: "fresh", rejectAll: true}
	caller := NewCaller(fb, slog.Default())

	_, err := caller.Call(context.Background(),
		token.Credentials{Access: "stale", Refresh: "r"},
		backend.Request{Path: "/api/me/"})
	if !errors.Is(err, ErrRetryFailed) {
		t.Fatalf("expected ErrRetryFailed, got %v", err)
	}
	if got := len(fb.calls()); got != 2 {
		t.Errorf("expected 2 backend calls, got %d", got)
	}
	if fb.refreshCalls.Load() != 1 {
		t.Errorf("expected exactly one refresh, got %d", fb.refreshCalls.Load())
	}
}

func TestCall_NoRefreshToken(t *testing.T) {
	fb := &fakeBackend{validToken: "fresh"}
	caller := NewCaller(fb, slog.Default())

	_, err := caller.Call(context.Background(), token.Credentials{Access: "stale"}, backend.Request{Path: "/api/me/"})
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCall_RefreshFails(t *testing.T) {
	fb := &fakeBackend{validToken: "fresh", refreshErr: backend.ErrRefreshRejected}
	caller := NewCaller(fb, slog.Default())

	_, err := caller.Call(context.Background(),
		token.Credentials{Access: "stale", Refresh: "r"},
		backend.Request{Path: "/api/me/"})
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}
	if !errors.Is(err, backend.ErrRefreshRejected) {
		t.Error("expected the refresh cause to be kept")
	}
	if got := len(fb.calls()); got != 1 {
		t.Errorf("expected no retry after failed refresh, got %d calls", got)
	}
}

func TestCall_RetryTransportError(t *testing.T) {
	fb := &fakeBackend{validToken: "fresh", newToken: "fresh", doErrOnRetry: backend.ErrUnreachable}
	caller := NewCaller(fb, slog.Default())

	res, err := caller.Call(context.Background(),
		token.Credentials{Access: "stale", Refresh: "r"},
		backend.Request{Path: "/api/me/"})
	if !errors.Is(err, ErrRetryFailed) {
		t.Fatalf("expected ErrRetryFailed, got %v", err)
	}
	if res == nil || !res.Refreshed || res.Tokens == nil || res.Tokens.Access != "fresh" {
		t.Fatalf("expected the refreshed pair alongside the error, got %+v", res)
	}
	if res.Response != nil {
		t.Error("expected no response when the retry failed")
	}
}

func TestCallOptional_Anonymous(t *testing.T) {
	fb := &fakeBackend{validToken: "a"}
	caller := NewCaller(fb, slog.Default())

	res, err := caller.CallOptional(context.Background(), token.Credentials{}, backend.Request{Path: "/api/jobs/"})
	if err != nil {
		t.Fatalf("CallOptional() error = %v", err)
	}
	if res.Response.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.Response.StatusCode)
	}
	if calls := fb.calls(); len(calls) != 1 || calls[0] != "" {
		t.Errorf("expected one anonymous call, got %v", calls)
	}
}

func TestCall_ConcurrentRefreshCoalesced(t *testing.T) {
	fb := &fakeBackend{validToken: "fresh", newToken: "fresh", refreshDelay: 50 * time.Millisecond}
	caller := NewCaller(fb, slog.Default())

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := caller.Call(context.Background(),
				token.Credentials{Access: "stale", Refresh: "shared"},
				backend.Request{Path: "/api/me/"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error %v", err)
		}
	}
	// Late arrivals may find the token already valid, but never refresh twice concurrently
	if got := fb.refreshCalls.Load(); got > 2 {
		t.Errorf("expected coalesced refreshes, got %d", got)
	}
}

func TestRefresh_Explicit(t *testing.T) {
	fb := &fakeBackend{newToken: "fresh"}
	caller := NewCaller(fb, slog.Default())

	pair, err := caller.Refresh(context.Background(), "r")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if pair.Access != "fresh" {
		t.Errorf("expected access token fresh, got %q", pair.Access)
	}

	if _, err := caller.Refresh(context.Background(), ""); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired for empty refresh token, got %v", err)
	}

	fb.refreshErr = backend.ErrRefreshRejected
	if _, err := caller.Refresh(context.Background(), "r"); !errors.Is(err, ErrRefreshFailed) || !errors.Is(err, backend.ErrRefreshRejected) {
		t.Errorf("expected ErrRefreshFailed wrapping the rejection, got %v", err)
	}
}

func TestNeedsRefresh(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"401", 401, `{"detail":"Authentication credentials were not provided."}`, true},
		{"401 empty body", 401, ``, true},
		{"403 token_not_valid", 403, `{"code":"token_not_valid"}`, true},
		{"403 expired detail", 403, `{"detail":"Token has Expired"}`, true},
		{"403 expired error", 403, `{"error":"session expired"}`, true},
		{"403 permission", 403, `{"detail":"You do not have permission to perform this action."}`, false},
		{"200", 200, `{"detail":"expired"}`, false},
		{"404", 404, `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &backend.Response{StatusCode: tt.status}
			if tt.body != "" {
				resp.Body = json.RawMessage(tt.body)
			}
			if got := NeedsRefresh(resp); got != tt.want {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
