package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Auth endpoints never carry a bearer token and are never refresh-retried.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathRefresh  = "/auth/refresh"
)

// IsAuthEndpoint reports whether path is login, register or refresh.
func IsAuthEndpoint(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	switch path {
	case PathLogin, PathRegister, PathRefresh:
		return true
	}
	return false
}

// Sender issues a Call through the full interceptor pipeline.
type Sender interface {
	Send(ctx context.Context, call *Call) (*http.Response, error)
}

// Interceptor is one hook pair in the request pipeline.
//
// BeforeRequest hooks run in registration order on every attempt, including
// resends. AfterResponse hooks run in reverse order. An AfterResponse hook that
// replaces resp is responsible for closing the one it drops.
type Interceptor interface {
	BeforeRequest(call *Call, req *http.Request) error
	AfterResponse(ctx context.Context, s Sender, call *Call, resp *http.Response) (*http.Response, error)
}

// TokenSource yields the current access token, empty when logged out.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

type bearerToken struct {
	src TokenSource
}

// BearerToken attaches "Authorization: Bearer <token>" to every call except
// the auth endpoints and calls marked SkipAuth.
func BearerToken(src TokenSource) Interceptor {
	return bearerToken{src: src}
}

func (b bearerToken) BeforeRequest(call *Call, req *http.Request) error {
	if call.SkipAuth || IsAuthEndpoint(call.Path) {
		req.Header.Del("Authorization")
		return nil
	}
	if tok := b.src.AccessToken(req.Context()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return nil
}

func (bearerToken) AfterResponse(_ context.Context, _ Sender, _ *Call, resp *http.Response) (*http.Response, error) {
	return resp, nil
}

type refreshOnUnauthorized struct {
	refresh func(ctx context.Context) bool
	expired func(ctx context.Context)
}

// RefreshOnUnauthorized recovers a 401 by calling refresh once and resending
// the call. When refresh fails, expired runs and the 401 is returned as-is,
// marked so the caller sees ErrSessionExpired. Auth endpoints and SkipAuth
// calls pass through untouched.
func RefreshOnUnauthorized(refresh func(ctx context.Context) bool, expired func(ctx context.Context)) Interceptor {
	return refreshOnUnauthorized{refresh: refresh, expired: expired}
}

func (refreshOnUnauthorized) BeforeRequest(*Call, *http.Request) error { return nil }

func (r refreshOnUnauthorized) AfterResponse(ctx context.Context, s Sender, call *Call, resp *http.Response) (*http.Response, error) {
	if resp.StatusCode != http.StatusUnauthorized || call.Retried || call.SkipAuth || IsAuthEndpoint(call.Path) {
		return resp, nil
	}
	call.Retried = true

	if r.refresh(ctx) {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // drain for connection reuse
		resp.Body.Close()                                     //nolint:errcheck
		return s.Send(ctx, call)
	}

	call.SessionExpired = true
	if r.expired != nil {
		r.expired(ctx)
	}
	return resp, nil
}

type requestID struct{}

// RequestID stamps each attempt with a fresh X-Request-ID.
func RequestID() Interceptor {
	return requestID{}
}

func (requestID) BeforeRequest(_ *Call, req *http.Request) error {
	req.Header.Set("X-Request-ID", uuid.NewString())
	return nil
}

func (requestID) AfterResponse(_ context.Context, _ Sender, _ *Call, resp *http.Response) (*http.Response, error) {
	return resp, nil
}

type rateLimit struct {
	limiter *rate.Limiter
}

// RateLimit blocks each attempt until limiter admits it.
func RateLimit(limiter *rate.Limiter) Interceptor {
	return rateLimit{limiter: limiter}
}

func (r rateLimit) BeforeRequest(_ *Call, req *http.Request) error {
	if err := r.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

func (rateLimit) AfterResponse(_ context.Context, _ Sender, _ *Call, resp *http.Response) (*http.Response, error) {
	return resp, nil
}
