// Package auth implements the account operations of the aada client on top
// of pkg/client and the persisted session.
package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/aada-edu/aada/internal/logging"
	"github.com/aada-edu/aada/internal/session"
	"github.com/aada-edu/aada/pkg/client"
	"github.com/aada-edu/aada/pkg/domain"
)

// Options configures the HTTP pipeline built by New.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Limiter throttles outgoing attempts; nil disables throttling.
	Limiter *rate.Limiter
	// Metrics records every attempt; nil disables instrumentation.
	Metrics *client.Metrics
	// OnSessionExpired runs after an unrecoverable 401 has cleared the session.
	OnSessionExpired func()
}

// Service is the auth API used by the UI.
//
// Contract:
//   - Register, Login, GetUserDocuments and UploadRegistrationDocument return
//     an *Error on failure.
//   - GetCurrentUser, VerifyEmail, ForgotPassword and ResetPassword never
//     return an error; nil or false is the only failure signal.
//   - Logout never fails.
type Service struct {
	client    *client.Client
	store     *session.Store
	log       logging.Logger
	refreshes singleflight.Group
	onExpired func()
	timeout   time.Duration
}

func New(store *session.Store, log logging.Logger, opts Options) *Service {
	if log == nil {
		log = logging.Nop()
	}
	s := &Service{
		store:     store,
		log:       log.With("component", "auth"),
		onExpired: opts.OnSessionExpired,
		timeout:   client.DefaultTimeout,
	}
	if opts.Timeout > 0 {
		s.timeout = opts.Timeout
	}

	ics := []client.Interceptor{client.RequestID()}
	if opts.Limiter != nil {
		ics = append(ics, client.RateLimit(opts.Limiter))
	}
	ics = append(ics,
		client.BearerToken(store),
		client.RefreshOnUnauthorized(s.refresh, s.expire),
	)
	if opts.Metrics != nil {
		ics = append(ics, opts.Metrics)
	}

	copts := []client.Option{client.WithInterceptors(ics...)}
	if opts.HTTPClient != nil {
		copts = append(copts, client.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Timeout > 0 {
		copts = append(copts, client.WithTimeout(opts.Timeout))
	}
	s.client = client.New(opts.BaseURL, copts...)
	return s
}

// Register creates an account. It does not touch the session.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	user, err := s.client.Register(ctx, req)
	if err != nil {
		s.log.Warn(ctx, "register failed", "error", err)
		return nil, Translate(err)
	}
	s.log.Info(ctx, "account registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates and replaces the stored session.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.log.Warn(ctx, "login failed", "error", err)
		return nil, Translate(err)
	}
	if err := s.store.Save(ctx, resp.AccessToken, resp.RefreshToken, &resp.User); err != nil {
		s.log.Error(ctx, "persist session failed", "error", err)
		return nil, Translate(err)
	}
	s.log.Info(ctx, "logged in")
	return resp, nil
}

// refresh exchanges the stored refresh token for a new access token.
// Concurrent callers holding the same refresh token share one request. The
// shared request is detached from the caller that started it, so cancelling
// that caller does not fail the refresh for the others.
func (s *Service) refresh(ctx context.Context) bool {
	rt := s.store.RefreshToken(ctx)
	if rt == "" {
		s.log.Debug(ctx, "no refresh token stored")
		return false
	}
	v, _, _ := s.refreshes.Do(rt, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		resp, err := s.client.Refresh(ctx, rt)
		if err != nil {
			s.log.Warn(ctx, "token refresh failed", "error", err)
			return false, nil
		}
		if err := s.store.UpdateAccessToken(ctx, resp.AccessToken); err != nil {
			s.log.Error(ctx, "persist refreshed token failed", "error", err)
			return false, nil
		}
		s.log.Debug(ctx, "access token refreshed")
		return true, nil
	})
	ok, _ := v.(bool)
	return ok
}

func (s *Service) expire(ctx context.Context) {
	s.log.Warn(ctx, "session expired, clearing")
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error(ctx, "clear session failed", "error", err)
	}
	if s.onExpired != nil {
		s.onExpired()
	}
}

// GetCurrentUser fetches the profile of the logged-in user, nil on any failure.
func (s *Service) GetCurrentUser(ctx context.Context) *domain.User {
	user, err := s.client.Me(ctx)
	if err != nil {
		s.log.Warn(ctx, "get current user failed", "error", err)
		return nil
	}
	return user
}

func (s *Service) VerifyEmail(ctx context.Context, token string) bool {
	if err := s.client.VerifyEmail(ctx, token); err != nil {
		s.log.Warn(ctx, "verify email failed", "error", err)
		return false
	}
	return true
}

func (s *Service) ForgotPassword(ctx context.Context, email string) bool {
	if err := s.client.ForgotPassword(ctx, email); err != nil {
		s.log.Warn(ctx, "forgot password failed", "error", err)
		return false
	}
	return true
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) bool {
	if err := s.client.ResetPassword(ctx, token, newPassword); err != nil {
		s.log.Warn(ctx, "reset password failed", "error", err)
		return false
	}
	return true
}

// Logout clears the local session. There is no server call.
func (s *Service) Logout(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error(ctx, "clear session failed", "error", err)
		return
	}
	s.log.Info(ctx, "logged out")
}

// GetUserDocuments lists the documents of the logged-in user.
func (s *Service) GetUserDocuments(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.client.ListDocuments(ctx)
	if err != nil {
		s.log.Warn(ctx, "list documents failed", "error", err)
		return nil, Translate(err)
	}
	return docs, nil
}

// UploadRegistrationDocument attaches a file to a freshly registered account.
func (s *Service) UploadRegistrationDocument(ctx context.Context, up client.UploadRequest) (*domain.UploadedDocument, error) {
	doc, err := s.client.UploadRegistrationDocument(ctx, up)
	if err != nil {
		s.log.Warn(ctx, "upload registration document failed", "user_id", up.UserID, "error", err)
		return nil, Translate(err)
	}
	return doc, nil
}

func (s *Service) IsLoggedIn(ctx context.Context) bool {
	return s.store.IsLoggedIn(ctx)
}

// StoredUser returns the profile cached at login without a network call.
func (s *Service) StoredUser(ctx context.Context) *domain.User {
	return s.store.User(ctx)
}

// SessionExpiry reports when the stored access token expires, if it carries
// an exp claim.
func (s *Service) SessionExpiry(ctx context.Context) (time.Time, bool) {
	return session.TokenExpiry(s.store.AccessToken(ctx))
}
