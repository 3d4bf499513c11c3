package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/aada-edu/aada/pkg/domain"
)

// DefaultTimeout bounds every request, including the body read.
const DefaultTimeout = 30 * time.Second

// Call is one logical API request. Its body is kept as bytes so an
// interceptor can resend it.
type Call struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string

	// SkipAuth sends the call without a bearer token and without 401
	// recovery, for endpoints that authenticate by other means.
	SkipAuth bool

	// Retried is set once the call has been resent after a refresh.
	Retried bool
	// SessionExpired is set when the 401 recovery failed.
	SessionExpired bool
	// Started is the time the current attempt was handed to the transport.
	Started time.Time
}

// Client is the AADA API client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	interceptors []Interceptor
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithInterceptors appends interceptors to the pipeline.
func WithInterceptors(ics ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, ics...)
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var u domain.User
	if err := c.post(ctx, PathRegister, req, &u); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &u, nil
}

// Login exchanges credentials for a token pair and the user's profile.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	var lr domain.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, PathLogin, body, &lr); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &lr, nil
}

// Refresh mints a new access token from a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.RefreshResponse, error) {
	var rr domain.RefreshResponse
	if err := c.post(ctx, PathRefresh, map[string]string{"refresh_token": refreshToken}, &rr); err != nil {
		return nil, fmt.Errorf("client.Refresh: %w", err)
	}
	return &rr, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// VerifyEmail confirms an email address with the token from the verification mail.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	if err := c.post(ctx, "/auth/verify-email", map[string]string{"token": token}, nil); err != nil {
		return fmt.Errorf("client.VerifyEmail: %w", err)
	}
	return nil
}

// ForgotPassword asks the server to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if err := c.post(ctx, "/auth/forgot-password", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("client.ForgotPassword: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	if err := c.post(ctx, "/auth/reset-password", body, nil); err != nil {
		return fmt.Errorf("client.ResetPassword: %w", err)
	}
	return nil
}

// ListDocuments returns the authenticated user's uploaded documents.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	if err := c.get(ctx, "/documents/list", &docs); err != nil {
		return nil, fmt.Errorf("client.ListDocuments: %w", err)
	}
	return docs, nil
}

// UploadRequest is a registration document upload.
type UploadRequest struct {
	UserID       domain.ID
	DocumentType string
	FileName     string
	ContentType  string
	Content      io.Reader
}

// UploadRegistrationDocument sends a multipart form with file, document_type and user_id.
func (c *Client) UploadRegistrationDocument(ctx context.Context, up UploadRequest) (*domain.UploadedDocument, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.FileName))
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("client.UploadRegistrationDocument: create part: %w", err)
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, fmt.Errorf("client.UploadRegistrationDocument: copy file: %w", err)
	}
	if err := mw.WriteField("document_type", up.DocumentType); err != nil {
		return nil, fmt.Errorf("client.UploadRegistrationDocument: %w", err)
	}
	if err := mw.WriteField("user_id", up.UserID.String()); err != nil {
		return nil, fmt.Errorf("client.UploadRegistrationDocument: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.UploadRegistrationDocument: close form: %w", err)
	}

	// The account is not logged in yet; a stored session belongs to someone
	// else and must not be sent or expired by this upload.
	call := &Call{
		Method:      http.MethodPost,
		Path:        "/documents/upload-registration",
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
		SkipAuth:    true,
	}
	var doc domain.UploadedDocument
	if err := c.do(ctx, call, &doc); err != nil {
		return nil, fmt.Errorf("client.UploadRegistrationDocument: %w", err)
	}
	return &doc, nil
}

// Send issues call through the interceptor pipeline and returns the raw
// response. The caller owns resp.Body.
func (c *Client) Send(ctx context.Context, call *Call) (*http.Response, error) {
	var reqBody io.Reader
	if call.Body != nil {
		reqBody = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, c.baseURL+call.Path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}
	req.Header.Set("Accept", "application/json")

	for _, ic := range c.interceptors {
		if err := ic.BeforeRequest(call, req); err != nil {
			return nil, err
		}
	}

	call.Started = time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	for i := len(c.interceptors) - 1; i >= 0; i-- {
		next, err := c.interceptors[i].AfterResponse(ctx, c, call, resp)
		if err != nil {
			resp.Body.Close() //nolint:errcheck
			if next != nil && next != resp {
				next.Body.Close() //nolint:errcheck
			}
			return nil, err
		}
		resp = next
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	call := &Call{Method: method, Path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		call.Body = data
		call.ContentType = "application/json"
	}
	return c.do(ctx, call, out)
}

func (c *Client) do(ctx context.Context, call *Call, out any) error {
	resp, err := c.Send(ctx, call)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		httpErr := readHTTPError(resp)
		if call.SessionExpired {
			return fmt.Errorf("%w: %w", ErrSessionExpired, httpErr)
		}
		return httpErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func readHTTPError(resp *http.Response) *HTTPError {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(respBody),
		Body:       string(respBody),
	}
}
