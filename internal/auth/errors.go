package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/aada-edu/aada/pkg/client"
)

// Kind classifies a translated error.
type Kind int

const (
	// KindServer means the API answered with a non-2xx status.
	KindServer Kind = iota + 1
	// KindTransport means the API could not be reached in time or at all.
	KindTransport
	// KindUnexpected is everything else.
	KindUnexpected
)

// User-facing messages for failures without a server detail.
const (
	MsgTimeout     = "Connection timeout. Please check your internet connection."
	MsgUnreachable = "Unable to connect to server. Please try again later."
	MsgUnexpected  = "An unexpected error occurred. Please try again."
)

// Error is the normalized error returned by every throwing Service operation.
// Error() is safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Translate normalizes err into an *Error. It returns nil for nil.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Detail
		if msg == "" {
			msg = fmt.Sprintf("Server error: %d", httpErr.StatusCode)
		}
		return &Error{Kind: KindServer, Message: msg, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransport, Message: MsgTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTransport, Message: MsgTimeout, Err: err}
	}
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return &Error{Kind: KindTransport, Message: MsgUnreachable, Err: err}
	}

	return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}
