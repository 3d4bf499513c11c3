// Package session persists the client's authentication state: access token,
// refresh token and the cached user profile.
//
// The Store enforces the session semantics; a Backend only moves strings in
// and out of durable storage. Three backends exist: in-memory (tests), a JSON
// file (default) and sqlite.
package session

import (
	"context"
	"fmt"
)

// Keys under which the three session fields are persisted.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserData     = "userData"
)

var allKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserData}

// Backend is string-keyed persistent storage.
//
// SetMany must apply all values or none.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Backend kinds accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds the backend named by kind. The returned close func is never nil.
func Open(ctx context.Context, kind, path string) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case BackendFile, "":
		return NewFileBackend(path), noop, nil
	case BackendSQLite:
		b, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	case BackendMemory:
		return NewMemoryBackend(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", kind)
	}
}
