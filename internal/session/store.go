package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aada-edu/aada/internal/logging"
	"github.com/aada-edu/aada/pkg/domain"
)

// Store is the single source of truth for the persisted session.
//
// Contract:
//   - Save writes all three fields in one backend call.
//   - UpdateAccessToken leaves the refresh token and user untouched.
//   - Clear removes all three fields.
//   - Empty stored strings read back as absent.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	log     logging.Logger
}

func NewStore(backend Backend, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{backend: backend, log: log}
}

// Save persists a freshly issued session.
func (s *Store) Save(ctx context.Context, accessToken, refreshToken string, user *domain.User) error {
	userData := ""
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("session.Save: marshal user: %w", err)
		}
		userData = string(raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.backend.SetMany(ctx, map[string]string{
		KeyAccessToken:  accessToken,
		KeyRefreshToken: refreshToken,
		KeyUserData:     userData,
	})
	if err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	return nil
}

// UpdateAccessToken replaces only the access token.
func (s *Store) UpdateAccessToken(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.SetMany(ctx, map[string]string{KeyAccessToken: accessToken}); err != nil {
		return fmt.Errorf("session.UpdateAccessToken: %w", err)
	}
	return nil
}

// Clear removes every session field.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, allKeys...); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token or "". Backend failures are
// logged and read as "no token".
func (s *Store) AccessToken(ctx context.Context) string {
	return s.read(ctx, KeyAccessToken)
}

func (s *Store) RefreshToken(ctx context.Context) string {
	return s.read(ctx, KeyRefreshToken)
}

// IsLoggedIn reports whether an access token is present. It does not check
// expiry.
func (s *Store) IsLoggedIn(ctx context.Context) bool {
	return s.AccessToken(ctx) != ""
}

// User returns the cached profile, or nil when absent or unparseable.
func (s *Store) User(ctx context.Context) *domain.User {
	return s.decodeUser(ctx, s.read(ctx, KeyUserData))
}

// Snapshot reads the whole session under one read lock, so a concurrent Save
// is seen either entirely or not at all.
func (s *Store) Snapshot(ctx context.Context) domain.Session {
	s.mu.RLock()
	access := s.get(ctx, KeyAccessToken)
	refresh := s.get(ctx, KeyRefreshToken)
	raw := s.get(ctx, KeyUserData)
	s.mu.RUnlock()
	return domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         s.decodeUser(ctx, raw),
	}
}

func (s *Store) decodeUser(ctx context.Context, raw string) *domain.User {
	if raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn(ctx, "stored user data is corrupt", "error", err)
		return nil
	}
	return &u
}

func (s *Store) read(ctx context.Context, key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, key)
}

// get reads one key. Callers hold s.mu.
func (s *Store) get(ctx context.Context, key string) string {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "session read failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
