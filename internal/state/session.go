package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// SessionStore owns the bearer token and the signed-in user. It is the only
// writer of the session; every other component reads through it.
type SessionStore struct {
	mu        sync.RWMutex
	session   core.Session
	persister Persister
	logger    *log.Logger
	subs      subscribers[core.Session]
	now       func() time.Time
}

// SessionOption customizes a SessionStore
type SessionOption func(*SessionStore)

// WithClock overrides the clock used for token expiry checks
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore loads the persisted session. A stored token whose JWT exp
// claim is already in the past is dropped and the cleared state is saved.
func NewSessionStore(ctx context.Context, p Persister, logger *log.Logger, opts ...SessionOption) (*SessionStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	s := &SessionStore{
		persister: p,
		logger:    logger.WithComponent(log.ComponentSession),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	found, err := loadState(ctx, p, SessionNamespace, &s.session)
	if err != nil {
		return nil, err
	}
	if found && s.session.Token != "" && tokenExpired(s.session.Token, s.now()) {
		s.logger.InfoContext(ctx, "Discarding expired session token")
		s.session = core.Session{}
		if err := saveState(ctx, p, SessionNamespace, s.session); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// tokenExpired reads the exp claim without verifying the signature. Tokens that
// are not JWTs or carry no exp are treated as live.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Snapshot returns a copy of the current session
func (s *SessionStore) Snapshot() core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Session{Token: s.session.Token, User: s.session.User.Clone()}
}

// Token returns the bearer token, empty when signed out
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// User returns a copy of the signed-in user, or nil
func (s *SessionStore) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.User.Clone()
}

func (s *SessionStore) IsAuthenticated() bool {
	return s.Token() != ""
}

// SetSession stores the result of a successful login or registration
func (s *SessionStore) SetSession(ctx context.Context, token string, user *core.User) error {
	if token == "" {
		return errors.New("session token cannot be empty")
	}
	return s.mutate(ctx, func(cur *core.Session) bool {
		cur.Token = token
		cur.User = user.Clone()
		return true
	})
}

// UpdateUser merges non-zero fields of patch into the current user. It is a
// no-op when nobody is signed in.
func (s *SessionStore) UpdateUser(ctx context.Context, patch core.User) error {
	return s.mutate(ctx, func(cur *core.Session) bool {
		if cur.User == nil {
			return false
		}
		if patch.Name != "" {
			cur.User.Name = patch.Name
		}
		if patch.Email != "" {
			cur.User.Email = patch.Email
		}
		if patch.Currency != "" {
			cur.User.Currency = patch.Currency
		}
		if patch.Avatar != nil {
			a := *patch.Avatar
			cur.User.Avatar = &a
		}
		return true
	})
}

// Logout clears the token and the user
func (s *SessionStore) Logout(ctx context.Context) error {
	return s.mutate(ctx, func(cur *core.Session) bool {
		if cur.Token == "" && cur.User == nil {
			return false
		}
		*cur = core.Session{}
		return true
	})
}

// Subscribe registers fn to receive a copy of the session after each mutation
func (s *SessionStore) Subscribe(fn func(core.Session)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// mutate applies fn under the write lock, then persists and broadcasts. The
// in-memory state stays updated even when the save fails.
func (s *SessionStore) mutate(ctx context.Context, fn func(*core.Session) bool) error {
	s.mu.Lock()
	if !fn(&s.session) {
		s.mu.Unlock()
		return nil
	}
	snapshot := core.Session{Token: s.session.Token, User: s.session.User.Clone()}
	err := saveState(ctx, s.persister, SessionNamespace, snapshot)
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist session", log.FieldError, err)
	}
	s.subs.notify(snapshot)
	return err
}
