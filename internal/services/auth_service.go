package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// SessionWriter is the part of the session store the auth flows mutate
type SessionWriter interface {
	SetSession(ctx context.Context, token string, user *core.User) error
	UpdateUser(ctx context.Context, patch core.User) error
	Logout(ctx context.Context) error
	User() *core.User
}

type AuthGateway interface {
	Login(ctx context.Context, creds core.Credentials) (*api.AuthResult, error)
	Register(ctx context.Context, reg core.Registration) (*api.AuthResult, error)
	Me(ctx context.Context) (*core.User, error)
}

// AuthService signs users in and out of the session store
type AuthService struct {
	gw      AuthGateway
	session SessionWriter
	logger  *log.Logger
}

func NewAuthService(gw AuthGateway, session SessionWriter, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuthService{gw: gw, session: session, logger: logger.WithComponent(log.ComponentSession)}
}

func (s *AuthService) Login(ctx context.Context, creds core.Credentials) (*core.User, error) {
	res, err := s.gw.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, res)
}

func (s *AuthService) Register(ctx context.Context, reg core.Registration) (*core.User, error) {
	res, err := s.gw.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, res)
}

func (s *AuthService) establish(ctx context.Context, res *api.AuthResult) (*core.User, error) {
	if res == nil || res.Token == "" {
		return nil, errors.New("backend returned no token")
	}
	if err := s.session.SetSession(ctx, res.Token, res.User); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.logger.InfoContext(ctx, "Signed in")
	return res.User.Clone(), nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// RefreshUser re-reads the profile behind the current token
func (s *AuthService) RefreshUser(ctx context.Context) (*core.User, error) {
	u, err := s.gw.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if err := s.session.UpdateUser(ctx, *u); err != nil {
		return nil, err
	}
	return s.session.User(), nil
}
