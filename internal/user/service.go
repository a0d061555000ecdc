package user

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/SultokTheF/uiren-mobile/internal/api"
	"github.com/SultokTheF/uiren-mobile/internal/logger"
	"github.com/SultokTheF/uiren-mobile/internal/session"
)

const (
	loginPath         = "user/login/"
	registerPath      = "user/users/"
	profilePath       = "user/user/"
	passwordResetPath = "user/password-reset/"
)

type Service struct {
	client   api.Doer
	sessions session.Store
	validate *validator.Validate
}

func NewService(client api.Doer, sessions session.Store) *Service {
	return &Service{
		client:   client,
		sessions: sessions,
		validate: validator.New(),
	}
}

// Login exchanges credentials for a token pair and persists both.
func (s *Service) Login(ctx context.Context, email, password string) error {
	var tokens loginResponse
	err := s.client.Post(ctx, loginPath, map[string]string{
		"email":    email,
		"password": password,
	}, &tokens)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.sessions.SetTokens(ctx, tokens.Access, tokens.Refresh); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	logger.Infof("Logged in as %s", email)
	return nil
}

// Logout clears both tokens. The backend keeps no session state to tear down.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid registration data: %w", err)
	}
	if err := s.client.Post(ctx, registerPath, req, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// Current fetches the authenticated user's profile.
func (s *Service) Current(ctx context.Context) (*User, error) {
	var u User
	if err := s.client.Get(ctx, profilePath, nil, &u); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &u, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := s.client.Post(ctx, passwordResetPath, map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("password reset request failed: %w", err)
	}
	return nil
}
