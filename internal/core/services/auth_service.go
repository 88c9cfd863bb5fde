package services

import (
	"context"
	"strings"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports"
)

const registeredMessage = "Registration successful. Please log in."

// AuthService performs login and registration against the backend and
// normalizes the results
type AuthService struct {
	api    ports.AuthAPI
	policy *SessionPolicy
}

// NewAuthService creates a new auth service
func NewAuthService(api ports.AuthAPI, policy *SessionPolicy) *AuthService {
	return &AuthService{
		api:    api,
		policy: policy,
	}
}

// Authenticate validates the input locally, then issues exactly one login or
// register request. A successful login carries a new session which the caller
// must persist; a successful registration carries none.
func (s *AuthService) Authenticate(ctx context.Context, mode domain.AuthMode, email, password string) (*domain.AuthResult, error) {
	if mode != domain.ModeLogin && mode != domain.ModeRegister {
		return nil, domain.NewValidationError("authenticate", "mode", "mode must be 'login' or 'register'")
	}

	creds := domain.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	creds = creds.Normalized()

	if mode == domain.ModeRegister {
		if _, err := s.api.Register(ctx, creds); err != nil {
			return nil, s.policy.Observe(nil, err)
		}
		// The backend may hand out a token here too; it is ignored on purpose
		return &domain.AuthResult{
			Mode:    domain.ModeRegister,
			Message: registeredMessage,
		}, nil
	}

	token, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, s.policy.Observe(nil, err)
	}
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return nil, domain.WrapError(domain.ErrServer, "login", "The server did not return an access token.", nil)
	}
	if token.TokenType != "" && !strings.EqualFold(token.TokenType, "bearer") {
		return nil, domain.WrapError(domain.ErrServer, "login", "Unsupported token type: "+token.TokenType, nil)
	}

	session, err := domain.NewSession(token.AccessToken, creds.Email)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResult{
		Mode:    domain.ModeLogin,
		Session: session,
		Message: "Logged in as " + creds.Email,
	}, nil
}

// WhoAmI asks the backend which account the session belongs to
func (s *AuthService) WhoAmI(ctx context.Context, session *domain.Session) (string, error) {
	if !session.Present() {
		return "", authRequired("whoami")
	}
	email, err := s.api.Me(ctx, session.Token)
	if err != nil {
		return "", s.policy.Observe(session, err)
	}
	return email, nil
}

func authRequired(op string) error {
	return domain.WrapError(domain.ErrAuthRequired, op, "You need to log in first.", nil)
}
