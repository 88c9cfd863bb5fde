package domain

import (
	"net/mail"
	"strings"
)

// Session is the authenticated-user context, keyed by a bearer token.
// Email is only ever set together with Token.
type Session struct {
	Token string `json:"access_token"`
	Email string `json:"email,omitempty"`
}

// NewSession creates a session for a freshly issued token
func NewSession(token, email string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewValidationError("session", "token", "access token cannot be empty")
	}
	return &Session{
		Token: token,
		Email: strings.TrimSpace(email),
	}, nil
}

// Present reports whether the session carries a usable token.
// Safe to call on a nil session.
func (s *Session) Present() bool {
	return s != nil && strings.TrimSpace(s.Token) != ""
}

// BearerHeader returns the Authorization header value for the session
func (s *Session) BearerHeader() string {
	if !s.Present() {
		return ""
	}
	return "Bearer " + s.Token
}

// AuthMode selects between login and registration
type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

// ParseAuthMode converts user input into an AuthMode
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLogin:
		return ModeLogin, nil
	case ModeRegister:
		return ModeRegister, nil
	default:
		return "", NewValidationError("authenticate", "mode", "mode must be 'login' or 'register'")
	}
}

// Credentials is the request body for /auth/login and /auth/register
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks credentials before any network access.
// The first offending field is reported.
func (c Credentials) Validate() error {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return NewValidationError("authenticate", "email", "Email is required")
	}
	if !looksLikeEmail(email) {
		return NewValidationError("authenticate", "email", "Enter a valid email address")
	}
	if strings.TrimSpace(c.Password) == "" {
		return NewValidationError("authenticate", "password", "Password is required")
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace removed from the email
func (c Credentials) Normalized() Credentials {
	return Credentials{
		Email:    strings.TrimSpace(c.Email),
		Password: c.Password,
	}
}

func looksLikeEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	domainPart := s[at+1:]
	return strings.Contains(domainPart, ".") &&
		!strings.HasPrefix(domainPart, ".") &&
		!strings.HasSuffix(domainPart, ".")
}

// TokenResponse is the payload returned by /auth/login and /auth/register
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthResult is the normalized outcome of a successful authenticate call.
// Session is nil for registrations: the user must log in afterwards.
type AuthResult struct {
	Mode    AuthMode
	Session *Session
	Message string
}
