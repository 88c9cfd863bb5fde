package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

// DefaultListPath is where the backend serves the document list
const DefaultListPath = "/files/"

// Client talks to the DocuSage backend. It implements the auth, document
// and health ports; every call issues exactly one HTTP request.
type Client struct {
	baseURL    string
	listPath   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithListPath overrides the document list endpoint
func WithListPath(path string) Option {
	return func(c *Client) {
		if path = strings.TrimSpace(path); path != "" {
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			c.listPath = path
		}
	}
}

// New creates a client for baseURL
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		listPath:   DefaultListPath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	var out domain.TokenResponse
	err := c.send(ctx, request{
		op:       "login",
		method:   http.MethodPost,
		path:     "/auth/login",
		authCall: true,
	}, creds, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The response body may be empty.
func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	var out domain.TokenResponse
	err := c.send(ctx, request{
		op:         "register",
		method:     http.MethodPost,
		path:       "/auth/register",
		authCall:   true,
		allowEmpty: true,
	}, creds, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the email of the account that owns token
func (c *Client) Me(ctx context.Context, token string) (string, error) {
	var out struct {
		Email string `json:"email"`
	}
	err := c.send(ctx, request{
		op:     "whoami",
		method: http.MethodGet,
		path:   "/auth/me",
		token:  token,
	}, nil, &out)
	if err != nil {
		return "", err
	}
	if out.Email == "" {
		return "", domain.WrapError(domain.ErrServer, "whoami", "The server response did not include an email.", nil)
	}
	return out.Email, nil
}

// Ping checks that the backend answers on its root endpoint
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Message string `json:"message"`
	}
	return c.send(ctx, request{
		op:         "ping",
		method:     http.MethodGet,
		path:       "/",
		allowEmpty: true,
	}, nil, &out)
}
