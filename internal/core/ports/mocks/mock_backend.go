package mocks

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

// MockBackend implements AuthAPI, DocumentAPI and HealthChecker in memory. Tokens map to
// users and documents are kept per user, like the real service.
type MockBackend struct {
	mu        sync.Mutex
	users     map[string]string // email -> password
	tokens    map[string]string // token -> email
	documents map[string][]domain.Document
	nextToken int
	nextDocID int

	shouldFail bool
	failErr    error
	calls      []string
}

// NewMockBackend creates an empty backend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		users:     make(map[string]string),
		tokens:    make(map[string]string),
		documents: make(map[string][]domain.Document),
	}
}

// Register creates an account and, like the backend, returns a token
func (m *MockBackend) Register(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "register")
	if m.shouldFail {
		return nil, m.failErr
	}
	if _, exists := m.users[creds.Email]; exists {
		return nil, &domain.Error{Kind: domain.ErrAuthRejected, Op: "register", Status: 400, Message: "Email already registered"}
	}
	m.users[creds.Email] = creds.Password
	return &domain.TokenResponse{AccessToken: m.issueLocked(creds.Email), TokenType: "bearer"}, nil
}

// Login returns a fresh token for valid credentials
func (m *MockBackend) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "login")
	if m.shouldFail {
		return nil, m.failErr
	}
	if pw, ok := m.users[creds.Email]; !ok || pw != creds.Password {
		return nil, &domain.Error{Kind: domain.ErrAuthRejected, Op: "login", Status: 401, Message: "Incorrect email or password"}
	}
	return &domain.TokenResponse{AccessToken: m.issueLocked(creds.Email), TokenType: "bearer"}, nil
}

// Me returns the email behind token
func (m *MockBackend) Me(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "me")
	if m.shouldFail {
		return "", m.failErr
	}
	email, err := m.userLocked(token)
	if err != nil {
		return "", err
	}
	return email, nil
}

// ListDocuments returns the token owner's documents
func (m *MockBackend) ListDocuments(ctx context.Context, token string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "list")
	if m.shouldFail {
		return nil, m.failErr
	}
	email, err := m.userLocked(token)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(m.documents[email]))
	copy(docs, m.documents[email])
	return docs, nil
}

// UploadDocument stores the file for the token owner
func (m *MockBackend) UploadDocument(ctx context.Context, token string, file *domain.UploadFile) (*domain.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "upload")
	if m.shouldFail {
		return nil, m.failErr
	}
	email, err := m.userLocked(token)
	if err != nil {
		return nil, err
	}

	n, err := io.Copy(io.Discard, file.Content)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransport, "upload", "read failed", err)
	}

	m.nextDocID++
	path := fmt.Sprintf("uploads/%s/%s", email, file.Name)
	m.documents[email] = append(m.documents[email], domain.Document{
		ID:         strconv.Itoa(m.nextDocID),
		Filename:   file.Name,
		Size:       n,
		UploadedAt: time.Now(),
		Path:       path,
	})
	return &domain.UploadResult{Filename: file.Name, Path: path, Message: "File uploaded successfully"}, nil
}

// Ping succeeds unless the backend is set to fail
func (m *MockBackend) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "ping")
	if m.shouldFail {
		return m.failErr
	}
	return nil
}

// AddUser registers an account directly
func (m *MockBackend) AddUser(email, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[email] = password
}

// IssueToken creates a valid token for email without recording a call
func (m *MockBackend) IssueToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issueLocked(email)
}

// RevokeToken makes subsequent calls with token fail with 401
func (m *MockBackend) RevokeToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

// SetShouldFail makes every call return err
func (m *MockBackend) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failErr = err
}

// GetCalls returns the names of all calls made so far
func (m *MockBackend) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Reset clears the recorded calls
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.shouldFail = false
	m.failErr = nil
}

func (m *MockBackend) issueLocked(email string) string {
	m.nextToken++
	token := fmt.Sprintf("token-%d", m.nextToken)
	m.tokens[token] = email
	return token
}

func (m *MockBackend) userLocked(token string) (string, error) {
	email, ok := m.tokens[token]
	if !ok {
		return "", &domain.Error{Kind: domain.ErrSessionInvalid, Op: "request", Status: 401, Message: "Could not validate credentials"}
	}
	return email, nil
}
