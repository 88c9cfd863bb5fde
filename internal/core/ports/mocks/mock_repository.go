package mocks

import (
	"errors"
	"sync"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

// MockSessionStore is an in-memory SessionStore for testing.
// Two services sharing one instance behave like two runs of the app
// sharing the same session file.
type MockSessionStore struct {
	mu         sync.RWMutex
	session    *domain.Session
	saveErr    error
	clearErr   error
	saveCalls  int
	clearCalls int
}

// NewMockSessionStore creates an empty store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{}
}

// Load returns a copy of the stored session
func (m *MockSessionStore) Load() (*domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.session.Present() {
		return nil, false
	}
	s := *m.session
	return &s, true
}

// Save stores a copy of session
func (m *MockSessionStore) Save(session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	if !session.Present() {
		return errors.New("cannot save an empty session")
	}
	s := *session
	m.session = &s
	return nil
}

// Clear removes the session; clearing an empty store is a no-op
func (m *MockSessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearCalls++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.session = nil
	return nil
}

// Seed stores a session without counting a Save call
func (m *MockSessionStore) Seed(token, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &domain.Session{Token: token, Email: email}
}

// SetSaveError makes subsequent Save calls fail
func (m *MockSessionStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// SetClearError makes subsequent Clear calls fail
func (m *MockSessionStore) SetClearError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearErr = err
}

// SaveCalls returns how many times Save was called
func (m *MockSessionStore) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

// ClearCalls returns how many times Clear was called
func (m *MockSessionStore) ClearCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clearCalls
}
