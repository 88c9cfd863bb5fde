package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports"
)

// SessionPolicy is the single place that turns a rejected bearer token into
// a forced logout. Every auth and document client result passes through Observe.
type SessionPolicy struct {
	store ports.SessionStore

	mu       sync.Mutex
	handlers []func(rejected *domain.Session)
}

// NewSessionPolicy creates a policy bound to the given session store
func NewSessionPolicy(store ports.SessionStore) *SessionPolicy {
	return &SessionPolicy{store: store}
}

// OnForcedLogout registers fn to run after the store was cleared because the
// backend rejected a token.
func (p *SessionPolicy) OnForcedLogout(fn func(rejected *domain.Session)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, fn)
}

// Observe inspects the outcome of a call made with session and returns err
// unchanged (or joined with a clear failure). Only SessionInvalid has a side
// effect, and only when the rejected token is still the stored one, so a
// late 401 for an old token cannot destroy a newer session.
func (p *SessionPolicy) Observe(session *domain.Session, err error) error {
	if err == nil || !errors.Is(err, domain.ErrSessionInvalid) {
		return err
	}

	if current, ok := p.store.Load(); ok && session.Present() && current.Token != session.Token {
		return err
	}

	if clearErr := p.store.Clear(); clearErr != nil {
		return errors.Join(err, fmt.Errorf("failed to clear session: %w", clearErr))
	}

	p.mu.Lock()
	handlers := make([]func(*domain.Session), len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(session)
	}
	return err
}
