package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports"
)

// State is the authentication state of the client
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Reason explains why a transition happened
type Reason int

const (
	ReasonStartup Reason = iota
	ReasonSubmit
	ReasonLogin
	ReasonRegistered
	ReasonAuthFailed
	ReasonLogout
	ReasonForcedLogout
	ReasonExternal
)

func (r Reason) String() string {
	switch r {
	case ReasonSubmit:
		return "submit"
	case ReasonLogin:
		return "login"
	case ReasonRegistered:
		return "registered"
	case ReasonAuthFailed:
		return "auth-failed"
	case ReasonLogout:
		return "logout"
	case ReasonForcedLogout:
		return "forced-logout"
	case ReasonExternal:
		return "external"
	default:
		return "startup"
	}
}

// Transition is published to subscribers on every state change
type Transition struct {
	From    State
	To      State
	Reason  Reason
	Message string
}

var (
	// ErrBusy is returned when an authentication or upload attempt is already in flight
	ErrBusy = domain.NewValidationError("controller", "", "Another request is already in progress")
)

const sessionExpiredMessage = "Your session has expired. Please log in again."

// Controller is the authority over authentication state. Renderers read
// its state and subscribe to transitions instead of tracking auth themselves.
type Controller struct {
	store ports.SessionStore
	auth  *AuthService
	docs  *DocumentService

	mu          sync.Mutex
	state       State
	session     *domain.Session
	uploading   bool
	subscribers map[int]func(Transition)
	nextSubID   int
}

// NewController builds a controller whose initial state follows the store
func NewController(store ports.SessionStore, policy *SessionPolicy, auth *AuthService, docs *DocumentService) *Controller {
	c := &Controller{
		store:       store,
		auth:        auth,
		docs:        docs,
		state:       StateAnonymous,
		subscribers: make(map[int]func(Transition)),
	}
	if session, ok := store.Load(); ok {
		c.state = StateAuthenticated
		c.session = session
	}
	policy.OnForcedLogout(c.forcedLogout)
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the current session, or nil
func (c *Controller) Session() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Busy reports whether an authentication or upload attempt is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateAuthenticating || c.uploading
}

// Subscribe registers fn for every transition. The returned function
// removes the subscription.
func (c *Controller) Subscribe(fn func(Transition)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Submit runs a login or registration. Only valid from Anonymous.
func (c *Controller) Submit(ctx context.Context, mode domain.AuthMode, email, password string) (*domain.AuthResult, error) {
	c.mu.Lock()
	switch c.state {
	case StateAuthenticating:
		c.mu.Unlock()
		return nil, ErrBusy
	case StateAuthenticated:
		who := "someone"
		if c.session != nil && c.session.Email != "" {
			who = c.session.Email
		}
		c.mu.Unlock()
		return nil, domain.NewValidationError("authenticate", "",
			fmt.Sprintf("Already logged in as %s. Log out first.", who))
	}
	// claim the attempt before unlocking so a concurrent Submit sees it
	from := c.state
	c.state = StateAuthenticating
	c.session = nil
	subs := c.subscribersLocked()
	c.mu.Unlock()

	publish(subs, Transition{From: from, To: StateAuthenticating, Reason: ReasonSubmit})

	result, err := c.auth.Authenticate(ctx, mode, email, password)
	if err != nil {
		c.transition(StateAnonymous, nil, ReasonAuthFailed, domain.Message(err))
		return nil, err
	}

	if result.Session == nil {
		c.transition(StateAnonymous, nil, ReasonRegistered, result.Message)
		return result, nil
	}

	if err := c.store.Save(result.Session); err != nil {
		c.transition(StateAnonymous, nil, ReasonAuthFailed, "Could not save the session")
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	c.transition(StateAuthenticated, result.Session, ReasonLogin, result.Message)
	return result, nil
}

// Logout clears the session. Safe to call in any state.
func (c *Controller) Logout() error {
	err := c.store.Clear()
	if err != nil {
		err = fmt.Errorf("failed to clear session: %w", err)
	}

	c.mu.Lock()
	changed := c.state == StateAuthenticated
	c.mu.Unlock()

	if changed {
		c.transition(StateAnonymous, nil, ReasonLogout, "Logged out")
	}
	return err
}

// Documents fetches a fresh copy of the session's documents
func (c *Controller) Documents(ctx context.Context) ([]domain.Document, error) {
	return c.docs.List(ctx, c.Session())
}

// Upload sends one file. A second upload while one is in flight is refused.
func (c *Controller) Upload(ctx context.Context, file *domain.UploadFile) (*domain.UploadResult, error) {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.uploading = true
	var session *domain.Session
	if c.session != nil {
		s := *c.session
		session = &s
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
	}()

	return c.docs.Upload(ctx, session, file)
}

// UploadAndRefresh uploads a file and then refetches the document list so
// the result reflects the backend rather than a local patch
func (c *Controller) UploadAndRefresh(ctx context.Context, file *domain.UploadFile) (*domain.UploadResult, []domain.Document, error) {
	result, err := c.Upload(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	docs, err := c.Documents(ctx)
	if err != nil {
		return result, nil, err
	}
	return result, docs, nil
}

// WhoAmI asks the backend for the account behind the session
func (c *Controller) WhoAmI(ctx context.Context) (string, error) {
	return c.auth.WhoAmI(ctx, c.Session())
}

// Sync reconciles in-memory state with the store after it changed
// outside this controller, e.g. another process logged in or out.
func (c *Controller) Sync() {
	stored, ok := c.store.Load()

	c.mu.Lock()
	state := c.state
	current := c.session
	c.mu.Unlock()

	if state == StateAuthenticating {
		return
	}

	switch {
	case ok && (state != StateAuthenticated || current == nil || current.Token != stored.Token):
		c.transition(StateAuthenticated, stored, ReasonExternal, "Session changed")
	case !ok && state == StateAuthenticated:
		c.transition(StateAnonymous, nil, ReasonExternal, "Logged out elsewhere")
	}
}

func (c *Controller) forcedLogout(rejected *domain.Session) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	if rejected.Present() && c.session != nil && c.session.Token != rejected.Token {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.transition(StateAnonymous, nil, ReasonForcedLogout, sessionExpiredMessage)
}

func (c *Controller) transition(to State, session *domain.Session, reason Reason, message string) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.session = session
	subs := c.subscribersLocked()
	c.mu.Unlock()

	publish(subs, Transition{From: from, To: to, Reason: reason, Message: message})
}

func (c *Controller) subscribersLocked() []func(Transition) {
	subs := make([]func(Transition), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

// publish must run without c.mu held; subscribers may call back into the controller
func publish(subs []func(Transition), t Transition) {
	for _, fn := range subs {
		fn(t)
	}
}
