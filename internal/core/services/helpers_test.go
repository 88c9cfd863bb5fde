package services

import (
	"strings"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports/mocks"
)

type testStack struct {
	store   *mocks.MockSessionStore
	backend *mocks.MockBackend
	policy  *SessionPolicy
	auth    *AuthService
	docs    *DocumentService
}

func newTestStack(opts ...DocumentOption) *testStack {
	store := mocks.NewMockSessionStore()
	backend := mocks.NewMockBackend()
	return newTestStackWith(store, backend, opts...)
}

// newTestStackWith wires fresh services over an existing store and backend,
// which is how a restart of the app looks to the core.
func newTestStackWith(store *mocks.MockSessionStore, backend *mocks.MockBackend, opts ...DocumentOption) *testStack {
	policy := NewSessionPolicy(store)
	return &testStack{
		store:   store,
		backend: backend,
		policy:  policy,
		auth:    NewAuthService(backend, policy),
		docs:    NewDocumentService(backend, policy, opts...),
	}
}

func (s *testStack) controller() *Controller {
	return NewController(s.store, s.policy, s.auth, s.docs)
}

func textFile(name, body string) *domain.UploadFile {
	return &domain.UploadFile{
		Name:        name,
		Size:        int64(len(body)),
		ContentType: "application/pdf",
		Content:     strings.NewReader(body),
	}
}
