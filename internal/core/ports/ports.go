package ports

import (
	"context"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

// SessionStore is the single authority for authentication presence
type SessionStore interface {
	// Load returns the persisted session. It never fails: missing or
	// malformed data is reported as no session.
	Load() (*domain.Session, bool)

	// Save persists the session; a following Load observes the same values
	Save(session *domain.Session) error

	// Clear removes all persisted session data. Clearing an empty store is a no-op.
	Clear() error
}

// AuthAPI defines the port for the backend's authentication endpoints.
// Each call issues exactly one request.
type AuthAPI interface {
	// Login exchanges credentials for an access token
	Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error)

	// Register creates a new account
	Register(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error)

	// Me returns the email the token was issued for
	Me(ctx context.Context, token string) (string, error)
}

// DocumentAPI defines the port for the backend's file endpoints
type DocumentAPI interface {
	// ListDocuments returns the documents owned by the token's user
	ListDocuments(ctx context.Context, token string) ([]domain.Document, error)

	// UploadDocument sends one file as a multipart form
	UploadDocument(ctx context.Context, token string, file *domain.UploadFile) (*domain.UploadResult, error)
}

// HealthChecker reports whether the backend answers at all
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// UploadHistory records which local files were uploaded by which account
type UploadHistory interface {
	Record(ctx context.Context, rec domain.UploadRecord) error
	FindByHash(ctx context.Context, account, hash string) (*domain.UploadRecord, bool)
	List(ctx context.Context) ([]domain.UploadRecord, error)
}
