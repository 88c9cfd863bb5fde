package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports"
)

// DocumentService lists and uploads documents on behalf of a session
type DocumentService struct {
	api          ports.DocumentAPI
	policy       *SessionPolicy
	allowedTypes []string
	maxBytes     int64
}

// DocumentOption configures a DocumentService
type DocumentOption func(*DocumentService)

// WithAllowedTypes rejects uploads whose content type is not listed.
// An empty list allows everything.
func WithAllowedTypes(types []string) DocumentOption {
	return func(s *DocumentService) {
		s.allowedTypes = nil
		for _, t := range types {
			if t = normalizeContentType(t); t != "" {
				s.allowedTypes = append(s.allowedTypes, t)
			}
		}
	}
}

// WithMaxUploadBytes rejects uploads larger than n bytes. Zero disables the check.
func WithMaxUploadBytes(n int64) DocumentOption {
	return func(s *DocumentService) {
		s.maxBytes = n
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(api ports.DocumentAPI, policy *SessionPolicy, opts ...DocumentOption) *DocumentService {
	s := &DocumentService{
		api:    api,
		policy: policy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List fetches the documents owned by the session. Without a session no
// request is made.
func (s *DocumentService) List(ctx context.Context, session *domain.Session) ([]domain.Document, error) {
	if !session.Present() {
		return nil, authRequired("list documents")
	}
	docs, err := s.api.ListDocuments(ctx, session.Token)
	if err != nil {
		return nil, s.policy.Observe(session, err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// Upload sends one file as the session's user. Without a session no
// request is made and the file is not inspected.
func (s *DocumentService) Upload(ctx context.Context, session *domain.Session, file *domain.UploadFile) (*domain.UploadResult, error) {
	if !session.Present() {
		return nil, authRequired("upload")
	}
	if err := s.CheckFile(file); err != nil {
		return nil, err
	}

	result, err := s.api.UploadDocument(ctx, session.Token, file)
	if err != nil {
		return nil, s.policy.Observe(session, err)
	}
	if result.Filename == "" {
		result.Filename = file.Name
	}
	return result, nil
}

// CheckFile validates a selection without touching the network
func (s *DocumentService) CheckFile(file *domain.UploadFile) error {
	if file == nil || file.Content == nil {
		return domain.NewValidationError("upload", "file", "Select a file to upload")
	}
	if strings.TrimSpace(file.Name) == "" {
		return domain.NewValidationError("upload", "file", "The selected file has no name")
	}

	if len(s.allowedTypes) > 0 {
		ct := normalizeContentType(file.ContentType)
		allowed := false
		for _, t := range s.allowedTypes {
			if t == ct {
				allowed = true
				break
			}
		}
		if !allowed {
			return domain.NewValidationError("upload", "file",
				fmt.Sprintf("File type %s is not allowed", displayType(ct)))
		}
	}

	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return domain.NewValidationError("upload", "file",
			fmt.Sprintf("%s is larger than the %s limit", file.Name, domain.FormatSize(s.maxBytes)))
	}
	return nil
}

// OpenUploadFile opens path for upload and detects its content type.
// The caller must invoke the returned close function.
func OpenUploadFile(path string) (*domain.UploadFile, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.NewValidationError("upload", "file", "File not found: "+path)
		}
		return nil, nil, domain.NewValidationError("upload", "file", err.Error())
	}
	if info.IsDir() {
		return nil, nil, domain.NewValidationError("upload", "file", path+" is a directory")
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = normalizeContentType(mt.String())
	}
	// Unrecognized containers fall back to the extension
	if contentType == "application/zip" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			contentType = normalizeContentType(byExt)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, domain.NewValidationError("upload", "file", err.Error())
	}

	return &domain.UploadFile{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Content:     f,
	}, f.Close, nil
}

// normalizeContentType drops parameters such as "; charset=utf-8"
func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func displayType(ct string) string {
	if ct == "" {
		return "(unknown)"
	}
	return ct
}
