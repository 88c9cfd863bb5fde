package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports"
)

// SyncService uploads local files through the controller and remembers
// their content hash so unchanged files are skipped next time
type SyncService struct {
	controller *Controller
	history    ports.UploadHistory
}

// NewSyncService creates a new sync service
func NewSyncService(controller *Controller, history ports.UploadHistory) *SyncService {
	return &SyncService{
		controller: controller,
		history:    history,
	}
}

// SyncResult describes what happened to one path
type SyncResult struct {
	Path    string
	Skipped bool // content was already uploaded by this account
	Result  *domain.UploadResult
	Record  *domain.UploadRecord
}

// UploadPath uploads the file at path unless the same content was already
// uploaded by the current account. force uploads regardless.
func (s *SyncService) UploadPath(ctx context.Context, path string, force bool) (*SyncResult, error) {
	session := s.controller.Session()
	if !session.Present() {
		return nil, authRequired("upload")
	}
	account := accountKey(session)

	if !force {
		digest, err := FileDigest(path)
		if err != nil {
			return nil, domain.NewValidationError("upload", "file", err.Error())
		}
		if rec, ok := s.history.FindByHash(ctx, account, digest); ok {
			return &SyncResult{Path: path, Skipped: true, Record: rec}, nil
		}
	}

	file, closeFile, err := OpenUploadFile(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	// the file may change after the check above; record what was sent
	sent := newContentDigest()
	file.Content = io.TeeReader(file.Content, sent)

	result, err := s.controller.Upload(ctx, file)
	if err != nil {
		return nil, err
	}

	abs, _ := filepath.Abs(path)
	rec := domain.UploadRecord{
		LocalPath:  abs,
		Filename:   result.Filename,
		ServerPath: result.Path,
		Hash:       sent.Sum(),
		Size:       sent.n,
		Account:    account,
		UploadedAt: time.Now(),
	}
	if err := s.history.Record(ctx, rec); err != nil {
		// the upload itself succeeded; only the bookkeeping is lost
		return &SyncResult{Path: path, Result: result, Record: &rec}, fmt.Errorf("uploaded, but failed to record history: %w", err)
	}

	return &SyncResult{Path: path, Result: result, Record: &rec}, nil
}

// FileDigest returns the hex SHA-256 of the file at path
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// contentDigest hashes and counts the bytes written to it
type contentDigest struct {
	h hash.Hash
	n int64
}

func newContentDigest() *contentDigest {
	return &contentDigest{h: sha256.New()}
}

func (d *contentDigest) Write(p []byte) (int, error) {
	d.n += int64(len(p))
	return d.h.Write(p)
}

// Sum returns the hex digest of everything written so far
func (d *contentDigest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

func accountKey(session *domain.Session) string {
	if session.Email != "" {
		return session.Email
	}
	return "default"
}
