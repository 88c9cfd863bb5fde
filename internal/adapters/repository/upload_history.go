package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/ports"
)

// FileUploadHistory keeps upload records in a JSON manifest keyed by
// account and content hash
type FileUploadHistory struct {
	manifestPath string
	mu           sync.RWMutex
	cache        map[string]domain.UploadRecord
	loaded       bool
}

// NewFileUploadHistory creates a history backed by manifestPath
func NewFileUploadHistory(manifestPath string) *FileUploadHistory {
	return &FileUploadHistory{
		manifestPath: manifestPath,
		cache:        make(map[string]domain.UploadRecord),
	}
}

var _ ports.UploadHistory = (*FileUploadHistory)(nil)

func historyKey(account, hash string) string {
	return account + "|" + hash
}

// Load reads the manifest from disk. A corrupt manifest starts a fresh history.
func (r *FileUploadHistory) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *FileUploadHistory) loadLocked() error {
	if r.loaded {
		return nil
	}
	r.loaded = true

	data, err := os.ReadFile(r.manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var records []domain.UploadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	for _, rec := range records {
		r.cache[historyKey(rec.Account, rec.Hash)] = rec
	}
	return nil
}

// Record stores rec and flushes the manifest
func (r *FileUploadHistory) Record(ctx context.Context, rec domain.UploadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(); err != nil {
		return err
	}
	r.cache[historyKey(rec.Account, rec.Hash)] = rec
	return r.flushLocked()
}

// FindByHash returns the record for content previously uploaded by account
func (r *FileUploadHistory) FindByHash(ctx context.Context, account, hash string) (*domain.UploadRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(); err != nil {
		return nil, false
	}
	rec, ok := r.cache[historyKey(account, hash)]
	if !ok {
		return nil, false
	}
	return &rec, true
}

// List returns all records, newest first
func (r *FileUploadHistory) List(ctx context.Context) ([]domain.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(); err != nil {
		return nil, err
	}
	records := make([]domain.UploadRecord, 0, len(r.cache))
	for _, rec := range r.cache {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.After(records[j].UploadedAt)
	})
	return records, nil
}

// flushLocked writes cache to disk
func (r *FileUploadHistory) flushLocked() error {
	records := make([]domain.UploadRecord, 0, len(r.cache))
	for _, rec := range r.cache {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LocalPath < records[j].LocalPath
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.manifestPath), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	return os.WriteFile(r.manifestPath, data, 0644)
}
