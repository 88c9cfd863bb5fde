package repository

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

func TestFileSessionStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileSessionStore(path)

	if _, ok := store.Load(); ok {
		t.Fatal("new store should be empty")
	}

	want := &domain.Session{Token: "abc", Email: "user@test.com"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := store.Load()
	if !ok || *got != *want {
		t.Fatalf("load = %+v, %v", got, ok)
	}

	// a second store over the same file behaves like a restart
	reloaded, ok := NewFileSessionStore(path).Load()
	if !ok || *reloaded != *want {
		t.Fatalf("reloaded = %+v, %v", reloaded, ok)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want 600", perm)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileSessionStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileSessionStore(path)

	if err := store.Clear(); err != nil {
		t.Fatalf("clearing an empty store: %v", err)
	}
	if err := store.Save(&domain.Session{Token: "abc"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, ok := store.Load(); ok {
		t.Error("expected no session after clear")
	}
}

func TestFileSessionStore_MalformedIsNoSession(t *testing.T) {
	tests := map[string]string{
		"garbage":     "{not json",
		"empty token": `{"access_token": "  ", "email": "user@test.com"}`,
		"wrong type":  `{"access_token": 42}`,
		"empty file":  "",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			if s, ok := NewFileSessionStore(path).Load(); ok {
				t.Errorf("expected no session, got %+v", s)
			}
		})
	}
}

func TestFileSessionStore_SaveRejectsEmpty(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(&domain.Session{}); err == nil {
		t.Error("expected error saving an empty session")
	}
	if err := store.Save(nil); err == nil {
		t.Error("expected error saving nil")
	}
}

func TestFileUploadHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	history := NewFileUploadHistory(path)

	if _, ok := history.FindByHash(ctx, "a@test.com", "h1"); ok {
		t.Fatal("empty history should find nothing")
	}

	now := time.Now()
	records := []domain.UploadRecord{
		{LocalPath: "/tmp/a.pdf", Filename: "a.pdf", Hash: "h1", Account: "a@test.com", UploadedAt: now.Add(-time.Hour)},
		{LocalPath: "/tmp/b.pdf", Filename: "b.pdf", Hash: "h2", Account: "a@test.com", UploadedAt: now},
	}
	for _, rec := range records {
		if err := history.Record(ctx, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	reopened := NewFileUploadHistory(path)
	rec, ok := reopened.FindByHash(ctx, "a@test.com", "h1")
	if !ok || rec.Filename != "a.pdf" {
		t.Errorf("FindByHash = %+v, %v", rec, ok)
	}
	if _, ok := reopened.FindByHash(ctx, "b@test.com", "h1"); ok {
		t.Error("records are per account")
	}

	list, err := reopened.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Filename != "b.pdf" {
		t.Errorf("list = %+v", list)
	}
}

func TestFileUploadHistory_CorruptManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	history := NewFileUploadHistory(path)
	if err := history.Load(); err != nil {
		t.Fatalf("corrupt manifest should not fail: %v", err)
	}
	list, _ := history.List(context.Background())
	if len(list) != 0 {
		t.Errorf("expected empty history, got %v", list)
	}
}
