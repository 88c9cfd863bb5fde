package appdir

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNew_XDG(t *testing.T) {
	dataHome := t.TempDir()
	configHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("XDG_CONFIG_HOME", configHome)

	d, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"root", d.RootPath, filepath.Join(dataHome, "docusage")},
		{"logs", d.LogsPath, filepath.Join(dataHome, "docusage", "logs")},
		{"config", d.ConfigPath, filepath.Join(configHome, "docusage", "config.yaml")},
		{"session", d.SessionPath(), filepath.Join(dataHome, "docusage", "session.json")},
		{"history", d.HistoryPath(), filepath.Join(dataHome, "docusage", "uploads.json")},
		{"log file", d.LogFilePath(), filepath.Join(dataHome, "docusage", "logs", "docusage.log")},
		{"chart", d.ChartPath("stats.html"), filepath.Join(dataHome, "docusage", "charts", "stats.html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docusage")
	d := &Dirs{RootPath: root, LogsPath: filepath.Join(root, "logs")}

	if d.Exists() {
		t.Fatal("should not exist yet")
	}
	if err := d.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !d.Exists() {
		t.Fatal("should exist after Initialize")
	}
	if _, err := os.Stat(d.LogsPath); err != nil {
		t.Errorf("logs dir missing: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(root)
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("root permissions = %o, want 700", perm)
		}
	}

	// idempotent
	if err := d.Initialize(); err != nil {
		t.Errorf("second initialize: %v", err)
	}
}
