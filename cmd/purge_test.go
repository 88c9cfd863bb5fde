package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPurgeCommand_Exists(t *testing.T) {
	if purgeCmd.Use != "purge" {
		t.Errorf("expected Use to be 'purge', got '%s'", purgeCmd.Use)
	}
	if purgeCmd.Short == "" || purgeCmd.Long == "" {
		t.Error("purge command should have descriptions")
	}
	if purgeCmd.RunE == nil {
		t.Error("purge command should have a RunE function")
	}
}

func TestPurgeCommand_Flags(t *testing.T) {
	forceFlag := purgeCmd.Flags().Lookup("force")
	if forceFlag == nil {
		t.Fatal("expected 'force' flag to exist")
	}
	if forceFlag.Shorthand != "f" {
		t.Errorf("expected force flag shorthand to be 'f', got '%s'", forceFlag.Shorthand)
	}
	if forceFlag.DefValue != "false" {
		t.Errorf("expected force flag default to be 'false', got '%s'", forceFlag.DefValue)
	}
}

func TestPurgeLocalData(t *testing.T) {
	tempDir := t.TempDir()
	root := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config", "docusage")
	configPath := filepath.Join(configDir, "config.yaml")

	for _, dir := range []string{filepath.Join(root, "logs"), filepath.Join(root, "charts"), configDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}
	for _, f := range []string{
		filepath.Join(root, "session.json"),
		filepath.Join(root, "uploads.json"),
		filepath.Join(root, "logs", "docusage.log"),
		configPath,
	} {
		if err := os.WriteFile(f, []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", f, err)
		}
	}

	if err := purgeLocalData(root, configPath); err != nil {
		t.Fatalf("purgeLocalData failed: %v", err)
	}

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("data directory should be gone")
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("config file should be gone")
	}
	if _, err := os.Stat(configDir); !os.IsNotExist(err) {
		t.Error("empty config directory should be gone")
	}
}

func TestPurgeLocalData_KeepsSharedConfigDir(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	other := filepath.Join(tempDir, "other.txt")
	os.WriteFile(configPath, []byte("x"), 0600)
	os.WriteFile(other, []byte("keep"), 0600)

	if err := purgeLocalData(filepath.Join(tempDir, "missing"), configPath); err != nil {
		t.Fatalf("purgeLocalData failed: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("unrelated files must survive")
	}
}
