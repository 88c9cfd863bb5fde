package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "docusage"

// Dirs holds the client's on-disk locations
type Dirs struct {
	RootPath   string
	LogsPath   string
	ConfigPath string
}

// New resolves XDG-compliant paths
func New() (*Dirs, error) {
	rootPath, rootErr := dataRoot()
	configPath, configErr := configFile()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine data directory: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	return &Dirs{
		RootPath:   rootPath,
		LogsPath:   filepath.Join(rootPath, "logs"),
		ConfigPath: configPath,
	}, nil
}

// dataRoot follows the XDG Base Directory specification on Unix and uses
// AppData on Windows
func dataRoot() (string, error) {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appName), nil
}

func configFile() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.yaml"), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName+"-config", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName, "config.yaml"), nil
}

// Initialize creates the directory structure if it doesn't exist.
// The root is private to the user because it holds the session.
func (d *Dirs) Initialize() error {
	if err := os.MkdirAll(d.RootPath, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d.RootPath, err)
	}
	if err := os.MkdirAll(d.LogsPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d.LogsPath, err)
	}
	return nil
}

// Exists checks if the data directory has been created
func (d *Dirs) Exists() bool {
	info, err := os.Stat(d.RootPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SessionPath returns the session file location
func (d *Dirs) SessionPath() string {
	return filepath.Join(d.RootPath, "session.json")
}

// HistoryPath returns the upload history manifest location
func (d *Dirs) HistoryPath() string {
	return filepath.Join(d.RootPath, "uploads.json")
}

// LogFilePath returns the default diagnostic log file
func (d *Dirs) LogFilePath() string {
	return filepath.Join(d.LogsPath, appName+".log")
}

// ChartPath returns where generated charts are written by default
func (d *Dirs) ChartPath(name string) string {
	return filepath.Join(d.RootPath, "charts", name)
}
