package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/term"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

// GetPreferredEditor returns the editor command from config, env, or default
func GetPreferredEditor() string {
	// 1. Check Config
	if appConfig != nil && appConfig.Editor != "" {
		return appConfig.Editor
	}
	// 2. Check Environment
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	// 3. Fallback
	return "vi"
}

// OpenFile opens a file using the OS default application
func OpenFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	// Start detaches so docusage can exit while the viewer stays open
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}
	return nil
}

// reportError prints err for the terminal with a hint derived from its
// kind, and returns it so the command exits non-zero
func reportError(err error) error {
	if err == nil {
		return nil
	}

	msg := domain.Message(err)
	if field := domain.Field(err); field != "" && errors.Is(err, domain.ErrValidation) {
		msg = field + ": " + msg
	}
	fmt.Println(ui.FormatError(msg))

	if hint := errorHint(err); hint != "" {
		fmt.Println(ui.FormatMuted("  " + hint))
	}
	return err
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return "Run 'docusage login' first."
	case errors.Is(err, domain.ErrSessionInvalid):
		return "The saved session was removed. Run 'docusage login' to sign in again."
	case errors.Is(err, domain.ErrTransport):
		return "Check the backend address (--api-url) or run 'docusage doctor'."
	default:
		return ""
	}
}

// promptLine asks for a single line of input
func promptLine(in *bufio.Reader, label string) (string, error) {
	fmt.Print(ui.StyleAccent.Render(label + ": "))
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// and a plain line otherwise
func promptPassword(in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print(ui.StyleAccent.Render(label + ": "))
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
