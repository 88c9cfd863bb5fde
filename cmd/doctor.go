package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your docusage setup",
	Long: `Diagnose issues with your DocuSage setup.

Checks for:
  - Data directory and configuration file
  - Backend reachability
  - Saved session validity`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatTitle("🏥 DocuSage Doctor"))
	fmt.Println()

	failed := 0
	step := func(name string, check func() error) {
		if !checkStep(name, check) {
			failed++
		}
	}

	// 1. Local setup
	step("Data Directory", func() error {
		if !appDirs.Exists() {
			return fmt.Errorf("not found at %s", appDirs.RootPath)
		}
		return nil
	})

	step("Configuration File", func() error {
		if _, err := os.Stat(appDirs.ConfigPath); os.IsNotExist(err) {
			return fmt.Errorf("missing at %s (defaults in use, run 'docusage init')", appDirs.ConfigPath)
		}
		return nil
	})

	// 2. Backend
	fmt.Println()
	fmt.Println(ui.FormatInfo("Checking backend at " + apiClient.BaseURL() + "..."))

	reachable := true
	step("Backend Reachable", func() error {
		start := time.Now()
		if err := healthChecker.Ping(getContext()); err != nil {
			reachable = false
			return errors.New(domain.Message(err))
		}
		appLogger.Sugar().Debugw("ping ok", "elapsed", time.Since(start))
		return nil
	})

	// 3. Session
	step("Session", func() error {
		session := controller.Session()
		if !session.Present() {
			return fmt.Errorf("not logged in (run 'docusage login')")
		}
		if !reachable {
			return fmt.Errorf("saved for %s, not verified", session.Email)
		}
		email, err := controller.WhoAmI(getContext())
		if err != nil {
			return errors.New(domain.Message(err))
		}
		if email != "" && session.Email != "" && email != session.Email {
			return fmt.Errorf("saved as %s but the backend reports %s", session.Email, email)
		}
		return nil
	})

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println(ui.FormatSuccess("Everything looks good"))
	return nil
}

// checkStep runs a check function and prints the result nicely
func checkStep(name string, check func() error) bool {
	err := check()
	if err == nil {
		fmt.Printf("%s %s\n", ui.FormatSuccess("✔"), name)
		return true
	}
	fmt.Printf("%s %s\n", ui.FormatError("✘"), name)
	fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
	return false
}
