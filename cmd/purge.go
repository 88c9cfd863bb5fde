package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	purgeForce bool
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all local docusage data",
	Long: `Delete everything docusage keeps on this machine.

This removes:
  - The saved session (you will be logged out)
  - The upload history
  - Logs and generated charts
  - The configuration file

Documents stored on the backend are not touched.

Examples:
  # Purge with confirmation prompt
  docusage purge

  # Force purge without confirmation
  docusage purge --force`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeForce, "force", "f", false, "Skip confirmation prompt")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if !appDirs.Exists() {
		fmt.Println(ui.FormatWarning("Nothing to purge."))
		fmt.Println(ui.FormatInfo("Data location: " + appDirs.RootPath))
		return nil
	}

	fmt.Println(ui.FormatWarning("You are about to delete all local docusage data:"))
	fmt.Printf("  %s %s\n", ui.StyleBold.Render("Data:"), appDirs.RootPath)
	fmt.Printf("  %s %s\n", ui.StyleBold.Render("Config:"), appDirs.ConfigPath)
	fmt.Println()

	if !purgeForce && !confirmPurge(os.Stdin) {
		fmt.Println(ui.FormatInfo("Purge cancelled."))
		return nil
	}

	// Drop the session through the controller so subscribers see the logout
	if err := controller.Logout(); err != nil {
		fmt.Println(ui.FormatWarning(err.Error()))
	}

	if err := purgeLocalData(appDirs.RootPath, appDirs.ConfigPath); err != nil {
		fmt.Println(ui.FormatError("Failed to purge: " + err.Error()))
		return err
	}

	fmt.Println(ui.FormatSuccess("Local data deleted"))
	fmt.Println(ui.FormatInfo("To start again, run: docusage init"))
	return nil
}

// confirmPurge requires the full word "yes"
func confirmPurge(in *os.File) bool {
	reader := bufio.NewReader(in)
	for {
		fmt.Print(ui.StyleError.Render("Are you sure? (yes/no): "))
		response, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(response)) {
		case "yes":
			return true
		case "no", "":
			return false
		default:
			fmt.Println(ui.FormatWarning("Please type 'yes' or 'no' (full words required)."))
		}
	}
}

// purgeLocalData removes the data directory and the config file. The config
// directory is removed too when nothing else lives in it.
func purgeLocalData(root, configPath string) error {
	if err := os.RemoveAll(root); err != nil {
		return err
	}
	if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	// Fails harmlessly when the directory is shared or not empty
	_ = os.Remove(filepath.Dir(configPath))
	return nil
}
