package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/pkg/config"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var initAPIURL string

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the docusage data directory and config file",
	Long: `Initialize DocuSage on this machine.

This creates:
  - the data directory holding the session, upload history and logs
  - a config.yaml with the default settings

Examples:
  docusage init
  docusage init --url https://docs.example.com`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAPIURL, "url", "", "Backend base URL to store in the config")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(appDirs.ConfigPath); err == nil && initAPIURL == "" {
		fmt.Println(ui.FormatWarning("Already initialized"))
		fmt.Println(ui.RenderKeyValue("Data", appDirs.RootPath))
		fmt.Println(ui.RenderKeyValue("Config", appDirs.ConfigPath))
		return nil
	}

	fmt.Println(ui.FormatRocket("Initializing docusage..."))
	fmt.Println()

	// PersistentPreRunE already created the directories
	cfg := config.DefaultConfig()
	if existing, err := config.Load(appDirs.ConfigPath); err == nil {
		cfg = existing
	}
	if initAPIURL != "" {
		cfg.APIURL = initAPIURL
	}
	if err := cfg.Save(appDirs.ConfigPath); err != nil {
		fmt.Println(ui.FormatError("Failed to write config"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Initialized successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Data", appDirs.RootPath))
	fmt.Println(ui.RenderKeyValue("Config", appDirs.ConfigPath))
	fmt.Println(ui.RenderKeyValue("Backend", cfg.APIURL))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Create an account: docusage register"))
	fmt.Println(ui.FormatMuted("  2. Log in: docusage login"))
	fmt.Println(ui.FormatMuted("  3. Upload a file: docusage upload report.pdf"))
	return nil
}
