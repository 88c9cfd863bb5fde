package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/pkg/ui"
)

var cleanHistory bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated charts and logs",
	Long: `Remove files docusage generates locally.

By default this clears generated charts and diagnostic logs.
With --history the upload history is forgotten too, so the next
upload of an unchanged file is sent again.

Examples:
  docusage clean
  docusage clean --history`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanHistory, "history", false, "Also forget the upload history")
}

func runClean(cmd *cobra.Command, args []string) error {
	fmt.Print(ui.StyleWarning.Render("Cleaning generated files... "))

	targets := []string{filepath.Dir(appDirs.ChartPath("x")), appDirs.LogsPath}
	if cleanHistory {
		targets = append(targets, appDirs.HistoryPath())
	}

	// The open log file is recreated by the next command
	for _, path := range targets {
		if err := os.RemoveAll(path); err != nil {
			fmt.Println(ui.FormatError("Failed"))
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(appDirs.LogsPath, 0755); err != nil {
		fmt.Println(ui.FormatError("Failed"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Done"))
	if cleanHistory {
		fmt.Println(ui.FormatMuted("Charts, logs and upload history removed."))
	} else {
		fmt.Println(ui.FormatMuted("Charts and logs removed."))
	}
	return nil
}
