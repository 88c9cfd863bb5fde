package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kamal-hamza/docusage/pkg/config"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the docusage configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appDirs.ConfigPath

		// Create it with defaults so there is something to edit
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
		}

		fmt.Println(ui.FormatInfo("Opening config: " + path))

		parts := strings.Fields(GetPreferredEditor())
		c := exec.Command(parts[0], append(parts[1:], path)...)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return err
		}

		// Catch typos before the next command trips over them
		if _, err := config.Load(path); err != nil {
			fmt.Println(ui.FormatWarning("The config no longer parses: " + err.Error()))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appDirs.ConfigPath)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration in effect for this run, after the
` + config.EnvAPIURL + ` variable and the --api-url flag were applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configSetURLCmd = &cobra.Command{
	Use:   "set-url <url>",
	Short: "Store the backend base URL in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(appDirs.ConfigPath)
		if err != nil {
			return err
		}
		cfg.APIURL = strings.TrimRight(strings.TrimSpace(args[0]), "/")
		if err := cfg.Save(appDirs.ConfigPath); err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess("Backend set to " + cfg.APIURL))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetURLCmd)
}
