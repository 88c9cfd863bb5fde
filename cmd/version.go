package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/pkg/appdir"
	"github.com/kamal-hamza/docusage/pkg/config"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

// Version information - these can be set during build with ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Display version information",
	Aliases: []string{"v"},
	Long: `Display the client version, build details and the backend it talks to.
(alias: v)`,
	Run: runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}

// buildInfo describes the running binary
type buildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// currentBuildInfo prefers ldflags values and falls back to the module
// and VCS data embedded by the Go toolchain
func currentBuildInfo() buildInfo {
	info := buildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = shortCommit(s.Value)
			}
		case "vcs.time":
			if info.BuildDate == "unknown" && s.Value != "" {
				info.BuildDate = s.Value
			}
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// versionBackendURL resolves the backend address the same way the other
// commands do, without creating any directories
func versionBackendURL() string {
	if apiURLFlag != "" {
		return apiURLFlag
	}

	cfg := config.DefaultConfig()
	if d, err := appdir.New(); err == nil {
		if loaded, err := config.Load(d.ConfigPath); err == nil {
			cfg = loaded
		}
	}
	cfg.ApplyEnv()
	return cfg.APIURL
}

func runVersion(cmd *cobra.Command, args []string) {
	info := currentBuildInfo()
	if versionShort {
		fmt.Println(info.Version)
		return
	}

	fmt.Println(ui.StyleTitle.Render("DocuSage") + " - Document Client")
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Version", info.Version))
	fmt.Println(ui.RenderKeyValue("Commit", info.Commit))
	fmt.Println(ui.RenderKeyValue("Build Date", info.BuildDate))
	fmt.Println(ui.RenderKeyValue("Go", info.GoVersion))
	fmt.Println(ui.RenderKeyValue("Platform", info.Platform))
	fmt.Println(ui.RenderKeyValue("Backend", versionBackendURL()))
}
