package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	whoamiCopyToken bool
	whoamiOffline   bool
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long: `Show which account the saved session belongs to.

The session is verified against the backend unless --offline is given.
A rejected session is removed, exactly as any other command would.

Examples:
  docusage whoami
  docusage whoami --copy-token`,
	RunE: runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiCopyToken, "copy-token", false, "Copy the access token to the clipboard")
	whoamiCmd.Flags().BoolVar(&whoamiOffline, "offline", false, "Only read the saved session")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	session := controller.Session()
	if !session.Present() {
		fmt.Println(ui.FormatWarning("Not logged in"))
		fmt.Println(ui.FormatInfo("Run 'docusage login' to sign in"))
		return nil
	}

	email := session.Email
	if !whoamiOffline {
		verified, err := controller.WhoAmI(getContext())
		if err != nil {
			return reportError(err)
		}
		email = verified
	}

	fmt.Println(ui.RenderKeyValue("Account", email))
	fmt.Println(ui.RenderKeyValue("Server", appConfig.APIURL))
	fmt.Println(ui.RenderKeyValue("Session", sessionPath))

	if whoamiCopyToken {
		// Try to write to clipboard (non-blocking if fails)
		if err := clipboard.WriteAll(session.Token); err != nil {
			fmt.Println(ui.FormatMuted("(Clipboard access failed)"))
		} else {
			fmt.Println(ui.FormatSuccess("Access token copied to clipboard"))
		}
	}
	return nil
}
