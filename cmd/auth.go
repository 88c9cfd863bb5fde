package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	authEmail         string
	authPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Long: `Sign in to the DocuSage backend.

The access token is saved to the data directory and reused by every
other command until you log out or the backend rejects it.

Examples:
  docusage login
  docusage login --email me@example.com
  echo "$PASSWORD" | docusage login --email me@example.com --password-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(domain.ModeLogin)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create a DocuSage account.

Registration does not sign you in; run 'docusage login' afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(domain.ModeRegister)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session",
	RunE:  runLogout,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
		c.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "Read the password from stdin")
	}
}

func runAuth(mode domain.AuthMode) error {
	in := bufio.NewReader(os.Stdin)

	email := authEmail
	if email == "" && !authPasswordStdin {
		var err error
		if email, err = promptLine(in, "Email"); err != nil {
			return err
		}
	}

	password, err := promptPassword(in, "Password")
	if err != nil {
		return err
	}

	if mode == domain.ModeLogin {
		fmt.Println(ui.FormatMuted("Signing in to " + appConfig.APIURL + "..."))
	} else {
		fmt.Println(ui.FormatMuted("Registering with " + appConfig.APIURL + "..."))
	}

	result, err := controller.Submit(getContext(), mode, email, password)
	if err != nil {
		return reportError(err)
	}

	fmt.Println(ui.FormatSuccess(result.Message))
	if mode == domain.ModeRegister {
		fmt.Println(ui.FormatInfo("Next: docusage login --email " + email))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	session, ok := sessionStore.Load()
	if err := controller.Logout(); err != nil {
		return reportError(err)
	}
	if !ok {
		fmt.Println(ui.FormatInfo("Not logged in"))
		return nil
	}
	if session.Email != "" {
		fmt.Println(ui.FormatSuccess("Logged out " + session.Email))
	} else {
		fmt.Println(ui.FormatSuccess("Logged out"))
	}
	return nil
}
