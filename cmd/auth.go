package cmd

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oshokin/authkeeper/internal/app"
	"github.com/oshokin/authkeeper/internal/logger"
)

// errNoTokenInput indicates that neither an argument nor stdin provided a token.
var errNoTokenInput = errors.New("no token given: pass it as an argument or on stdin")

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Session token management commands",
		Long: `Manage the session token.

Use 'auth login' to sign in via browser and capture the session cookie,
or 'auth set' to store a token you already have.`,
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authSetCmd = &cobra.Command{
		Use:   "set [token]",
		Short: "Store a session token",
		Long: `Stores the given token as the current session.

The token is trimmed. Blank values and the placeholders "undefined" and "null"
clear the session instead, and the command fails.
Without an argument the token is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rawToken, err := readToken(args, cmd.InOrStdin())
			if err != nil {
				logger.Fatalf(cmd.Context(), "Failed to read token: %v", err)
			}

			app.ExecuteAuthSetCommand(cmd.Context(), appConfig, rawToken, cmd.OutOrStdout())
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authLoginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in through a browser and capture the session token",
		Long: `Opens a browser window at browser_login_url.

Sign in as usual. Once the application sets its session cookie, the window
closes and the cookie value is stored as the current session.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteAuthLoginCommand(cmd.Context(), appConfig, cmd.OutOrStdout())
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authLogoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Clear the session token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteAuthLogoutCommand(cmd.Context(), appConfig, cmd.OutOrStdout())
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	authStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteAuthStatusCommand(cmd.Context(), appConfig, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	authCmd.AddCommand(authSetCmd, authLoginCmd, authLogoutCmd, authStatusCmd)

	rootCmd.AddCommand(authCmd)
}

// readToken takes the token from the arguments or the first line of input.
// The value is passed on unsanitized, the store decides what is valid.
func readToken(args []string, input io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	scanner := bufio.NewScanner(input)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}

		return "", errNoTokenInput
	}

	return strings.TrimRight(scanner.Text(), "\r"), nil
}
