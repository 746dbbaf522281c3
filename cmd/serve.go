package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/authkeeper/internal/app"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo web server",
	Long: `Runs a web server with public pages, a login form that stores the token in an
HTTP-only cookie, and a dashboard under protected_prefix. Requests to the
dashboard without the cookie are redirected to login_path.

Metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		app.ExecuteServeCommand(cmd.Context(), appConfig)
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	serveCmd.Flags().StringP(listenFlag, "l", "", "address to listen on, for example: 127.0.0.1:8080.")

	rootCmd.AddCommand(serveCmd)
}
