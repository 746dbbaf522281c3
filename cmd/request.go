package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/authkeeper/internal/app"
)

const (
	dataFlag      = "data"
	variablesFlag = "vars"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	requestCmd = &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send an authenticated request to the API",
		Long: `Sends METHOD PATH relative to api_base_url with the current session token
and prints the response body.

Example:
  authkeeper request GET /users/me
  authkeeper request POST /items --data '{"name":"widget"}'`,
		Args: cobra.ExactArgs(2), //nolint:mnd // Method and path.
		Run: func(cmd *cobra.Command, args []string) {
			body, _ := cmd.Flags().GetString(dataFlag)

			app.ExecuteRequestCommand(cmd.Context(), appConfig, args[0], args[1], body, cmd.OutOrStdout())
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	queryCmd = &cobra.Command{
		Use:   "query QUERY",
		Short: "Run an authenticated GraphQL query",
		Long: `Runs QUERY against the GraphQL endpoint (api_base_url + graphql_path)
with the current session token and prints the "data" object.

Example:
  authkeeper query 'query($id: ID!) { user(id: $id) { name } }' --vars '{"id":"42"}'`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			variables, _ := cmd.Flags().GetString(variablesFlag)

			app.ExecuteQueryCommand(cmd.Context(), appConfig, args[0], variables, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	requestCmd.Flags().StringP(dataFlag, "d", "", "request body, sent as is.")
	queryCmd.Flags().String(variablesFlag, "", "query variables as a JSON object.")

	rootCmd.AddCommand(requestCmd, queryCmd)
}
