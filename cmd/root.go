package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/version"
)

const (
	logLevelFlag = "log-level"
	apiURLFlag   = "api-url"
	storageFlag  = "storage"
	listenFlag   = "listen"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "authkeeper",
		Short: "Keep a client-side session token and use it for API calls.",
		Long: `Authkeeper manages the session token of a web application from the command line.

It can:
- store, inspect and clear the session token
- capture the token by signing in through a browser
- send authenticated HTTP and GraphQL requests to the API
- run a demo web server whose dashboard is protected by a session cookie

The token is sent as "Authorization: Bearer <token>" and is never sent when
the session is empty.`,
		Version:          version.Short(),
		PersistentPreRun: initConfig,
		SilenceUsage:     true,
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	registerConfigFlags(rootCmd.PersistentFlags())
}

// registerConfigFlags adds the flags that override configuration values.
func registerConfigFlags(flags *pflag.FlagSet) {
	flags.String(
		logLevelFlag,
		"",
		"log level: debug, info, warn, error.")

	flags.String(
		apiURLFlag,
		"",
		"base URL of the API, for example: https://api.example.com.")

	flags.StringP(
		storageFlag,
		"s",
		"",
		"path to the token storage file.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	cfg, err := config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if err = bindFlagsToConfig(cmd.Flags(), cfg); err != nil {
		logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
	}

	logger.SetLevel(cfg.ParsedLogLevel)

	appConfig = cfg
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup(logLevelFlag); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString(logLevelFlag)
	}

	if flag := flags.Lookup(apiURLFlag); flag != nil && flag.Changed {
		cfg.APIBaseURL, _ = flags.GetString(apiURLFlag)
	}

	if flag := flags.Lookup(storageFlag); flag != nil && flag.Changed {
		cfg.StoragePath, _ = flags.GetString(storageFlag)
	}

	if flag := flags.Lookup(listenFlag); flag != nil && flag.Changed {
		cfg.ListenAddress, _ = flags.GetString(listenFlag)
	}

	return config.ValidateConfig(cfg)
}
