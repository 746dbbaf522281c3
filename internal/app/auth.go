package app

import (
	"context"
	"io"
	"time"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/service/auth"
)

// ExecuteAuthSetCommand stores the given token as the current session.
func ExecuteAuthSetCommand(ctx context.Context, cfg *config.Config, rawToken string, out io.Writer) {
	if err := runAuthSet(ctx, cfg, rawToken, out); err != nil {
		logger.Fatalf(ctx, "Failed to save session token: %v", err)
	}
}

// ExecuteAuthLoginCommand executes the auth login command.
// It opens a browser, waits for the user to sign in, captures the session cookie
// and stores it as the current session.
func ExecuteAuthLoginCommand(ctx context.Context, cfg *config.Config, out io.Writer) {
	loginService, err := auth.NewBrowserLoginService(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize authentication service: %v", err)
	}

	if err = runAuthLogin(ctx, cfg, loginService, out); err != nil {
		logger.Fatalf(ctx, "Authentication failed: %v", err)
	}
}

// ExecuteAuthLogoutCommand clears the current session.
func ExecuteAuthLogoutCommand(ctx context.Context, cfg *config.Config, out io.Writer) {
	if err := runAuthLogout(ctx, cfg, out); err != nil {
		logger.Fatalf(ctx, "Failed to sign out: %v", err)
	}
}

// ExecuteAuthStatusCommand prints the current session.
func ExecuteAuthStatusCommand(ctx context.Context, cfg *config.Config, out io.Writer) {
	if err := runAuthStatus(ctx, cfg, time.Now(), out); err != nil {
		logger.Fatalf(ctx, "Failed to read session: %v", err)
	}
}
