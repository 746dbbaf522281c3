package auth

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/utils"
)

const (
	// browserSlowMotionDelay is the delay between browser actions for visibility during debugging.
	browserSlowMotionDelay = 200 * time.Millisecond

	// loginPollMinInterval is the minimum pause between session checks.
	loginPollMinInterval = 500 * time.Millisecond
	// loginPollMaxInterval is the maximum pause between session checks.
	loginPollMaxInterval = 1500 * time.Millisecond

	// browserCleanupDelay is the delay to wait for Chrome to release file locks before cleanup.
	browserCleanupDelay = 500 * time.Millisecond

	// defaultLoginTimeout applies when the configuration has no parsed timeout.
	defaultLoginTimeout = 10 * time.Minute
)

var (
	// ErrEmptyLoginURL is returned when no sign-in page is configured.
	ErrEmptyLoginURL = errors.New("browser login URL is not configured")

	// ErrLoginTimeout is returned when login takes too long.
	ErrLoginTimeout = errors.New("login timeout exceeded")

	// ErrBrowserClosed is returned when the browser is closed by the user.
	ErrBrowserClosed = errors.New("browser was closed by user")

	// ErrNavigatedAway is returned when the user navigates away from the application origin.
	ErrNavigatedAway = errors.New("user navigated away from login flow")
)

// LoginService obtains a session token interactively.
type LoginService interface {
	// LoginAndExtractToken opens a browser, waits for the user to sign in, then returns the session token.
	LoginAndExtractToken(ctx context.Context) (string, error)
}

// BrowserLoginService signs in through a visible browser and captures the session cookie.
type BrowserLoginService struct {
	// loginURL is the sign-in page.
	loginURL string
	// origin is the application origin the session cookie belongs to.
	origin string
	// cookieName is the session cookie to capture.
	cookieName string
	// timeout bounds the whole wait.
	timeout time.Duration
	// pause waits between polls, replaced in tests.
	pause func()

	browser *rod.Browser
	// tempDir stores the temporary profile directory for cleanup.
	tempDir string
}

// NewBrowserLoginService creates a new browser login service.
func NewBrowserLoginService(cfg *config.Config) (*BrowserLoginService, error) {
	if cfg.BrowserLoginURL == "" {
		return nil, ErrEmptyLoginURL
	}

	origin := utils.Origin(cfg.BrowserLoginURL)
	if origin == "" {
		return nil, fmt.Errorf("%w: '%s'", config.ErrInvalidBrowserLoginURL, cfg.BrowserLoginURL)
	}

	timeout := cfg.ParsedBrowserLoginTimeout
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = config.DefaultCookieName
	}

	return &BrowserLoginService{
		loginURL:   cfg.BrowserLoginURL,
		origin:     origin,
		cookieName: cookieName,
		timeout:    timeout,
		pause: func() {
			utils.RandomPause(loginPollMinInterval, loginPollMaxInterval)
		},
	}, nil
}

// LoginAndExtractToken opens a browser, waits for the user to sign in, then returns the session token.
func (s *BrowserLoginService) LoginAndExtractToken(ctx context.Context) (string, error) {
	ctx = logger.WithName(ctx, "browser-login")

	logger.Info(ctx, "Starting browser-based authentication")

	page, err := s.initBrowser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to initialize browser: %w", err)
	}

	defer s.cleanup(ctx)

	logger.Infof(ctx, "Opening %s", s.loginURL)

	if err = page.Navigate(s.loginURL); err != nil {
		return "", fmt.Errorf("failed to open sign-in page: %w", err)
	}

	logger.Info(ctx, "Please sign in using the browser window.")
	logger.Info(ctx, "Stay on the application's pages, the window closes by itself once you are signed in.")

	sessionToken, err := s.waitForSession(ctx, &rodPage{page: page})
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}

	logger.Info(ctx, "Session token captured successfully")

	return sessionToken, nil
}
