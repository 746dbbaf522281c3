package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/oshokin/authkeeper/internal/logger"
)

// loginPage is the part of a browser tab the login flow watches.
type loginPage interface {
	// URL returns the address currently shown.
	URL() (string, error)
	// Cookies returns the cookies the browser would send to origin.
	Cookies(origin string) ([]*proto.NetworkCookie, error)
}

// rodPage adapts a rod page, turning panics from a closed browser into errors.
type rodPage struct {
	page *rod.Page
}

// URL returns the address currently shown.
func (p *rodPage) URL() (currentURL string, err error) {
	defer recoverBrowserPanic(&err)

	info, err := p.page.Info()
	if err != nil {
		return "", err
	}

	return info.URL, nil
}

// Cookies returns the cookies the browser would send to origin.
func (p *rodPage) Cookies(origin string) (cookies []*proto.NetworkCookie, err error) {
	defer recoverBrowserPanic(&err)

	return p.page.Cookies([]string{origin})
}

func recoverBrowserPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrBrowserClosed, r)
	}
}

// initBrowser launches a visible browser with a throwaway profile and opens a stealth page.
func (s *BrowserLoginService) initBrowser(ctx context.Context) (*rod.Page, error) {
	logger.Debug(ctx, "Initializing browser")

	// A fresh profile keeps earlier sessions out of the capture.
	tempDir, err := os.MkdirTemp("", "authkeeper-login-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary user data directory: %w", err)
	}

	logger.Debugf(ctx, "Using temporary profile directory: %s", tempDir)

	s.tempDir = tempDir

	browserLauncher := launcher.New().
		// User needs to see the browser to log in.
		Headless(false).
		UserDataDir(tempDir)

	// Prefer an installed Chrome, rod downloads Chromium otherwise.
	if chromePath, exists := launcher.LookPath(); exists {
		logger.Debugf(ctx, "Using system Chrome installation at: %s", chromePath)

		browserLauncher = browserLauncher.Bin(chromePath)
	} else {
		logger.Debug(ctx, "System Chrome not found, downloading Chromium")
	}

	launcherURL, err := browserLauncher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debugf(ctx, "Browser launched at: %s", launcherURL)

	browserInstance := rod.New().ControlURL(launcherURL)

	if logger.IsDebugLevel() {
		logger.Debug(ctx, "Debug mode enabled - enabling browser trace and slow motion")

		browserInstance = browserInstance.
			Trace(true).
			SlowMotion(browserSlowMotionDelay)
	}

	if err = browserInstance.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	s.browser = browserInstance

	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logger.Debug(ctx, "Browser initialized successfully with stealth mode")

	return page.Context(ctx), nil
}

// cleanup closes the browser and removes the temporary profile.
func (s *BrowserLoginService) cleanup(ctx context.Context) {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			logger.Debugf(ctx, "Browser close error (expected): %v", err)
		}

		s.browser = nil
	}

	if s.tempDir == "" {
		return
	}

	// Give Chrome a moment to release file locks.
	time.Sleep(browserCleanupDelay)

	if err := os.RemoveAll(s.tempDir); err != nil {
		logger.Debugf(ctx, "Could not clean up temp directory %s: %v", s.tempDir, err)
	}

	s.tempDir = ""
}
