package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/utils"
)

// blankPagePrefix matches the empty tab shown before the first navigation commits.
const blankPagePrefix = "about:blank"

// waitForSession polls page until the session cookie appears on the application origin.
func (s *BrowserLoginService) waitForSession(ctx context.Context, page loginPage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bar := s.newSpinner()
	defer bar.Finish() //nolint:errcheck // The spinner is cosmetic.

	var lastURL string

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: waited for %v", ErrLoginTimeout, s.timeout)
			}

			return "", ctx.Err()
		default:
		}

		currentURL, err := page.URL()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBrowserClosed, err)
		}

		if currentURL != lastURL {
			logger.Debugf(ctx, "URL changed: %s", currentURL)

			lastURL = currentURL
		}

		if err = s.validateLoginURL(currentURL); err != nil {
			return "", err
		}

		if sessionToken, ok := s.findSessionCookie(ctx, page); ok {
			return sessionToken, nil
		}

		_ = bar.Add(1)

		s.pause()
	}
}

// validateLoginURL checks that the user stays on the application origin.
func (s *BrowserLoginService) validateLoginURL(currentURL string) error {
	if currentURL == "" || strings.HasPrefix(currentURL, blankPagePrefix) {
		return nil
	}

	if !utils.IsSameOrigin(currentURL, s.origin) {
		return fmt.Errorf("%w to: %s", ErrNavigatedAway, currentURL)
	}

	return nil
}

// newSpinner shows an indeterminate spinner on stderr unless the log level hides info output.
func (s *BrowserLoginService) newSpinner() *progressbar.ProgressBar {
	if logger.Level() > zap.InfoLevel {
		return progressbar.NewOptions(-1, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Waiting for sign-in"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond))
}
