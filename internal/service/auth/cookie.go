package auth

import (
	"context"

	"github.com/go-rod/rod/lib/proto"

	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/token"
)

// findSessionCookie returns the sanitized session cookie of the application origin, if any.
func (s *BrowserLoginService) findSessionCookie(ctx context.Context, page loginPage) (string, bool) {
	cookies, err := page.Cookies(s.origin)
	if err != nil {
		logger.Debugf(ctx, "Could not read cookies: %v", err)

		return "", false
	}

	return selectSessionCookie(ctx, cookies, s.cookieName)
}

// selectSessionCookie picks the named cookie and applies the token rules to its value.
// A cookie holding a sentinel or blank value does not count as a session.
func selectSessionCookie(ctx context.Context, cookies []*proto.NetworkCookie, name string) (string, bool) {
	for _, cookie := range cookies {
		if cookie == nil || cookie.Name != name {
			continue
		}

		value, ok := token.SanitizeString(cookie.Value)
		if !ok {
			logger.Debugf(ctx, "Ignoring '%s' cookie with an unusable value", name)

			continue
		}

		logger.Debugf(ctx, "Found '%s' cookie (domain: %s): %s", name, cookie.Domain, token.Mask(value))

		return value, true
	}

	return "", false
}
