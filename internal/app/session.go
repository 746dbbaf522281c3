package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/authkeeper/internal/config"
	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/metrics"
	"github.com/oshokin/authkeeper/internal/service/auth"
	"github.com/oshokin/authkeeper/internal/storage"
	"github.com/oshokin/authkeeper/internal/token"
)

// ErrInvalidToken indicates that a token given on the command line is blank or a placeholder.
var ErrInvalidToken = errors.New("token is empty or a placeholder, the session was cleared")

// session bundles the store and the storage backing it.
type session struct {
	store   *auth.Store
	storage *storage.FileStorage
}

// openSession creates the file-backed store and restores the persisted token.
func openSession(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *session {
	fileStorage := storage.NewFileStorage(cfg.StoragePath)
	store := auth.NewStore(fileStorage,
		auth.WithStorageKey(cfg.StorageKey),
		auth.WithMetrics(m))

	store.Authenticated().Subscribe(func(authenticated bool) {
		logger.Debugf(ctx, "Authenticated: %t", authenticated)
	})

	store.LoadAuthFromStorage(ctx)

	return &session{
		store:   store,
		storage: fileStorage,
	}
}

// runAuthSet stores a token given by the user.
func runAuthSet(ctx context.Context, cfg *config.Config, rawToken string, out io.Writer) error {
	tel := newTelemetry(ctx, cfg)
	defer tel.push(ctx, "auth_set")

	s := openSession(ctx, cfg, tel.metrics)
	s.store.SetAuth(ctx, rawToken)

	value, ok := s.store.Token()
	if !ok {
		return ErrInvalidToken
	}

	_, err := fmt.Fprintf(out, "Session token saved to %s (%s)\n", s.storage.Path(), token.Mask(value))

	return err
}

// runAuthLogin captures a token through the browser and stores it.
func runAuthLogin(ctx context.Context, cfg *config.Config, loginService auth.LoginService, out io.Writer) error {
	tel := newTelemetry(ctx, cfg)
	defer tel.push(ctx, "auth_login")

	sessionToken, err := loginService.LoginAndExtractToken(ctx)
	if err != nil {
		return err
	}

	s := openSession(ctx, cfg, tel.metrics)
	s.store.SetAuth(ctx, sessionToken)

	if !s.store.IsAuthenticated() {
		return ErrInvalidToken
	}

	_, err = fmt.Fprintf(out, "Signed in, session token saved to %s\n", s.storage.Path())

	return err
}

// runAuthLogout clears the session.
func runAuthLogout(ctx context.Context, cfg *config.Config, out io.Writer) error {
	tel := newTelemetry(ctx, cfg)
	defer tel.push(ctx, "auth_logout")

	s := openSession(ctx, cfg, tel.metrics)
	s.store.ClearAuth(ctx)

	_, err := fmt.Fprintln(out, "Signed out")

	return err
}

// runAuthStatus prints the current session.
func runAuthStatus(ctx context.Context, cfg *config.Config, now time.Time, out io.Writer) error {
	tel := newTelemetry(ctx, cfg)
	defer tel.push(ctx, "auth_status")

	s := openSession(ctx, cfg, tel.metrics)

	value, ok := s.store.Token()
	if !ok {
		_, err := fmt.Fprintf(out, "Not signed in (storage: %s)\n", s.storage.Path())

		return err
	}

	status := fmt.Sprintf("Signed in with token %s (storage: %s)", token.Mask(value), s.storage.Path())

	updatedAt, hasUpdatedAt, err := s.storage.UpdatedAt(s.store.StorageKey())
	if err != nil {
		logger.Debugf(ctx, "Could not read token update time: %v", err)
	}

	if hasUpdatedAt {
		status += ", saved " + humanizeSince(updatedAt, now)
	}

	_, err = fmt.Fprintln(out, status)

	return err
}
