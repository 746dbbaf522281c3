package auth

import (
	"context"
	"sync"

	"github.com/oshokin/authkeeper/internal/logger"
	"github.com/oshokin/authkeeper/internal/metrics"
	"github.com/oshokin/authkeeper/internal/reactive"
	"github.com/oshokin/authkeeper/internal/storage"
	"github.com/oshokin/authkeeper/internal/token"
)

// DefaultStorageKey is the storage key holding the persisted token.
const DefaultStorageKey = "token"

// Store is the single source of truth for the current session token.
//
// The token lives in a reactive cell ("" means absent) and the authenticated
// flag is derived from it, so the flag can never drift from the token.
// Mutations never fail: anything that is not a valid token clears the session,
// and storage errors are logged while the in-memory state still changes.
type Store struct {
	// mu serializes mutate-then-persist sequences so the cell and the
	// storage always agree on the last writer.
	mu sync.Mutex

	current       *reactive.Cell[string]
	authenticated *reactive.Derived[bool]

	storage    storage.Storage
	storageKey string
	metrics    *metrics.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStorageKey overrides the key the token is persisted under.
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.storageKey = key
		}
	}
}

// WithMetrics makes the store count its operations.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an empty Store persisting into st.
// A nil st keeps the token in memory only.
func NewStore(st storage.Storage, options ...StoreOption) *Store {
	if st == nil {
		st = storage.NewMemoryStorage()
	}

	current := reactive.NewCell("")

	s := &Store{
		current: current,
		authenticated: reactive.NewDerived(current, func(raw string) bool {
			_, ok := token.SanitizeString(raw)

			return ok
		}),
		storage:    st,
		storageKey: DefaultStorageKey,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// SetAuth stores newValue as the current token and persists it.
// Non-string input is coerced to a string first. If the result is not a
// valid token, SetAuth behaves exactly like ClearAuth.
func (s *Store) SetAuth(ctx context.Context, newValue any) {
	value, ok := token.SanitizeString(token.Coerce(newValue))
	if !ok {
		logger.Debug(ctx, "Rejected token value, clearing the session")
		s.ClearAuth(ctx)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Set(value)
	s.metrics.ObserveStoreMutation(metrics.MutationSet)

	if err := s.storage.Set(s.storageKey, value); err != nil {
		logger.WarnKV(ctx, "Failed to persist token", "key", s.storageKey, "error", err)

		return
	}

	logger.DebugKV(ctx, "Token stored", "token", token.Mask(value))
}

// ClearAuth drops the current token and its persisted copy. It is idempotent.
func (s *Store) ClearAuth(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Set("")
	s.metrics.ObserveStoreMutation(metrics.MutationClear)

	if err := s.storage.Remove(s.storageKey); err != nil {
		logger.WarnKV(ctx, "Failed to remove persisted token", "key", s.storageKey, "error", err)

		return
	}

	logger.Debug(ctx, "Token cleared")
}

// LoadAuthFromStorage replaces the current token with the persisted one.
// A missing, invalid or unreadable value leaves the store unauthenticated.
func (s *Store) LoadAuthFromStorage(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ObserveStoreMutation(metrics.MutationLoad)

	raw, found, err := s.storage.Get(s.storageKey)
	if err != nil {
		logger.WarnKV(ctx, "Failed to read persisted token", "key", s.storageKey, "error", err)
		s.current.Set("")

		return
	}

	value, ok := token.SanitizeString(raw)
	if found && !ok {
		logger.DebugKV(ctx, "Ignoring invalid persisted token", "key", s.storageKey)
	}

	s.current.Set(value)
}

// Token returns the current token and whether one is present.
func (s *Store) Token() (string, bool) {
	return token.SanitizeString(s.current.Get())
}

// GetToken returns the raw current token, "" when absent.
func (s *Store) GetToken() string {
	return s.current.Get()
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.authenticated.Get()
}

// Authenticated exposes the derived flag for subscription.
func (s *Store) Authenticated() *reactive.Derived[bool] {
	return s.authenticated
}

// Subscribe registers fn to be called with every new raw token value.
// fn runs while the store is mid-mutation and must not call back into
// SetAuth, ClearAuth or LoadAuthFromStorage.
func (s *Store) Subscribe(fn func(string)) func() {
	return s.current.Subscribe(fn)
}

// StorageKey returns the key the token is persisted under.
func (s *Store) StorageKey() string {
	return s.storageKey
}
