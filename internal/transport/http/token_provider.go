package http

//go:generate $MOCKGEN -source=token_provider.go -destination=mocks/token_provider_mock.go

// TokenProvider supplies the current raw session token.
// An empty string means there is no session.
type TokenProvider interface {
	// GetToken returns the current token as stored, without validation.
	GetToken() string
}
