// Package auth bridges the core to the host process's ambient Google
// Cloud credentials. It is intentionally thin: the actual credential
// provider (service account, workload identity, gcloud ADC) is an
// external collaborator per spec.md §1 — this package only knows how
// to ask for a token and hand it to the caller.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
)

// scope is the single OAuth2 scope Vertex AI's publisher endpoints need.
const scope = "https://www.googleapis.com/auth/cloud-platform"

// AuthError wraps a credential-provider failure, per spec.md §7's
// error taxonomy ("Auth error (per request): credential provider
// refuses → HTTP 500").
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth error: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// Bridge is the single-method credential capability spec.md §4.3 and
// §9 describe: token() → bearer string, with no caching in the core.
type Bridge interface {
	Token(ctx context.Context) (string, error)
}

// DefaultBridge fetches a fresh bearer token from the ambient Google
// Cloud credential chain (environment, workload identity, metadata
// server, gcloud ADC — whichever google.FindDefaultCredentials finds)
// on every call. It never caches a token across calls; any caching of
// the underlying token source lives inside golang.org/x/oauth2 itself,
// exactly as spec.md §4.3 prescribes ("any caching lives inside the
// provider").
type DefaultBridge struct{}

// NewDefaultBridge returns a Bridge backed by the ambient Google Cloud
// credential chain.
func NewDefaultBridge() *DefaultBridge {
	return &DefaultBridge{}
}

// Token implements Bridge.
func (b *DefaultBridge) Token(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, scope)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("finding default credentials: %w", err)}
	}

	tok, err := creds.TokenSource.Token()
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("fetching token: %w", err)}
	}

	return tok.AccessToken, nil
}

// StaticBridge returns a fixed token (or a fixed error) on every call.
// It is used in tests; the proxy binary always wires DefaultBridge.
type StaticBridge struct {
	Tok string
	Err error
}

// Token implements Bridge.
func (b *StaticBridge) Token(ctx context.Context) (string, error) {
	if b.Err != nil {
		return "", &AuthError{Err: b.Err}
	}
	return b.Tok, nil
}
