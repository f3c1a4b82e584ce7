package auth

import (
	"context"
	"errors"
)

// Sentinel errors surfaced by providers. The manager passes their text
// through to callers verbatim.
var (
	// ErrNoSession is returned by FetchSession when the provider holds no
	// restorable session.
	ErrNoSession = errors.New("no active session")
)

// ProviderEventType identifies a transition pushed by the identity backend
type ProviderEventType string

const (
	EventSignedIn       ProviderEventType = "SIGNED_IN"
	EventSignedOut      ProviderEventType = "SIGNED_OUT"
	EventTokenRefreshed ProviderEventType = "TOKEN_REFRESHED"
)

// ProviderEvent is a message on a provider's event stream. User is set for
// SIGNED_IN, AccessToken for SIGNED_IN and TOKEN_REFRESHED.
type ProviderEvent struct {
	Type        ProviderEventType
	User        *AuthUser
	AccessToken string
}

// ProviderSession pairs an identity with the bearer credential issued for it
type ProviderSession struct {
	User        AuthUser
	AccessToken string
}

// Provider is the capability interface behind the session manager. Exactly
// one implementation is selected at construction (SelectProvider); the
// manager itself contains no per-mode branching.
//
// SignUp returns a nil session with a non-empty advisory string when the
// backend accepted the registration but requires email confirmation before
// issuing a session.
type Provider interface {
	Mode() Mode

	SignUp(ctx context.Context, data SignUpData) (*ProviderSession, string, error)
	SignIn(ctx context.Context, data SignInData) (*ProviderSession, error)
	OAuthURL(ctx context.Context, oauthProvider string) (string, error)
	SignOut(ctx context.Context, accessToken string) error
	FetchSession(ctx context.Context) (*ProviderSession, error)
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
	UpdateProfile(ctx context.Context, updates ProfileUpdate) error

	// Events exposes the provider's asynchronous auth-event stream. A nil
	// channel means the provider never pushes events (standalone mode).
	Events() <-chan ProviderEvent

	Close() error
}
