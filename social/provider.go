// Package social holds the third-party identity consumers. OAuth
// itself is delegated entirely to the provider; this package only
// turns an authorization code into a verified email, name, and image
// triple.
package social

import (
	"context"
	"time"
)

// Provider is an OAuth2 identity source.
type Provider interface {
	// Name returns the provider identifier (e.g., "google").
	Name() string

	// AuthCodeURL returns the URL to redirect users for authorization.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*Token, error)

	// UserInfo fetches the user's profile using the access token.
	UserInfo(ctx context.Context, token *Token) (*Profile, error)
}

// Token represents an OAuth2 token response.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	Scopes      []string
}

// Profile is the normalized identity a provider yields. Only verified
// emails are admitted into the session flow.
type Profile struct {
	Subject       string
	Provider      string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
