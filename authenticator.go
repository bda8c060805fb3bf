package verify

import (
	"context"
	"crypto/hmac"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// CredentialAuthenticator resolves an email and password pair to a
// stored identity. Every failure mode collapses into
// ErrInvalidCredentials so the caller cannot distinguish an unknown
// email from a wrong password.
type CredentialAuthenticator struct {
	store        UserStore
	bearerSecret string
	logger       Logger
}

// NewCredentialAuthenticator fails fast when the bearer secret is
// absent. Absence is a host misconfiguration, not a per-request error.
func NewCredentialAuthenticator(store UserStore, bearerSecret string) (*CredentialAuthenticator, error) {
	if bearerSecret == "" {
		return nil, ErrMissingSecret
	}

	return &CredentialAuthenticator{
		store:        store,
		bearerSecret: bearerSecret,
		logger:       defLogger{},
	}, nil
}

func (a *CredentialAuthenticator) WithLogger(logger Logger) *CredentialAuthenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Authorize returns the sanitized identity on an exact digest match
// and ErrInvalidCredentials otherwise. The stored digest is never
// logged and never returned.
func (a *CredentialAuthenticator) Authorize(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		a.logger.Error("authorize failed to retrieve user", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during authorization")
	}

	if user == nil || user.PasswordDigest == "" {
		return nil, ErrInvalidCredentials
	}

	presented := HashSecret(password)
	if !hmac.Equal([]byte(presented), []byte(user.PasswordDigest)) {
		return nil, ErrInvalidCredentials
	}

	return user.Sanitized(), nil
}
