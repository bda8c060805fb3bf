package verify

import "github.com/goliatone/go-errors"

const (
	TextCodeMissingSecret      = "verify_missing_secret"
	TextCodeInvalidCredentials = "verify_invalid_credentials"
	TextCodeInvalidToken       = "verify_invalid_token"
	TextCodeMalformedTransport = "verify_malformed_transport"
	TextCodeMissingSession     = "verify_missing_session"
	TextCodeEmailExists        = "verify_email_exists"
	TextCodeMailerFailed       = "verify_mailer_failed"
)

// ErrMissingSecret is returned when a process-wide secret is absent at
// construction time. It is fatal: a missing secret must never silently
// produce a forgeable token.
var ErrMissingSecret = errors.New("required secret is not configured", errors.CategoryInternal).
	WithTextCode(TextCodeMissingSecret).
	WithCode(errors.CodeInternal)

// ErrInvalidCredentials covers every credential failure mode: unknown
// email, wrong password, empty input. Callers map it to a generic
// "invalid credentials" response without revealing which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned for expired, mismatched, or otherwise
// unverifiable tokens. Deliberately indistinct from the expired case.
var ErrInvalidToken = errors.New("invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrMalformedTransport is returned when a transport-encoded payload is
// not decodable. Treated by callers exactly like an invalid token.
var ErrMalformedTransport = errors.New("malformed transport payload", errors.CategoryBadInput).
	WithTextCode(TextCodeMalformedTransport).
	WithCode(errors.CodeBadRequest)

// ErrMissingSession indicates a misconfigured host: the reconciler was
// handed a session with no user identity to reconcile.
var ErrMissingSession = errors.New("session or session user is not defined", errors.CategoryInternal).
	WithTextCode(TextCodeMissingSession).
	WithCode(errors.CodeInternal)

// ErrEmailAlreadyExists is returned when signup is attempted for an
// email that already has an account.
var ErrEmailAlreadyExists = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrMailerFailed wraps a non-2xx or transport failure from the email
// provider.
var ErrMailerFailed = errors.New("email dispatch failed", errors.CategoryInternal).
	WithTextCode(TextCodeMailerFailed).
	WithCode(errors.CodeInternal)
