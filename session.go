package verify

import (
	"context"
	"time"
)

// SessionUser is the identity carried inside a session. Canonical
// values come from the repository on reconcile; anything the client
// asserted is overwritten.
type SessionUser struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Image       string   `json:"image,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Secret      string   `json:"-"`
}

// SessionObject is ephemeral: it is re-derived on every access from
// the signed session token plus a repository round trip, never stored
// as its own entity.
type SessionObject struct {
	User      SessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
}

// upsertTimeout bounds the repository round trip so a slow store fails
// the reconcile instead of hanging the session read.
const upsertTimeout = 10 * time.Second

// SessionReconciler upserts the session identity into the user
// repository on every session materialization and merges the canonical
// record back into the session.
type SessionReconciler struct {
	users        UserUpserter
	bearerSecret string
	logger       Logger
}

// NewSessionReconciler fails fast when the bearer secret is absent.
func NewSessionReconciler(users UserUpserter, bearerSecret string) (*SessionReconciler, error) {
	if bearerSecret == "" {
		return nil, ErrMissingSecret
	}

	return &SessionReconciler{
		users:        users,
		bearerSecret: bearerSecret,
		logger:       defLogger{},
	}, nil
}

func (r *SessionReconciler) WithLogger(logger Logger) *SessionReconciler {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Reconcile requires session.User.Email to already be populated by an
// upstream identity source, credentials or OAuth. It derives the
// per-session integrity secret, upserts the identity by email, and
// overwrites id, name, image, and permissions with the repository's
// canonical values. An identity without a display name skips the
// upsert and passes through unreconciled; a repository failure is
// likewise non-fatal, logged and returned as the unmodified session.
func (r *SessionReconciler) Reconcile(ctx context.Context, session *SessionObject) (*SessionObject, error) {
	if session == nil || session.User.Email == "" {
		return nil, ErrMissingSession
	}

	// Integrity tag, currently unchecked downstream. Kept so a future
	// tamper check can compare it against the stored seed.
	session.User.Secret = HashSecret(session.User.Email + r.bearerSecret)

	if session.User.Name == "" {
		return session, nil
	}

	image := session.User.Image
	if image == "" {
		image = DefaultImage
	}

	ctx, cancel := context.WithTimeout(ctx, upsertTimeout)
	defer cancel()

	user, err := r.users.UpsertByEmail(ctx, session.User.Email, UserFields{
		Name:  session.User.Name,
		Image: image,
	})
	if err != nil {
		r.logger.Error("session reconcile upsert failed", "email", session.User.Email, "error", err)
		return session, nil
	}

	session.User.ID = user.ID.String()
	session.User.Name = user.Name
	session.User.Image = user.Image
	session.User.Permissions = user.Permissions

	return session, nil
}
