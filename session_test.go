package verify_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	verify "github.com/goliatone/go-verify"
)

func newTestReconciler(t *testing.T) (*verify.SessionReconciler, *fakeUsers) {
	t.Helper()

	store := newFakeUsers()
	reconciler, err := verify.NewSessionReconciler(store, "bearer-secret")
	assert.NoError(t, err)
	reconciler.WithLogger(quietLogger{})
	return reconciler, store
}

func TestNewSessionReconciler(t *testing.T) {
	t.Run("fails fast without a bearer secret", func(t *testing.T) {
		_, err := verify.NewSessionReconciler(newFakeUsers(), "")
		assert.Error(t, err)
	})
}

func TestSessionReconciler_Reconcile(t *testing.T) {
	t.Run("creates exactly one record for a new email", func(t *testing.T) {
		reconciler, store := newTestReconciler(t)

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{
				Email: "new@example.com",
				Name:  "New User",
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, store.registers)

		stored, err := store.GetByEmail(context.Background(), "new@example.com")
		assert.NoError(t, err)
		assert.Equal(t, stored.ID.String(), session.User.ID)
		assert.Equal(t, verify.DefaultPermissions, session.User.Permissions)
	})

	t.Run("refreshes a changed name on an existing record", func(t *testing.T) {
		reconciler, store := newTestReconciler(t)
		seedCredentialUser(t, store, "user@example.com", "secret123")

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{
				Email: "user@example.com",
				Name:  "Renamed User",
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "Renamed User", session.User.Name)

		stored, err := store.GetByEmail(context.Background(), "user@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "Renamed User", stored.Name)
	})

	t.Run("is idempotent", func(t *testing.T) {
		reconciler, store := newTestReconciler(t)

		session := &verify.SessionObject{
			User: verify.SessionUser{
				Email: "new@example.com",
				Name:  "New User",
			},
		}

		first, err := reconciler.Reconcile(context.Background(), session)
		assert.NoError(t, err)

		second, err := reconciler.Reconcile(context.Background(), first)
		assert.NoError(t, err)

		assert.Equal(t, first.User.ID, second.User.ID)
		assert.Equal(t, 1, store.registers)
		assert.Equal(t, 2, store.upserts)
	})

	t.Run("applies the default image when absent", func(t *testing.T) {
		reconciler, store := newTestReconciler(t)

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{
				Email: "new@example.com",
				Name:  "New User",
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, verify.DefaultImage, session.User.Image)

		stored, err := store.GetByEmail(context.Background(), "new@example.com")
		assert.NoError(t, err)
		assert.Equal(t, verify.DefaultImage, stored.Image)
	})

	t.Run("derives the per-session integrity secret", func(t *testing.T) {
		reconciler, _ := newTestReconciler(t)

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{
				Email: "new@example.com",
				Name:  "New User",
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, verify.HashSecret("new@example.com"+"bearer-secret"), session.User.Secret)
	})

	t.Run("repository wins over client-asserted fields", func(t *testing.T) {
		reconciler, store := newTestReconciler(t)
		seedCredentialUser(t, store, "user@example.com", "secret123")

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{
				ID:          "forged-id",
				Email:       "user@example.com",
				Name:        "Test User",
				Permissions: []string{"admin"},
			},
		})
		assert.NoError(t, err)

		stored, err := store.GetByEmail(context.Background(), "user@example.com")
		assert.NoError(t, err)
		assert.Equal(t, stored.ID.String(), session.User.ID)
		assert.Equal(t, verify.DefaultPermissions, session.User.Permissions)
	})

	t.Run("returns the session unmodified on repository failure", func(t *testing.T) {
		reconciler, store := newTestReconciler(t)
		store.failWith = errors.New("store is down", errors.CategoryInternal)

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{
				Email: "new@example.com",
				Name:  "New User",
			},
		})
		assert.NoError(t, err)
		assert.NotNil(t, session)
		assert.Empty(t, session.User.ID)
		assert.Equal(t, "New User", session.User.Name)
	})

	t.Run("passes through an identity without a name", func(t *testing.T) {
		// Some providers yield a verified email but no display name.
		// The session survives untouched rather than failing the login.
		reconciler, store := newTestReconciler(t)

		session, err := reconciler.Reconcile(context.Background(), &verify.SessionObject{
			User: verify.SessionUser{Email: "noname@example.com"},
		})
		assert.NoError(t, err)
		assert.NotNil(t, session)
		assert.Equal(t, "noname@example.com", session.User.Email)
		assert.Empty(t, session.User.ID)
		assert.Equal(t, 0, store.upserts)
		assert.Equal(t, 0, store.registers)
	})

	t.Run("fails on a missing session or email", func(t *testing.T) {
		reconciler, _ := newTestReconciler(t)

		_, err := reconciler.Reconcile(context.Background(), nil)
		assert.ErrorIs(t, err, verify.ErrMissingSession)

		_, err = reconciler.Reconcile(context.Background(), &verify.SessionObject{})
		assert.ErrorIs(t, err, verify.ErrMissingSession)
	})
}
