package verify_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	verify "github.com/goliatone/go-verify"
)

func TestNewSessionMinter(t *testing.T) {
	t.Run("fails fast without a signing key", func(t *testing.T) {
		_, err := verify.NewSessionMinter("", "go-verify")
		assert.Error(t, err)
	})
}

func TestSessionMinter_SignAndParse(t *testing.T) {
	user := &verify.User{
		ID:          uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		Name:        "Test User",
		Email:       "user@example.com",
		Image:       "/images/custom.png",
		Permissions: []string{"default"},
	}

	t.Run("round-trips the session identity", func(t *testing.T) {
		minter, err := verify.NewSessionMinter("bearer-secret", "go-verify")
		assert.NoError(t, err)

		raw, expiresAt, err := minter.Sign(user)
		assert.NoError(t, err)
		assert.False(t, expiresAt.IsZero())

		session, err := minter.Parse(raw)
		assert.NoError(t, err)
		assert.Equal(t, user.ID.String(), session.User.ID)
		assert.Equal(t, user.Email, session.User.Email)
		assert.Equal(t, user.Name, session.User.Name)
		assert.Equal(t, user.Image, session.User.Image)
		assert.Equal(t, user.Permissions, session.User.Permissions)
		assert.Equal(t, expiresAt.Unix(), session.ExpiresAt.Unix())
	})

	t.Run("reports the configured ttl as the expiry", func(t *testing.T) {
		base := time.Unix(1_700_000_000, 0)

		minter, err := verify.NewSessionMinter("bearer-secret", "go-verify")
		assert.NoError(t, err)
		minter.WithClock(func() time.Time { return base })

		_, expiresAt, err := minter.Sign(user)
		assert.NoError(t, err)
		assert.Equal(t, base.Add(verify.SessionTTL), expiresAt)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		base := time.Unix(1_700_000_000, 0)
		clock := base

		minter, err := verify.NewSessionMinter("bearer-secret", "go-verify")
		assert.NoError(t, err)
		minter.WithClock(func() time.Time { return clock })

		raw, _, err := minter.Sign(user)
		assert.NoError(t, err)

		clock = base.Add(verify.SessionTTL + time.Minute)
		_, err = minter.Parse(raw)
		assert.ErrorIs(t, err, verify.ErrInvalidToken)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		minter, err := verify.NewSessionMinter("bearer-secret", "go-verify")
		assert.NoError(t, err)

		other, err := verify.NewSessionMinter("other-secret", "go-verify")
		assert.NoError(t, err)

		raw, _, err := other.Sign(user)
		assert.NoError(t, err)

		_, err = minter.Parse(raw)
		assert.ErrorIs(t, err, verify.ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		minter, err := verify.NewSessionMinter("bearer-secret", "go-verify")
		assert.NoError(t, err)

		_, err = minter.Parse("not-a-jwt")
		assert.ErrorIs(t, err, verify.ErrInvalidToken)
	})

	t.Run("rejects a nil user on sign", func(t *testing.T) {
		minter, err := verify.NewSessionMinter("bearer-secret", "go-verify")
		assert.NoError(t, err)

		_, _, err = minter.Sign(nil)
		assert.Error(t, err)
	})
}
