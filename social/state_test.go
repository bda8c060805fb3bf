package social_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-verify/social"
)

func TestSignedStateManager(t *testing.T) {
	manager := social.NewSignedStateManager([]byte("hmac-key"), 0)

	t.Run("round-trips a state capsule", func(t *testing.T) {
		token, err := manager.Encode(&social.OAuthState{})
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		state, err := manager.Decode(token)
		assert.NoError(t, err)
		assert.NotEmpty(t, state.Nonce)
		assert.Greater(t, state.ExpiresAt, state.IssuedAt)
	})

	t.Run("issues a distinct nonce per capsule", func(t *testing.T) {
		first, err := manager.Encode(&social.OAuthState{})
		assert.NoError(t, err)
		second, err := manager.Encode(&social.OAuthState{})
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("rejects a tampered capsule", func(t *testing.T) {
		token, err := manager.Encode(&social.OAuthState{})
		assert.NoError(t, err)

		raw, err := base64.URLEncoding.DecodeString(token)
		assert.NoError(t, err)
		raw[len(raw)-1] ^= 0xff

		_, err = manager.Decode(base64.URLEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, social.ErrInvalidState)
	})

	t.Run("rejects a capsule signed with another key", func(t *testing.T) {
		other := social.NewSignedStateManager([]byte("other-key"), 0)

		token, err := other.Encode(&social.OAuthState{})
		assert.NoError(t, err)

		_, err = manager.Decode(token)
		assert.ErrorIs(t, err, social.ErrInvalidState)
	})

	t.Run("rejects an expired capsule", func(t *testing.T) {
		base := time.Unix(1_700_000_000, 0)
		clock := base

		expiring := social.NewSignedStateManager([]byte("hmac-key"), 0)
		expiring.WithClock(func() time.Time { return clock })

		token, err := expiring.Encode(&social.OAuthState{})
		assert.NoError(t, err)

		clock = base.Add(11 * time.Minute)
		_, err = expiring.Decode(token)
		assert.ErrorIs(t, err, social.ErrStateExpired)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := manager.Decode("!!!not-base64!!!")
		assert.ErrorIs(t, err, social.ErrInvalidState)

		_, err = manager.Decode(base64.URLEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, social.ErrInvalidState)
	})

	t.Run("rejects a nil state on encode", func(t *testing.T) {
		_, err := manager.Encode(nil)
		assert.ErrorIs(t, err, social.ErrInvalidState)
	})
}
