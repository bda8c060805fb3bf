package verify_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	verify "github.com/goliatone/go-verify"
)

func TestHashSecret(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, verify.HashSecret("secret123"), verify.HashSecret("secret123"))
	})

	t.Run("distinguishes inputs", func(t *testing.T) {
		assert.NotEqual(t, verify.HashSecret("a"), verify.HashSecret("b"))
	})

	t.Run("produces fixed-length hex", func(t *testing.T) {
		digest := verify.HashSecret("secret123")
		assert.Len(t, digest, 64)
		assert.Regexp(t, "^[0-9a-f]+$", digest)
	})

	t.Run("matches the known sha256 vector", func(t *testing.T) {
		assert.Equal(t,
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			verify.HashSecret(""),
		)
	})
}

func TestTransportEncoding(t *testing.T) {
	t.Run("round-trips arbitrary payloads", func(t *testing.T) {
		payloads := []string{
			"",
			"user@example.com",
			`{"email":"user@example.com","token":"abc123"}`,
			"payload with spaces / slashes + plus",
		}

		for _, payload := range payloads {
			encoded := verify.EncodeTransport(payload)
			decoded, err := verify.DecodeTransport(encoded)
			assert.NoError(t, err)
			assert.Equal(t, payload, decoded)
		}
	})

	t.Run("encoding is path-segment safe", func(t *testing.T) {
		encoded := verify.EncodeTransport(`{"email":"user@example.com"}`)
		assert.NotContains(t, encoded, "/")
		assert.NotContains(t, encoded, "+")
	})

	t.Run("rejects malformed base64", func(t *testing.T) {
		_, err := verify.DecodeTransport("!!!not-base64!!!")
		assert.Error(t, err)
	})

	t.Run("rejects non-utf8 payloads", func(t *testing.T) {
		token := base64.URLEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd})
		_, err := verify.DecodeTransport(token)
		assert.Error(t, err)
	})
}
