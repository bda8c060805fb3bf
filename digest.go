package verify

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"unicode/utf8"

	"github.com/goliatone/go-errors"
)

// HashSecret returns the lowercase hex sha256 digest of value.
// It is deliberately unsalted: digests must be independently
// recomputable, both for credential comparison and for deriving
// verification tokens from the same inputs.
func HashSecret(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// EncodeTransport makes data safe to embed in a single URL path
// segment.
func EncodeTransport(data string) string {
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeTransport reverses EncodeTransport. Malformed or non-UTF8
// input yields ErrMalformedTransport; callers treat that as an invalid
// token, never as a crash.
func DecodeTransport(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", errors.Wrap(err, ErrMalformedTransport.Category, ErrMalformedTransport.Message).
			WithTextCode(TextCodeMalformedTransport)
	}

	if !utf8.Valid(raw) {
		return "", ErrMalformedTransport
	}

	return string(raw), nil
}
