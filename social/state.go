package social

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// StateManager handles OAuth state encoding and verification.
type StateManager interface {
	Encode(state *OAuthState) (string, error)
	Decode(token string) (*OAuthState, error)
}

// OAuthState is the data carried in the OAuth state parameter. The
// nonce binds the callback to the browser that started the flow.
type OAuthState struct {
	Nonce     string `json:"n"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// SignedStateManager issues HMAC-SHA256 signed, TTL-bound state
// capsules. The payload is not secret, only unforgeable.
type SignedStateManager struct {
	hmacKey []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewSignedStateManager creates a new signed state manager.
func NewSignedStateManager(hmacKey []byte, ttl time.Duration) *SignedStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &SignedStateManager{
		hmacKey: hmacKey,
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the time source, used by tests for expiry.
func (sm *SignedStateManager) WithClock(now func() time.Time) *SignedStateManager {
	if now != nil {
		sm.now = now
	}
	return sm
}

// Encode signs the state.
func (sm *SignedStateManager) Encode(state *OAuthState) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	if state.IssuedAt == 0 {
		state.IssuedAt = sm.now().Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = sm.now().Add(sm.ttl).Unix()
	}

	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	mac := hmac.New(sha256.New, sm.hmacKey)
	mac.Write(payload)
	signature := mac.Sum(nil)

	result := append(signature, payload...)

	return base64.URLEncoding.EncodeToString(result), nil
}

// Decode verifies the signature and expiry.
func (sm *SignedStateManager) Decode(token string) (*OAuthState, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	if len(data) < sha256.Size {
		return nil, ErrInvalidState
	}

	signature := data[:sha256.Size]
	payload := data[sha256.Size:]

	mac := hmac.New(sha256.New, sm.hmacKey)
	mac.Write(payload)
	expectedMAC := mac.Sum(nil)

	if !hmac.Equal(signature, expectedMAC) {
		return nil, ErrInvalidState
	}

	var state OAuthState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, ErrInvalidState
	}

	if sm.now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
