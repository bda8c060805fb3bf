package verify

import (
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// VerificationTTL is the width of the token time bucket. Expiry is
// non-sliding: a token minted near the end of a bucket is rejected as
// soon as the bucket rolls over, even if less than the full window has
// elapsed.
const VerificationTTL = 10 * time.Minute

// VerificationPath is the path prefix under which the encoded token
// envelope is appended as the final segment.
const VerificationPath = "/auth/verify/"

// TokenEnvelope is the self-describing capsule embedded in the
// verification URL. It is never persisted server-side; validity is
// recomputed from the email, the server secret, and the current time
// bucket.
type TokenEnvelope struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// TokenService issues and verifies stateless verification tokens.
// It is a pure function of its inputs plus immutable configuration,
// safe for concurrent use without locking.
type TokenService struct {
	serverSecret string
	baseURL      string
	now          func() time.Time
	logger       Logger
}

// NewTokenService fails fast when the server secret is absent; a
// missing secret must never silently produce a forgeable token.
func NewTokenService(serverSecret, baseURL string) (*TokenService, error) {
	if serverSecret == "" {
		return nil, ErrMissingSecret
	}

	return &TokenService{
		serverSecret: serverSecret,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		now:          time.Now,
		logger:       defLogger{},
	}, nil
}

func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// WithClock overrides the time source, used by tests to pin or advance
// the bucket.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// TimeBucket returns the current time truncated to VerificationTTL
// windows. Tokens derived from it are implicitly time-bound without a
// token store.
func (ts *TokenService) TimeBucket() int64 {
	return ts.now().UnixMilli() / VerificationTTL.Milliseconds()
}

// Issue builds the fully qualified verification URL for email. The
// final path segment is the transport-encoded JSON envelope.
func (ts *TokenService) Issue(email string) (string, error) {
	if email == "" {
		return "", errors.New("email is required to issue a token", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	envelope := TokenEnvelope{
		Email: email,
		Token: ts.tokenFor(email, ts.TimeBucket()),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to serialize token envelope")
	}

	return ts.baseURL + VerificationPath + EncodeTransport(string(payload)), nil
}

// Verify recomputes the expected token for the current bucket and
// compares it against the presented value. It returns false for any
// mismatch, including an expired bucket, and never panics on
// well-formed-but-wrong input. The comparison is constant-time.
func (ts *TokenService) Verify(email, presented string) bool {
	if email == "" || presented == "" {
		return false
	}

	expected := ts.tokenFor(email, ts.TimeBucket())
	return hmac.Equal([]byte(expected), []byte(presented))
}

// Decode unpacks a transport-encoded envelope extracted from a
// verification URL segment.
func (ts *TokenService) Decode(segment string) (*TokenEnvelope, error) {
	data, err := DecodeTransport(segment)
	if err != nil {
		return nil, err
	}

	envelope := &TokenEnvelope{}
	if err := json.Unmarshal([]byte(data), envelope); err != nil {
		return nil, errors.Wrap(err, ErrMalformedTransport.Category, ErrMalformedTransport.Message).
			WithTextCode(TextCodeMalformedTransport)
	}

	return envelope, nil
}

func (ts *TokenService) tokenFor(email string, bucket int64) string {
	return HashSecret(fmt.Sprintf("%s%s%s", email, strconv.FormatInt(bucket, 10), ts.serverSecret))
}
