package verify

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SessionTTL is how long a minted session token stays valid.
const SessionTTL = 24 * time.Hour

// SessionClaims is the JWT payload carried in the session cookie
// between requests. The repository remains authoritative; these values
// are re-reconciled on every session read.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Image       string   `json:"image,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// SessionMinter signs and parses the session tokens that transport a
// SessionObject across requests.
type SessionMinter struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewSessionMinter(signingKey, issuer string) (*SessionMinter, error) {
	if signingKey == "" {
		return nil, ErrMissingSecret
	}

	return &SessionMinter{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        SessionTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the time source for expiry tests.
func (m *SessionMinter) WithClock(now func() time.Time) *SessionMinter {
	if now != nil {
		m.now = now
	}
	return m
}

// Sign mints a session token for user and returns it with its expiry.
func (m *SessionMinter) Sign(user *User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("user must not be nil", errors.CategoryInternal)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       user.Email,
		Name:        user.Name,
		Image:       user.Image,
		Permissions: user.Permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, expiresAt, nil
}

// Parse validates a raw session token and rebuilds the session object
// it carries. Expired or tampered tokens yield ErrInvalidToken.
func (m *SessionMinter) Parse(raw string) (*SessionObject, error) {
	parserOptions := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method", errors.CategoryAuth)
		}
		return m.signingKey, nil
	}, parserOptions...)

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	session := &SessionObject{
		User: SessionUser{
			ID:          claims.Subject,
			Name:        claims.Name,
			Email:       claims.Email,
			Image:       claims.Image,
			Permissions: claims.Permissions,
		},
	}

	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}
