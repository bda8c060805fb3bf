package social

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleConfig holds Google OAuth configuration. The endpoint fields
// exist so tests can point the provider at a local server.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// Google implements Provider for Google sign in.
type Google struct {
	config     GoogleConfig
	httpClient *http.Client
}

// NewGoogle creates a new Google provider.
func NewGoogle(cfg GoogleConfig) *Google {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Google{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements Provider.
func (p *Google) Name() string {
	return "google"
}

// AuthCodeURL implements Provider.
func (p *Google) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"response_type": {"code"},
		"scope":         {strings.Join(p.config.Scopes, " ")},
		"state":         {state},
		"access_type":   {"offline"},
	}

	return p.config.AuthURL + "?" + params.Encode()
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// Exchange implements Provider.
func (p *Google) Exchange(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.CallbackURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, ErrTokenExchangeFailed.Category, ErrTokenExchangeFailed.Message).
			WithTextCode(TextCodeTokenExchangeFail)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errors.Wrap(err, ErrTokenExchangeFailed.Category, "failed to decode token response").
			WithTextCode(TextCodeTokenExchangeFail)
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" || tokenResp.AccessToken == "" {
		return nil, errors.New(ErrTokenExchangeFailed.Message, ErrTokenExchangeFailed.Category).
			WithTextCode(TextCodeTokenExchangeFail).
			WithMetadata(map[string]any{
				"status":      resp.StatusCode,
				"error":       tokenResp.Error,
				"description": tokenResp.ErrorDesc,
			})
	}

	expiresAt := time.Time{}
	if tokenResp.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   expiresAt,
		Scopes:      strings.Fields(tokenResp.Scope),
	}, nil
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// UserInfo implements Provider.
func (p *Google) UserInfo(ctx context.Context, token *Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, ErrUserInfoFailed.Category, ErrUserInfoFailed.Message).
			WithTextCode(TextCodeUserInfoFail)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(ErrUserInfoFailed.Message, ErrUserInfoFailed.Category).
			WithTextCode(TextCodeUserInfoFail).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
			})
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errors.Wrap(err, ErrUserInfoFailed.Category, "failed to decode userinfo response").
			WithTextCode(TextCodeUserInfoFail)
	}

	return &Profile{
		Subject:       info.Sub,
		Provider:      p.Name(),
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
