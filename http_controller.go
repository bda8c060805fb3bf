package verify

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-verify/social"
)

// SessionCookieName carries the signed session token between requests.
const SessionCookieName = "session_token"

// StateCookieName pins the OAuth state to the browser that started the
// flow; the callback requires cookie and query parameter to match.
const StateCookieName = "oauth_state"

type ControllerRoutes struct {
	Email          string
	TokenVerify    string
	UserExists     string
	UserCreate     string
	SignIn         string
	Session        string
	Google         string
	GoogleCallback string
}

// Controller binds the core services to the HTTP surface consumed by
// the UI. Payloads are validated at the boundary before they reach
// any core logic.
type Controller struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Tokens     *TokenService
	Auth       *CredentialAuthenticator
	Reconciler *SessionReconciler
	Minter     *SessionMinter
	Mailer     Mailer
	Google     social.Provider
	States     social.StateManager
	Routes     *ControllerRoutes
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: defLogger{},
		Routes: &ControllerRoutes{
			Email:          "/api/email",
			TokenVerify:    "/api/auth/token/verify",
			UserExists:     "/api/users/:data",
			UserCreate:     "/api/users",
			SignIn:         "/api/auth/signin",
			Session:        "/api/auth/session",
			Google:         "/auth/google",
			GoogleCallback: "/auth/google/callback",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in verify controller...")
	}

	if c.Tokens == nil || c.Auth == nil || c.Reconciler == nil || c.Minter == nil {
		panic("Missing core services in verify controller...")
	}

	if c.Google != nil && c.States == nil {
		panic("Missing StateManager for social provider in verify controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterRoutes mounts every endpoint. The Google pair is only
// registered when a provider is configured.
func (a *Controller) RegisterRoutes(app *fiber.App) {
	app.Post(a.Routes.Email, a.SendVerificationEmail)
	app.Post(a.Routes.TokenVerify, a.VerifyToken)
	app.Get(a.Routes.UserExists, a.UserExists)
	app.Post(a.Routes.UserCreate, a.CreateUser)
	app.Post(a.Routes.SignIn, a.SignIn)
	app.Get(a.Routes.Session, a.Session)

	if a.Google != nil {
		app.Get(a.Routes.Google, a.GoogleRedirect)
		app.Get(a.Routes.GoogleCallback, a.GoogleCallback)
	}
}

type EmailRequestPayload struct {
	Email string `json:"email"`
}

func (r EmailRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// SendVerificationEmail issues a verification token for the address
// and dispatches it through the mail provider.
func (a *Controller) SendVerificationEmail(ctx *fiber.Ctx) error {
	payload := new(EmailRequestPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	handler := NewSignupRequestHandler(a.Repo, a.Tokens, a.Mailer)
	err := handler.Execute(ctx.UserContext(), SignupRequestMessage{Email: payload.Email})
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return ctx.Status(http.StatusConflict).JSON(fiber.Map{
				"message": "User already exists",
			})
		}
		a.Logger.Error("signup request failed", "error", err)
		return a.internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Success",
	})
}

type TokenVerifyPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (r TokenVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Token, validation.Required),
	)
}

// VerifyToken checks a presented token against the current time
// bucket. The response never distinguishes expired from tampered.
func (a *Controller) VerifyToken(ctx *fiber.Ctx) error {
	payload := new(TokenVerifyPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	if !a.Tokens.Verify(payload.Email, payload.Token) {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid or expired token",
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Success",
	})
}

// UserExists reports whether an account exists for the
// transport-encoded email in the path. Existence is deliberately
// revealed here; the signup form uses it.
func (a *Controller) UserExists(ctx *fiber.Ctx) error {
	data := ctx.Params("data")

	email, err := DecodeTransport(data)
	if err != nil {
		return a.badRequest(ctx, "Invalid request path")
	}

	exists, err := a.Repo.Users().ExistsByEmail(ctx.UserContext(), email)
	if err != nil {
		a.Logger.Error("user exists check failed", "error", err)
		return a.internalError(ctx)
	}

	if !exists {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Success",
	})
}

type CreateUserPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(64, 64), is.Hexadecimal),
	)
}

// CreateUser stores a verified signup. The password field is the
// sha256 digest computed by the client after token verification.
func (a *Controller) CreateUser(ctx *fiber.Ctx) error {
	payload := new(CreateUserPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	var created *User
	handler := NewCreateUserHandler(a.Repo)
	err := handler.Execute(ctx.UserContext(), CreateUserMessage{
		Email:          payload.Email,
		PasswordDigest: payload.Password,
		OnResponse: func(u *User) {
			created = u
		},
	})

	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return ctx.Status(http.StatusConflict).JSON(fiber.Map{
				"message": "User already exists",
			})
		}
		a.Logger.Error("create user failed", "error", err)
		return a.internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Success",
		"user":    created,
	})
}

type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignIn authorizes a credential pair, mints the session token, runs
// the reconciler once, and returns the enriched session. Failures are
// a uniform 401.
func (a *Controller) SignIn(ctx *fiber.Ctx) error {
	payload := new(SignInPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Invalid request body")
	}

	user, err := a.Auth.Authorize(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid credentials",
			})
		}
		a.Logger.Error("sign in failed", "error", err)
		return a.internalError(ctx)
	}

	return a.establishSession(ctx, user)
}

// Session materializes the current session from the cookie, runs the
// reconciler, and returns the enriched view. This is the upsert-on-
// every-session-read path.
func (a *Controller) Session(ctx *fiber.Ctx) error {
	raw := ctx.Cookies(SessionCookieName)
	if raw == "" {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	session, err := a.Minter.Parse(raw)
	if err != nil {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	session, err = a.Reconciler.Reconcile(ctx.UserContext(), session)
	if err != nil {
		a.Logger.Error("session reconcile failed", "error", err)
		return a.internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(session)
}

// GoogleRedirect sends the user to the provider's consent screen with
// a signed state parameter, mirrored into a short-lived cookie.
func (a *Controller) GoogleRedirect(ctx *fiber.Ctx) error {
	state, err := a.States.Encode(&social.OAuthState{})
	if err != nil {
		a.Logger.Error("google state encode failed", "error", err)
		return a.internalError(ctx)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return ctx.Redirect(a.Google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback verifies the state against the cookie set on
// redirect, then consumes the provider's verified email, name, and
// image, funneling the identity through the same session
// establishment as credential sign in.
func (a *Controller) GoogleCallback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return a.badRequest(ctx, "Missing authorization code")
	}

	state := ctx.Query("state")
	if state == "" || state != ctx.Cookies(StateCookieName) {
		return a.badRequest(ctx, "Invalid state")
	}

	if _, err := a.States.Decode(state); err != nil {
		return a.badRequest(ctx, "Invalid state")
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	token, err := a.Google.Exchange(ctx.UserContext(), code)
	if err != nil {
		a.Logger.Error("google exchange failed", "error", err)
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	profile, err := a.Google.UserInfo(ctx.UserContext(), token)
	if err != nil {
		a.Logger.Error("google userinfo failed", "error", err)
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	if !profile.EmailVerified {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	return a.establishSession(ctx, &User{
		Email: profile.Email,
		Name:  profile.Name,
		Image: profile.Picture,
	})
}

func (a *Controller) establishSession(ctx *fiber.Ctx, user *User) error {
	session, err := a.Reconciler.Reconcile(ctx.UserContext(), &SessionObject{
		User: SessionUser{
			Name:        user.Name,
			Email:       user.Email,
			Image:       user.Image,
			Permissions: user.Permissions,
		},
	})
	if err != nil {
		a.Logger.Error("session establish reconcile failed", "error", err)
		return a.internalError(ctx)
	}

	canonical := &User{
		Name:        session.User.Name,
		Email:       session.User.Email,
		Image:       session.User.Image,
		Permissions: session.User.Permissions,
	}
	if id, err := parseUserID(session.User.ID); err == nil {
		canonical.ID = id
	}

	signed, expiresAt, err := a.Minter.Sign(canonical)
	if err != nil {
		a.Logger.Error("session sign failed", "error", err)
		return a.internalError(ctx)
	}
	session.ExpiresAt = expiresAt

	ctx.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return ctx.Status(http.StatusOK).JSON(session)
}

func (a *Controller) badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
		"message": message,
	})
}

func (a *Controller) internalError(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal error",
	})
}
