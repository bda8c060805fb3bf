package verify

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SignupRequestMessage starts the signup flow for an email address:
// issue a verification token and deliver it out of band.
type SignupRequestMessage struct {
	Email string `json:"email"`

	OnResponse func(r *SignupRequestResponse)
}

func (e SignupRequestMessage) Type() string { return "signup.request" }

type SignupRequestResponse struct {
	Exists bool   `json:"exists"`
	Sent   bool   `json:"sent"`
	URL    string `json:"-"`
}

// SignupRequestHandler checks for an existing account, issues the
// token URL, and hands it to the mailer. The exists check reveals
// account existence on purpose; the signup form reports it to the
// user.
type SignupRequestHandler struct {
	repo   RepositoryManager
	tokens *TokenService
	mailer Mailer
}

func NewSignupRequestHandler(repo RepositoryManager, tokens *TokenService, mailer Mailer) *SignupRequestHandler {
	return &SignupRequestHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
	}
}

func (h *SignupRequestHandler) Execute(ctx context.Context, event SignupRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during signup request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupRequestHandler) execute(ctx context.Context, event SignupRequestMessage) error {
	resp := &SignupRequestResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	exists, err := h.repo.Users().ExistsByEmail(ctx, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	if exists {
		resp.Exists = true
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return ErrEmailAlreadyExists
	}

	url, err := h.tokens.Issue(event.Email)
	if err != nil {
		return err
	}
	resp.URL = url

	if err := h.mailer.Send(ctx, event.Email, url); err != nil {
		return err
	}

	resp.Sent = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
