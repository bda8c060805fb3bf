package verify

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateUserMessage finalizes a verified signup. The password arrives
// already digested; the server stores it as-is and recomputes the same
// digest on every credential check.
type CreateUserMessage struct {
	Email          string `json:"email"`
	PasswordDigest string `json:"password"`

	OnResponse func(u *User)
}

func (e CreateUserMessage) Type() string { return "user.create" }

type CreateUserHandler struct {
	repo RepositoryManager
}

func NewCreateUserHandler(repo RepositoryManager) *CreateUserHandler {
	return &CreateUserHandler{repo: repo}
}

func (h *CreateUserHandler) Execute(ctx context.Context, event CreateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user creation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateUserHandler) execute(ctx context.Context, event CreateUserMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Users().ExistsByEmail(ctx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}
		if exists {
			return ErrEmailAlreadyExists
		}

		user.Email = event.Email
		user.Name = usernameFromEmail(event.Email)
		user.PasswordDigest = event.PasswordDigest

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user creation transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user.Sanitized())
	}

	return nil
}

func usernameFromEmail(email string) string {
	if strings.Contains(email, "@") {
		return strings.Split(email, "@")[0]
	}
	return email
}
