package verify

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UserStore is the read side of the user repository, enough
// to resolve credentials to a stored record.
type UserStore interface {
	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
}

// UserUpserter is the merge operation the session reconciler needs.
// Upserts must be idempotent: concurrent calls for the same email
// converge on a single record.
type UserUpserter interface {
	UpsertByEmail(ctx context.Context, email string, fields UserFields) (*User, error)
}

// UserFields are the mutable display fields refreshed on reconcile.
type UserFields struct {
	Name  string
	Image string
}

// Mailer sends the verification message for a signup request.
type Mailer interface {
	Send(ctx context.Context, email, verificationURL string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] VERIFY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] VERIFY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] VERIFY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] VERIFY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
