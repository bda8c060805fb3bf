package verify

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user repository. UpsertByEmail is the merge operation
// the session reconciler drives: create if absent, else refresh the
// mutable display fields, returning the canonical record either way.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpsertByEmail(ctx context.Context, email string, fields UserFields) (*User, error)
	UpsertByEmailTx(ctx context.Context, tx bun.IDB, email string, fields UserFields) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ UserStore                    = (*users)(nil)
	_ UserUpserter                 = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	email = normalizeEmail(email)

	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := a.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}

	if repository.IsRecordNotFound(err) {
		return false, nil
	}

	return false, err
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) UpsertByEmail(ctx context.Context, email string, fields UserFields) (*User, error) {
	return a.UpsertByEmailTx(ctx, a.db, email, fields)
}

// UpsertByEmailTx is idempotent: concurrent calls for the same email
// converge because new records take a deterministic id derived from
// the email.
func (a *users) UpsertByEmailTx(ctx context.Context, tx bun.IDB, email string, fields UserFields) (*User, error) {
	email = normalizeEmail(email)

	record, err := a.GetByEmailTx(ctx, tx, email)
	if err == nil {
		record.Name = fields.Name
		if fields.Image != "" {
			record.Image = fields.Image
		}
		return a.Repository.UpdateTx(ctx, tx, record)
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	record = &User{
		Email: email,
		Name:  fields.Name,
		Image: fields.Image,
	}

	return a.RegisterTx(ctx, tx, record)
}

func prepareUserDefaults(user *User) {
	user.Email = normalizeEmail(user.Email)

	if user.ID == uuid.Nil {
		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		}
	}

	if user.Image == "" {
		user.Image = DefaultImage
	}

	if len(user.Permissions) == 0 {
		user.Permissions = append([]string{}, DefaultPermissions...)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
