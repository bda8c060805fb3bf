package verify

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultImage is assigned when an identity arrives without a profile
// picture.
const DefaultImage = "/images/default-pfp.png"

// DefaultPermissions is the grant every new account starts with.
var DefaultPermissions = []string{"default"}

// User is the user model. Email is the natural unique key; ID is
// assigned on creation and stable thereafter. PasswordDigest is only
// present for credential accounts, OAuth-originated users may lack it.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Image          string     `bun:"image" json:"image,omitempty"`
	PasswordDigest string     `bun:"password_digest" json:"-"`
	Permissions    []string   `bun:"permissions,type:jsonb" json:"permissions,omitempty"`
	Secret         string     `bun:"secret" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Sanitized returns a copy safe to hand back to callers: the stored
// digest and secret seed never leave the repository boundary.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}

	clone := *u
	clone.PasswordDigest = ""
	clone.Secret = ""
	return &clone
}
