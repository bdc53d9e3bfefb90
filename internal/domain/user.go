package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// NameMaxLen bounds first and last names. Writes exceeding it must fail, never
// truncate.
const NameMaxLen = 50

// User represents a registered account. ID is the storage surrogate key and is
// never exposed externally; UserID is the public identifier clients see.
type User struct {
	ID                int64
	UserID            string
	FirstName         string
	LastName          string
	Email             string
	EncryptedPassword []byte
	CreatedAt         time.Time
}

// Validate enforces the persistence invariants. The storage layer runs this
// before any write, so malformed records are rejected even when reached through
// an unanticipated caller.
func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.UserID, validation.Required),
		validation.Field(&u.FirstName, validation.Required, validation.RuneLength(1, NameMaxLen)),
		validation.Field(&u.LastName, validation.Required, validation.RuneLength(1, NameMaxLen)),
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.EncryptedPassword, validation.Required),
	)
}
