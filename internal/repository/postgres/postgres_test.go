package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/splax/usersvc/internal/repository"
)

func TestTranslateErrorUniqueViolation(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "users_user_id_key"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUserID)
	assert.Contains(t, err.Error(), "users_user_id_key")
}

func TestTranslateErrorStringTruncation(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: codeStringTruncation, Message: "value too long for type character varying(50)"})
	assert.ErrorIs(t, err, repository.ErrInvalidUser)
}

func TestTranslateErrorCheckViolation(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: codeCheckViolation, Message: "new row violates check constraint"})
	assert.ErrorIs(t, err, repository.ErrInvalidUser)
}

func TestTranslateErrorPassesThroughUnknown(t *testing.T) {
	cause := errors.New("connection reset")
	assert.Equal(t, cause, translateError(cause))

	pgErr := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(pgErr), translateError(pgErr))
}
