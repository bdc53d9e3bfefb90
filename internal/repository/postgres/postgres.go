package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/usersvc/internal/domain"
	"github.com/splax/usersvc/internal/repository"
)

// PostgreSQL error codes mapped to repository sentinels.
const (
	codeUniqueViolation  = "23505"
	codeStringTruncation = "22001"
	codeCheckViolation   = "23514"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ repository.UserRepository = (*Repository)(nil)

// CreateUser validates and inserts a user, assigning the surrogate key. The
// unique index on user_id backs the uniqueness invariant under concurrent
// creates; validation here keeps bad records out regardless of caller.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidUser, err)
	}
	const query = `INSERT INTO users (user_id, first_name, last_name, email, encrypted_password, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	row := r.pool.QueryRow(ctx, query, user.UserID, user.FirstName, user.LastName, user.Email, user.EncryptedPassword, user.CreatedAt)
	if err := row.Scan(&user.ID); err != nil {
		return translateError(err)
	}
	return nil
}

// GetUserByEmail fetches a user by login credential.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, user_id, first_name, last_name, email, encrypted_password, created_at
		FROM users WHERE email = $1 ORDER BY id LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByUserID fetches a user by public identifier.
func (r *Repository) GetUserByUserID(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT id, user_id, first_name, last_name, email, encrypted_password, created_at
		FROM users WHERE user_id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, userID))
}

// ListUsers returns all users ordered by insertion.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT id, user_id, first_name, last_name, email, encrypted_password, created_at
		FROM users ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.UserID, &u.FirstName, &u.LastName, &u.Email, &u.EncryptedPassword, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.UserID, &u.FirstName, &u.LastName, &u.Email, &u.EncryptedPassword, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// translateError maps PostgreSQL constraint failures to repository sentinels so
// callers never depend on driver error types.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", repository.ErrDuplicateUserID, pgErr.ConstraintName)
	case codeStringTruncation, codeCheckViolation:
		return fmt.Errorf("%w: %s", repository.ErrInvalidUser, pgErr.Message)
	default:
		return err
	}
}
