package repository

import (
	"context"

	"github.com/splax/usersvc/internal/domain"
)

// UserRepository persists users. Implementations must reject records violating
// domain.User.Validate and guarantee user id uniqueness even under concurrent
// creates.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUserID(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}
