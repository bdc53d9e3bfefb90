// Package user implements registration, login, and token authorization flows.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/splax/usersvc/internal/config"
	"github.com/splax/usersvc/internal/domain"
	"github.com/splax/usersvc/internal/repository"
	"github.com/splax/usersvc/internal/ws"
	"github.com/splax/usersvc/pkg/crypto"
	jwtpkg "github.com/splax/usersvc/pkg/jwt"
)

var (
	// ErrPasswordMismatch indicates password and repeat password differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials covers both unknown email and wrong password, so a
	// caller cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid login credentials")
)

// Service handles identity workflows.
type Service struct {
	users  repository.UserRepository
	events *ws.Hub
	logger *slog.Logger
	cfg    config.Config
}

// New constructs a Service. events may be nil when no stream is attached.
func New(users repository.UserRepository, events *ws.Hub, logger *slog.Logger, cfg config.Config) Service {
	return Service{users: users, events: events, logger: logger, cfg: cfg}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	FirstName      string
	LastName       string
	Email          string
	Password       string
	RepeatPassword string
}

// Register creates a new user with a generated public id and a bcrypt-secured
// password. The store enforces field and uniqueness invariants.
func (s Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Password != in.RepeatPassword {
		return nil, ErrPasswordMismatch
	}
	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		UserID:            uuid.NewString(),
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             strings.TrimSpace(in.Email),
		EncryptedPassword: hash,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.publishRegistered(user)
	s.logger.Info("user registered", "user_id", user.UserID)
	return user, nil
}

// Login authenticates a user and mints a session token bound to the public id.
// Unknown email and wrong password collapse into the same error.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := crypto.ComparePassword(user.EncryptedPassword, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := jwtpkg.GenerateToken(user.UserID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.UserID)
	return user, token, nil
}

// Authorize validates a bearer token and returns its claims. Verification is
// pure computation; the store is not consulted.
func (s Service) Authorize(token string) (*jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errors.New("token required")
	}
	return jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
}

// GetByUserID loads the full record behind a resolved identity.
func (s Service) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetUserByUserID(ctx, userID)
}

// List returns all registered users in insertion order.
func (s Service) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s Service) publishRegistered(user *domain.User) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"type":       "user.registered",
		"user_id":    user.UserID,
		"email":      user.Email,
		"created_at": user.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.Error("marshal registration event", "error", err)
		return
	}
	s.events.Broadcast(payload)
}
