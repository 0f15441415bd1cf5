package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oselu/walletpay/internal/domain"
	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/repository"
)

const minPasswordLength = 8

// ErrWeakPassword rejects registration passwords below the minimum length.
var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", minPasswordLength)

// ErrMissingField rejects registrations with blank username or email.
var ErrMissingField = errors.New("username and email are required")

// UserService handles registration and credential checks.
type UserService struct {
	repo *repository.Repository
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, ErrMissingField
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies username/password and returns the user on success.
// Unknown user and wrong password collapse into one error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// ListAll returns every registered user. The router restricts this to admins.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}
