package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/user-service/internal/domain"
)

// ErrInvalidCredentials is returned for an unknown identity or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// CredentialStore looks up stored credentials by email.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CredentialAuthenticator confirms an email/password pair against the user store.
type CredentialAuthenticator struct {
	users CredentialStore
}

// NewCredentialAuthenticator constructs an authenticator.
func NewCredentialAuthenticator(users CredentialStore) *CredentialAuthenticator {
	return &CredentialAuthenticator{users: users}
}

// Authenticate returns the confirmed email when password matches the stored hash.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return user.Email, nil
}
