package domain

import (
	"context"
	"time"
)

// Sign-in providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Provider     string    `json:"provider"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is set by the repository on create.
func NewUser(email, displayName, provider string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:       email,
		DisplayName: displayName,
		Provider:    provider,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// FederatedIdentity is the identity asserted by an external sign-in provider.
type FederatedIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// FederatedVerifier validates a provider access token and returns the identity
// it belongs to.
type FederatedVerifier interface {
	Verify(ctx context.Context, provider, accessToken string) (*FederatedIdentity, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// AuthService defines sign-up and sign-in. Every other service receives the
// caller's identity explicitly; there is no current-user global.
type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (token string, user *User, err error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	// FederatedLogin signs in with a Google or Facebook access token, creating
	// the user on first sign-in.
	FederatedLogin(ctx context.Context, provider, accessToken string) (token string, user *User, err error)
	GetUser(ctx context.Context, userID string) (*User, error)
}
