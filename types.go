package goSession

import (
	"context"
	"time"
)

// User is the public view of an account. It has no password hash field, so a
// hash cannot leave the engine through it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRecord is what a CredentialStore hands back: the public user plus the
// stored Argon2id hash.
type UserRecord struct {
	User
	PasswordHash string
}

// CreateUserInput is passed to CredentialStore.CreateUser. The password has
// already been hashed.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
}

// CredentialStore persists users and answers ownership lookups.
//
// Implementations return ErrProviderDuplicate (wrapped or bare) when an email
// is already taken and ErrProviderNotFound when a user or resource is absent.
// Every other error is treated as an infrastructure failure.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (UserRecord, error)
	FindUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	// FindResourceOwner returns the ID of the user that owns resourceID.
	FindResourceOwner(ctx context.Context, resourceID string) (string, error)
}

// CreateAccountRequest is the input to Engine.CreateAccount.
type CreateAccountRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// SignInRequest is the input to Engine.SignIn.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the input to Engine.Refresh. UserID is supplied by the
// caller and must match the user the refresh token was mirrored for.
type RefreshRequest struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by every operation that opens or rotates a session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
