package goSession

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/password"
)

// credentialVerifier owns password hashing and the credential store calls of
// account creation and sign-in.
type credentialVerifier struct {
	store  CredentialStore
	hasher *password.Hasher
	// dummyHash is verified against when an email is unknown, so an unknown
	// email costs the same Argon2id work as a wrong password.
	dummyHash string
}

func newCredentialVerifier(store CredentialStore, hasher *password.Hasher) (*credentialVerifier, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("seed dummy password: %w", err)
	}
	dummy, err := hasher.Hash(base64.RawStdEncoding.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &credentialVerifier{store: store, hasher: hasher, dummyHash: dummy}, nil
}

// createAccount hashes the password and persists the user. Errors wrap
// ErrDuplicateCredential, ErrInvalidCredentials or ErrServer.
func (v *credentialVerifier) createAccount(ctx context.Context, req CreateAccountRequest) (User, error) {
	hash, err := v.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return User{}, fmt.Errorf("%w: hash password: %v", ErrServer, err)
	}

	rec, err := v.store.CreateUser(ctx, CreateUserInput{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicate) {
			return User{}, fmt.Errorf("%w: %v", ErrDuplicateCredential, err)
		}
		return User{}, fmt.Errorf("%w: create user: %v", ErrServer, err)
	}
	return rec.User, nil
}

// verifyCredentials returns the user for a correct email and password. An
// unknown email and a wrong password yield the same ErrInvalidCredentials.
func (v *credentialVerifier) verifyCredentials(ctx context.Context, email, plaintext string) (User, error) {
	rec, err := v.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			v.hasher.Verify(v.dummyHash, plaintext)
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("%w: find user: %v", ErrServer, err)
	}

	if !v.hasher.Verify(rec.PasswordHash, plaintext) {
		return User{}, ErrInvalidCredentials
	}
	return rec.User, nil
}
