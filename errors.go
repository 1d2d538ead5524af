package goSession

import "errors"

// Public errors returned by Engine operations. Callers should compare with
// errors.Is; raw storage and signing errors are logged, never returned.
var (
	// ErrInvalidCredentials covers an unknown email, a wrong password, and a
	// refresh token that is not the one currently mirrored for the user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateCredential is returned by CreateAccount when the email is taken.
	ErrDuplicateCredential = errors.New("credential already exists")
	// ErrServer reports an infrastructure failure: the credential store or
	// session mirror was unreachable, a token could not be signed, or a
	// refresh was attempted for a user with no mirrored refresh record.
	ErrServer = errors.New("server error")
	// ErrEngineNotReady is returned when an Engine is used before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Errors a CredentialStore implementation returns so the engine can classify
// its failures.
var (
	// ErrProviderDuplicate signals a uniqueness violation on email.
	ErrProviderDuplicate = errors.New("provider duplicate identifier")
	// ErrProviderNotFound signals that the requested user or resource does not exist.
	ErrProviderNotFound = errors.New("provider record not found")
)
