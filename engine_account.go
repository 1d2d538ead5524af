package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/internal/flows"
)

// CreateAccount registers a user and opens a session for them.
//
// It returns ErrDuplicateCredential if the email is taken and ErrServer if
// the store, the signer or the session mirror fails. On a mirror failure the
// account exists but no tokens are returned; the caller can sign in later.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	user, err := e.credentials.createAccount(ctx, req)
	if err != nil {
		if errors.Is(err, ErrDuplicateCredential) {
			e.metricInc(MetricAccountCreationDuplicate)
			e.log.InfoContext(ctx, "account creation rejected: duplicate email")
		} else {
			e.metricInc(MetricAccountCreationFailure)
			e.log.ErrorContext(ctx, "account creation failed", "err", err)
		}
		return TokenPair{}, publicError(err)
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.log.InfoContext(ctx, "account created", "user_id", user.ID)

	return e.openSession(ctx, user.ID)
}

// SignIn verifies email and password and opens a fresh session, replacing
// any tokens previously mirrored for the user.
//
// An unknown email and a wrong password both return ErrInvalidCredentials.
func (e *Engine) SignIn(ctx context.Context, req SignInRequest) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	user, err := e.credentials.verifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		if !errors.Is(err, ErrInvalidCredentials) {
			e.log.ErrorContext(ctx, "sign-in failed", "err", err)
		}
		return TokenPair{}, publicError(err)
	}

	pair, err := e.openSession(ctx, user.ID)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		return TokenPair{}, err
	}
	e.metricInc(MetricSignInSuccess)
	e.log.InfoContext(ctx, "signed in", "user_id", user.ID)
	return pair, nil
}

func (e *Engine) openSession(ctx context.Context, userID string) (TokenPair, error) {
	mctx, cancel := e.mirrorContext(ctx)
	defer cancel()

	res := e.flow.Issue(mctx, userID)
	if res.Err != nil {
		if res.Failure == flows.IssueFailureMirror {
			e.metricInc(MetricMirrorFailure)
		}
		e.log.ErrorContext(ctx, "session issue failed", "user_id", userID, "err", res.Err)
		return TokenPair{}, ErrServer
	}
	e.log.DebugContext(ctx, "session mirrored", "user_id", userID)
	return toTokenPair(res.Pair), nil
}
