package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// VerifyFailureKind classifies why a presented access token was rejected.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureDecode
	VerifyFailureNotMirrored
	VerifyFailureLookup
	VerifyFailureMismatch
	VerifyFailureSignature
)

// VerifyResult carries the authenticated subject or the rejection reason.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     error
	UserID  string
}

// VerifyDeps captures verify flow dependencies.
type VerifyDeps struct {
	DecodeSubject func(string) (string, error)
	VerifyAccess  func(string) (*jwt.Claims, error)
	Mirror        session.Mirror
}

// RunVerify accepts token only if it is the access token currently mirrored
// for its subject and it also passes signature and expiry checks. The mirror
// comparison runs first so revoked tokens are rejected without crypto work.
func RunVerify(ctx context.Context, token string, deps VerifyDeps) VerifyResult {
	userID, err := deps.DecodeSubject(token)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureDecode, Err: err}
	}

	current, err := deps.Mirror.Get(ctx, session.KindAccess, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return VerifyResult{Failure: VerifyFailureNotMirrored, Err: err}
		}
		return VerifyResult{Failure: VerifyFailureLookup, Err: err}
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(token)) != 1 {
		return VerifyResult{Failure: VerifyFailureMismatch, Err: session.ErrMismatch}
	}

	claims, err := deps.VerifyAccess(token)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureSignature, Err: err}
	}
	if claims.Subject != userID {
		return VerifyResult{Failure: VerifyFailureSignature, Err: jwt.ErrInvalidSignature}
	}

	return VerifyResult{UserID: userID}
}
