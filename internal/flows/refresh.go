package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	// RefreshFailureNotFound: no refresh record is mirrored for the user.
	RefreshFailureNotFound
	// RefreshFailureMismatch: the presented token is not the mirrored one.
	// Replays of a rotated token and lost rotation races land here.
	RefreshFailureMismatch
	// RefreshFailureInvalid: the token matched the mirror but no longer
	// verifies under the refresh key.
	RefreshFailureInvalid
	RefreshFailureLookup
	RefreshFailureSign
	RefreshFailureRotate
)

// RefreshResult carries either the rotated pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Pair    jwt.Pair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Signer        PairIssuer
	VerifyRefresh func(string) (*jwt.Claims, error)
	Mirror        session.Mirror
	Now           func() time.Time
	Warn          func(string, ...any)
}

// RunRefresh exchanges presented for a brand-new pair if it is exactly the
// refresh token mirrored for userID.
//
// When the mirror implements session.Rotator the final overwrite is a
// compare-and-swap on presented, so two concurrent refreshes with the same
// token produce one winner. Without it the flow falls back to
// read-compare-write and two callers racing between the read and the write
// can both succeed; the later write wins the mirror.
func RunRefresh(ctx context.Context, userID, presented string, deps RefreshDeps) RefreshResult {
	current, err := deps.Mirror.Get(ctx, session.KindRefresh, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err}
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(presented)) != 1 {
		return RefreshResult{Failure: RefreshFailureMismatch, Err: session.ErrMismatch}
	}

	claims, err := deps.VerifyRefresh(presented)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}
	if claims.Subject != userID {
		return RefreshResult{
			Failure: RefreshFailureInvalid,
			Err:     fmt.Errorf("%w: subject does not match user", jwt.ErrInvalidSignature),
		}
	}

	pair, err := deps.Signer.Issue(ctx, userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureSign, Err: err}
	}
	access, refresh := entries(pair, nowFunc(deps.Now))

	if rot, ok := deps.Mirror.(session.Rotator); ok {
		err := rot.RotatePair(ctx, userID, presented, access, refresh)
		switch {
		case err == nil:
			return RefreshResult{Pair: pair}
		case errors.Is(err, session.ErrMismatch):
			if deps.Warn != nil {
				deps.Warn("goSession: refresh lost rotation race", "user_id", userID)
			}
			return RefreshResult{Failure: RefreshFailureMismatch, Err: err}
		case errors.Is(err, session.ErrNotFound):
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err}
		default:
			return RefreshResult{Failure: RefreshFailureRotate, Err: err}
		}
	}

	if err := mirrorPair(ctx, deps.Mirror, userID, access, refresh); err != nil {
		return RefreshResult{Failure: RefreshFailureRotate, Err: err}
	}
	return RefreshResult{Pair: pair}
}
