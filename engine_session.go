package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
)

// Refresh exchanges the refresh token currently mirrored for req.UserID for a
// brand-new pair, overwriting both mirrored records.
//
// Outcomes:
//   - no refresh record mirrored for the user: ErrServer
//   - presented token differs from the mirrored one (spent, foreign or
//     forged), or a concurrent refresh won: ErrInvalidCredentials
//   - signer or mirror failure: ErrServer, previous records left intact
//
// With the Redis mirror the compare and overwrite are one atomic step, so a
// refresh token can be spent at most once.
func (e *Engine) Refresh(ctx context.Context, req RefreshRequest) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.metricObserve(MetricRefreshLatency, start)

	mctx, cancel := e.mirrorContext(ctx)
	defer cancel()

	res := e.flow.Refresh(mctx, req.UserID, req.RefreshToken)
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.log.InfoContext(ctx, "session refreshed", "user_id", req.UserID)
		return toTokenPair(res.Pair), nil
	case flows.RefreshFailureMismatch:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricRefreshReplayRejected)
		e.log.WarnContext(ctx, "refresh token rejected: not the mirrored token", "user_id", req.UserID)
		return TokenPair{}, ErrInvalidCredentials
	case flows.RefreshFailureInvalid:
		e.metricInc(MetricRefreshFailure)
		e.log.WarnContext(ctx, "refresh token rejected: verification failed", "user_id", req.UserID, "err", res.Err)
		return TokenPair{}, ErrInvalidCredentials
	case flows.RefreshFailureNotFound:
		e.metricInc(MetricRefreshFailure)
		e.log.WarnContext(ctx, "refresh without mirrored session", "user_id", req.UserID)
		return TokenPair{}, ErrServer
	case flows.RefreshFailureLookup, flows.RefreshFailureRotate:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricMirrorFailure)
		e.log.ErrorContext(ctx, "refresh mirror failure", "user_id", req.UserID, "err", res.Err)
		return TokenPair{}, ErrServer
	default:
		e.metricInc(MetricRefreshFailure)
		e.log.ErrorContext(ctx, "refresh failed", "user_id", req.UserID, "err", res.Err)
		return TokenPair{}, ErrServer
	}
}

// SignOut deletes both mirrored records for userID. Signing out a user with
// no session succeeds. It returns ErrServer only if the mirror fails.
func (e *Engine) SignOut(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	mctx, cancel := e.mirrorContext(ctx)
	defer cancel()

	if err := e.flow.Logout(mctx, userID); err != nil {
		e.metricInc(MetricMirrorFailure)
		e.log.ErrorContext(ctx, "sign-out failed", "user_id", userID, "err", err)
		return ErrServer
	}
	e.metricInc(MetricSignOut)
	e.log.InfoContext(ctx, "signed out", "user_id", userID)
	return nil
}

// VerifyToken reports whether token is the live access token of its subject.
// It never returns an error: malformed, forged, expired, revoked and
// superseded tokens, and mirror outages, all yield false.
func (e *Engine) VerifyToken(ctx context.Context, token string) bool {
	_, ok := e.Authenticate(ctx, token)
	return ok
}

// Authenticate is VerifyToken that also returns the authenticated user ID.
func (e *Engine) Authenticate(ctx context.Context, token string) (string, bool) {
	if !e.ready() || token == "" {
		return "", false
	}
	start := time.Now()
	defer e.metricObserve(MetricVerifyLatency, start)

	mctx, cancel := e.mirrorContext(ctx)
	defer cancel()

	res := e.flow.Verify(mctx, token)
	if res.Failure != flows.VerifyFailureNone {
		e.metricInc(MetricVerifyRejected)
		if res.Failure == flows.VerifyFailureLookup {
			e.metricInc(MetricMirrorFailure)
			e.log.WarnContext(ctx, "token verification could not reach mirror", "err", res.Err)
		}
		return "", false
	}
	e.metricInc(MetricVerifyAccepted)
	return res.UserID, true
}
