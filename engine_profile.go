package goSession

import (
	"context"
	"errors"
)

// GetMe returns the public record of userID. The password hash is never
// included. A missing user or a store failure returns ErrServer.
func (e *Engine) GetMe(ctx context.Context, userID string) (User, error) {
	if !e.ready() {
		return User{}, ErrEngineNotReady
	}
	rec, err := e.store.FindUserByID(ctx, userID)
	if err != nil {
		e.log.ErrorContext(ctx, "get user failed", "user_id", userID, "err", err)
		return User{}, ErrServer
	}
	return rec.User, nil
}

// OwnerCheck reports whether claimedOwnerID owns resourceID. A missing
// resource, an empty claim, or a store failure all return false.
func (e *Engine) OwnerCheck(ctx context.Context, resourceID, claimedOwnerID string) bool {
	if !e.ready() || claimedOwnerID == "" {
		return false
	}
	e.metricInc(MetricOwnerCheck)

	owner, err := e.store.FindResourceOwner(ctx, resourceID)
	if err != nil {
		if !errors.Is(err, ErrProviderNotFound) {
			e.log.WarnContext(ctx, "owner check lookup failed", "resource_id", resourceID, "err", err)
		}
		return false
	}
	return owner == claimedOwnerID
}
