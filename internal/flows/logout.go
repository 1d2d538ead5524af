package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
	"golang.org/x/sync/errgroup"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Mirror session.Mirror
}

// RunLogout removes both mirrored records for userID. Missing records are
// not an error.
func RunLogout(ctx context.Context, userID string, deps LogoutDeps) error {
	if pw, ok := deps.Mirror.(session.PairWriter); ok {
		return pw.DeletePair(ctx, userID)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return deps.Mirror.Delete(gctx, session.KindAccess, userID) })
	g.Go(func() error { return deps.Mirror.Delete(gctx, session.KindRefresh, userID) })
	return g.Wait()
}
