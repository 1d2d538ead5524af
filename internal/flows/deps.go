package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"golang.org/x/sync/errgroup"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates each operation to the matching flow.
type Deps struct {
	Issue   IssueDeps
	Refresh RefreshDeps
	Verify  VerifyDeps
	Logout  LogoutDeps
}

// PairIssuer mints an access/refresh pair for a subject.
type PairIssuer interface {
	Issue(ctx context.Context, subject string) (jwt.Pair, error)
}

// minMirrorTTL floors the mirror TTL. Token expiry is whole seconds, so a
// short-lived token can reach the mirror with no validity left; the signature
// check still rejects it once expired.
const minMirrorTTL = time.Second

func entries(pair jwt.Pair, now time.Time) (session.Entry, session.Entry) {
	return session.Entry{Token: pair.Access.Value, TTL: mirrorTTL(pair.Access.ExpiresAt, now)},
		session.Entry{Token: pair.Refresh.Value, TTL: mirrorTTL(pair.Refresh.ExpiresAt, now)}
}

func mirrorTTL(expiresAt, now time.Time) time.Duration {
	return max(expiresAt.Sub(now), minMirrorTTL)
}

// mirrorPair writes both records, in one round trip when the mirror supports
// it and as two concurrent writes otherwise.
func mirrorPair(ctx context.Context, m session.Mirror, userID string, access, refresh session.Entry) error {
	if pw, ok := m.(session.PairWriter); ok {
		return pw.PutPair(ctx, userID, access, refresh)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Put(gctx, session.KindAccess, userID, access) })
	g.Go(func() error { return m.Put(gctx, session.KindRefresh, userID, refresh) })
	return g.Wait()
}

func nowFunc(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
