package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

func TestRefreshRotatesBothTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")

	second, err := env.engine.Refresh(ctx, RefreshRequest{UserID: id, RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.AccessToken == first.AccessToken || second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a brand-new pair")
	}
	if !env.engine.VerifyToken(ctx, second.AccessToken) {
		t.Fatal("expected rotated access token to verify")
	}
	if env.engine.VerifyToken(ctx, first.AccessToken) {
		t.Fatal("expected pre-rotation access token to be rejected")
	}
	if v, _ := env.mr.Get("refresh:" + id); v != second.RefreshToken {
		t.Fatal("expected mirrored refresh record to hold the new token")
	}
}

func TestRefreshReplayRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")

	if _, err := env.engine.Refresh(ctx, RefreshRequest{UserID: id, RefreshToken: first.RefreshToken}); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	_, err := env.engine.Refresh(ctx, RefreshRequest{UserID: id, RefreshToken: first.RefreshToken})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials on replay, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricRefreshReplayRejected]; got != 1 {
		t.Fatalf("expected replay metric 1, got %d", got)
	}
}

func TestRefreshWithoutSessionIsServerError(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")

	if err := env.engine.SignOut(context.Background(), id); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	_, err := env.engine.Refresh(context.Background(), RefreshRequest{UserID: id, RefreshToken: pair.RefreshToken})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestRefreshForeignUserRejected(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "a@x.io", "p4ssword")
	env.createAccount(t, "b@x.io", "p4ssword")
	idB := env.userID(t, "b@x.io")

	_, err := env.engine.Refresh(context.Background(), RefreshRequest{UserID: idB, RefreshToken: a.RefreshToken})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")

	_, err := env.engine.Refresh(context.Background(), RefreshRequest{UserID: id, RefreshToken: pair.AccessToken})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshMirrorOutageIsServerError(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")
	env.mr.SetError("simulated outage")

	_, err := env.engine.Refresh(context.Background(), RefreshRequest{UserID: id, RefreshToken: pair.RefreshToken})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}

	env.mr.SetError("")
	if v, _ := env.mr.Get("refresh:" + id); v != pair.RefreshToken {
		t.Fatal("expected previous refresh record to stay intact")
	}
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	start := make(chan struct{})

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := env.engine.Refresh(context.Background(), RefreshRequest{UserID: id, RefreshToken: pair.RefreshToken})
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidCredentials):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != workers-1 {
		t.Fatalf("expected exactly one winner, got ok=%d rejected=%d", ok, rejected)
	}
}

func TestSignOutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.createAccount(t, "a@x.io", "p4ssword")
	id := env.userID(t, "a@x.io")

	if err := env.engine.SignOut(ctx, id); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if env.engine.VerifyToken(ctx, pair.AccessToken) {
		t.Fatal("expected access token to be rejected after sign-out")
	}
	if env.mr.Exists("access:"+id) || env.mr.Exists("refresh:"+id) {
		t.Fatal("expected both mirrored records removed")
	}
	if err := env.engine.SignOut(ctx, id); err != nil {
		t.Fatalf("second sign out should succeed, got %v", err)
	}
}

func TestSignOutMirrorOutage(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "a@x.io", "p4ssword")
	env.mr.SetError("simulated outage")

	if err := env.engine.SignOut(context.Background(), env.userID(t, "a@x.io")); !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestVerifyTokenRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.createAccount(t, "a@x.io", "p4ssword")

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-jwt",
		"tampered":      tampered,
		"refresh token": pair.RefreshToken,
	}
	for name, tok := range cases {
		if env.engine.VerifyToken(ctx, tok) {
			t.Fatalf("%s: expected rejection", name)
		}
	}
	if !env.engine.VerifyToken(ctx, pair.AccessToken) {
		t.Fatal("expected genuine token to still verify")
	}
}

func TestVerifyTokenAfterMirrorExpiry(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")

	env.mr.FastForward(testConfig().JWT.AccessTTL + time.Second)
	if env.engine.VerifyToken(context.Background(), pair.AccessToken) {
		t.Fatal("expected token without a mirrored record to be rejected")
	}
}

func TestVerifyTokenMirrorOutage(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")
	env.mr.SetError("simulated outage")

	if env.engine.VerifyToken(context.Background(), pair.AccessToken) {
		t.Fatal("expected false while mirror is down")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricMirrorFailure]; got != 1 {
		t.Fatalf("expected mirror failure metric 1, got %d", got)
	}
}

func TestAuthenticateReturnsSubject(t *testing.T) {
	env := newTestEnv(t)
	pair := env.createAccount(t, "a@x.io", "p4ssword")

	uid, ok := env.engine.Authenticate(context.Background(), pair.AccessToken)
	if !ok || uid != env.userID(t, "a@x.io") {
		t.Fatalf("expected subject %q, got %q ok=%v", env.userID(t, "a@x.io"), uid, ok)
	}
}

// plainMirror implements only session.Mirror, forcing the non-atomic paths.
type plainMirror struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *plainMirror) Put(_ context.Context, kind session.Kind, userID string, e session.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[session.Key("", kind, userID)] = e.Token
	return nil
}

func (m *plainMirror) Get(_ context.Context, kind session.Kind, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[session.Key("", kind, userID)]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}

func (m *plainMirror) Delete(_ context.Context, kind session.Kind, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, session.Key("", kind, userID))
	return nil
}

func TestEngineWithPlainMirror(t *testing.T) {
	mirror := &plainMirror{data: map[string]string{}}
	store := newFakeStore()
	engine, err := New().WithConfig(testConfig()).WithMirror(mirror).WithCredentialStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ctx := context.Background()

	first, err := engine.CreateAccount(ctx, CreateAccountRequest{Email: "a@x.io", Password: "p4ssword"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := store.byEmail["a@x.io"]

	second, err := engine.Refresh(ctx, RefreshRequest{UserID: id, RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := engine.Refresh(ctx, RefreshRequest{UserID: id, RefreshToken: first.RefreshToken}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
	if !engine.VerifyToken(ctx, second.AccessToken) {
		t.Fatal("expected rotated token to verify")
	}
	if err := engine.SignOut(ctx, id); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if engine.VerifyToken(ctx, second.AccessToken) {
		t.Fatal("expected rejection after sign-out")
	}
}
