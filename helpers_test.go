package goSession

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeStore is an in-memory CredentialStore with call counters.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int
	byID      map[string]UserRecord
	byEmail   map[string]string
	resources map[string]string
	failAll   bool

	findByEmailCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:      map[string]UserRecord{},
		byEmail:   map[string]string{},
		resources: map[string]string{},
	}
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findByEmailCalls++
	if s.failAll {
		return UserRecord{}, errStoreDown
	}
	id, ok := s.byEmail[email]
	if !ok {
		return UserRecord{}, ErrProviderNotFound
	}
	return s.byID[id], nil
}

func (s *fakeStore) FindUserByID(_ context.Context, userID string) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return UserRecord{}, errStoreDown
	}
	rec, ok := s.byID[userID]
	if !ok {
		return UserRecord{}, ErrProviderNotFound
	}
	return rec, nil
}

func (s *fakeStore) CreateUser(_ context.Context, in CreateUserInput) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return UserRecord{}, errStoreDown
	}
	if _, taken := s.byEmail[in.Email]; taken {
		return UserRecord{}, ErrProviderDuplicate
	}
	s.nextID++
	rec := UserRecord{
		User: User{
			ID:        strconv.Itoa(s.nextID),
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: in.PasswordHash,
	}
	s.byID[rec.ID] = rec
	s.byEmail[in.Email] = rec.ID
	return rec, nil
}

func (s *fakeStore) FindResourceOwner(_ context.Context, resourceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return "", errStoreDown
	}
	owner, ok := s.resources[resourceID]
	if !ok {
		return "", ErrProviderNotFound
	}
	return owner, nil
}

type storeError string

func (e storeError) Error() string { return string(e) }

const errStoreDown = storeError("store down: connection refused")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret-0123456789abcdefgh")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret-0123456789abcdefgh")
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEnv struct {
	engine *Engine
	store  *fakeStore
	mr     *miniredis.Miniredis
	rdb    *redis.Client
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig())
}

func newTestEnvWithConfig(t testing.TB, cfg Config) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := newFakeStore()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return &testEnv{engine: engine, store: store, mr: mr, rdb: rdb}
}

func (env *testEnv) createAccount(t testing.TB, email, pw string) TokenPair {
	t.Helper()
	pair, err := env.engine.CreateAccount(context.Background(), CreateAccountRequest{Email: email, Password: pw})
	if err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	return pair
}

func (env *testEnv) userID(t testing.TB, email string) string {
	t.Helper()
	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	id, ok := env.store.byEmail[email]
	if !ok {
		t.Fatalf("no user for %s", email)
	}
	return id
}
