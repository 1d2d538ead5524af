package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests are opt-in and require GOSESSION_TEST_DATABASE_URL.

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("GOSESSION_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: GOSESSION_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	require.NoError(t, err, "parse GOSESSION_TEST_DATABASE_URL")

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "connect postgres")
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx), "ping postgres")
	require.NoError(t, Migrate(ctx, pool), "migrate")
	return pool
}

func uniqueEmail() string {
	return "it-" + uuid.NewString() + "@example.test"
}

func TestPostgresStore_CreateFindDuplicate(t *testing.T) {
	pool := mustOpenTestPool(t)
	s, err := New(pool)
	require.NoError(t, err)
	ctx := context.Background()

	email := uniqueEmail()
	last := "Lovelace"
	rec, err := s.CreateUser(ctx, goSession.CreateUserInput{Email: email, PasswordHash: "h", LastName: &last})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Nil(t, rec.FirstName)
	require.NotNil(t, rec.LastName)

	got, err := s.FindUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	byID, err := s.FindUserByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, email, byID.Email)

	_, err = s.CreateUser(ctx, goSession.CreateUserInput{Email: email, PasswordHash: "h2"})
	require.ErrorIs(t, err, goSession.ErrProviderDuplicate)
}

func TestPostgresStore_ResourceOwner(t *testing.T) {
	pool := mustOpenTestPool(t)
	s, err := New(pool)
	require.NoError(t, err)
	ctx := context.Background()

	author, err := s.CreateUser(ctx, goSession.CreateUserInput{Email: uniqueEmail(), PasswordHash: "h"})
	require.NoError(t, err)

	postID, err := s.CreatePost(ctx, author.ID, "hello", "world")
	require.NoError(t, err)

	owner, err := s.FindResourceOwner(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, owner)

	_, err = s.FindResourceOwner(ctx, "9223372036854775807")
	require.ErrorIs(t, err, goSession.ErrProviderNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := mustOpenTestPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Migrate(ctx, pool))
}
