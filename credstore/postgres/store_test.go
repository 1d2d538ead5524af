package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow replays canned column values, or an error, into Scan.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: want %d columns, got %d", len(r.vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.vals[i].(int64)
		case *string:
			*p = r.vals[i].(string)
		case **string:
			v, _ := r.vals[i].(*string)
			*p = v
		case *time.Time:
			*p = r.vals[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	row     pgx.Row
	lastSQL string
	args    []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.args = args
	return q.row
}

func TestFindUserByEmailScansRecord(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	name := "Ada"
	q := &fakeQuerier{row: fakeRow{vals: []any{int64(42), "a@x.io", "$argon2id$...", &name, (*string)(nil), created}}}

	rec, err := NewWithQuerier(q).FindUserByEmail(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, "a@x.io", rec.Email)
	assert.Equal(t, "$argon2id$...", rec.PasswordHash)
	require.NotNil(t, rec.FirstName)
	assert.Equal(t, "Ada", *rec.FirstName)
	assert.Nil(t, rec.LastName)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, []any{"a@x.io"}, q.args)
}

func TestFindUserNotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}

	_, err := NewWithQuerier(q).FindUserByEmail(context.Background(), "ghost@x.io")
	require.ErrorIs(t, err, goSession.ErrProviderNotFound)
}

func TestFindUserByIDRejectsNonNumeric(t *testing.T) {
	q := &fakeQuerier{}

	_, err := NewWithQuerier(q).FindUserByID(context.Background(), "abc")
	require.ErrorIs(t, err, goSession.ErrProviderNotFound)
	assert.Empty(t, q.lastSQL, "no query should be issued for an impossible ID")
}

func TestCreateUserDuplicate(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}}}

	_, err := NewWithQuerier(q).CreateUser(context.Background(), goSession.CreateUserInput{Email: "a@x.io", PasswordHash: "h"})
	require.ErrorIs(t, err, goSession.ErrProviderDuplicate)
}

func TestCreateUserDBError(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: errors.New("db down")}}

	_, err := NewWithQuerier(q).CreateUser(context.Background(), goSession.CreateUserInput{Email: "a@x.io", PasswordHash: "h"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, goSession.ErrProviderDuplicate)
	assert.Contains(t, err.Error(), "db down")
}

func TestFindResourceOwner(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{vals: []any{int64(7)}}}

	owner, err := NewWithQuerier(q).FindResourceOwner(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "7", owner)
	assert.Equal(t, []any{int64(3)}, q.args)

	q.row = fakeRow{err: pgx.ErrNoRows}
	_, err = NewWithQuerier(q).FindResourceOwner(context.Background(), "3")
	require.ErrorIs(t, err, goSession.ErrProviderNotFound)
}

func TestParseID(t *testing.T) {
	for _, raw := range []string{"", "0", "-1", "1.5", "99999999999999999999"} {
		_, err := parseID(raw)
		assert.ErrorIs(t, err, goSession.ErrProviderNotFound, raw)
	}
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
}
