// Package postgres implements goSession.CredentialStore over PostgreSQL with
// a pgx connection pool. Users and posts live in the tables created by the
// embedded goose migrations; see Migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goSession "github.com/MrEthical07/goSession"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Querier is the subset of *pgxpool.Pool the store uses. A pgx.Tx satisfies
// it too.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is safe for concurrent use. The pool is owned by the caller and is
// never closed by the store.
type Store struct {
	db Querier
}

var _ goSession.CredentialStore = (*Store)(nil)

// New wraps pool.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("postgres: nil pool")
	}
	return &Store{db: pool}, nil
}

// NewWithQuerier builds a Store on any Querier, for running inside a
// transaction.
func NewWithQuerier(q Querier) *Store {
	return &Store{db: q}
}

const userColumns = `id, email, password_hash, first_name, last_name, created_at`

func (s *Store) FindUserByEmail(ctx context.Context, email string) (goSession.UserRecord, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (goSession.UserRecord, error) {
	id, err := parseID(userID)
	if err != nil {
		return goSession.UserRecord{}, err
	}
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// CreateUser inserts a user. A unique violation on email is reported as
// goSession.ErrProviderDuplicate.
func (s *Store) CreateUser(ctx context.Context, in goSession.CreateUserInput) (goSession.UserRecord, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		in.Email, in.PasswordHash, in.FirstName, in.LastName,
	)
	rec, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return goSession.UserRecord{}, fmt.Errorf("%w: %v", goSession.ErrProviderDuplicate, err)
		}
		return goSession.UserRecord{}, err
	}
	return rec, nil
}

// FindResourceOwner returns the author of the post resourceID.
func (s *Store) FindResourceOwner(ctx context.Context, resourceID string) (string, error) {
	id, err := parseID(resourceID)
	if err != nil {
		return "", err
	}
	var author int64
	err = s.db.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, id).Scan(&author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", goSession.ErrProviderNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return strconv.FormatInt(author, 10), nil
}

// CreatePost inserts a post owned by authorID and returns its ID.
func (s *Store) CreatePost(ctx context.Context, authorID, title, content string) (string, error) {
	author, err := parseID(authorID)
	if err != nil {
		return "", err
	}
	var id int64
	err = s.db.QueryRow(ctx,
		`INSERT INTO posts (author_id, title, content) VALUES ($1, $2, $3) RETURNING id`,
		author, title, content,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func scanUser(row pgx.Row) (goSession.UserRecord, error) {
	var (
		rec goSession.UserRecord
		id  int64
	)
	err := row.Scan(&id, &rec.Email, &rec.PasswordHash, &rec.FirstName, &rec.LastName, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return goSession.UserRecord{}, goSession.ErrProviderNotFound
		}
		if isUniqueViolation(err) {
			return goSession.UserRecord{}, err
		}
		return goSession.UserRecord{}, fmt.Errorf("db error: %w", err)
	}
	rec.ID = strconv.FormatInt(id, 10)
	return rec, nil
}

// parseID maps an ID that cannot exist in a BIGINT column to not-found
// instead of letting Postgres reject the parameter.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goSession.ErrProviderNotFound
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
