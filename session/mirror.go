package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports that no record exists for the key.
	ErrNotFound = errors.New("session record not found")
	// ErrMismatch reports that a compare-and-swap saw a different value.
	ErrMismatch = errors.New("session record mismatch")
	// ErrUnavailable wraps every backend failure.
	ErrUnavailable = errors.New("session mirror unavailable")
	// ErrExpiredEntry is returned when asked to store an entry whose TTL has
	// already run out.
	ErrExpiredEntry = errors.New("session entry ttl must be positive")
)

// Kind selects which half of a session a record mirrors.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Entry is a token to mirror and how long it should live.
type Entry struct {
	Token string
	TTL   time.Duration
}

// Mirror is the minimal contract the session manager needs. Put overwrites,
// Delete of an absent key succeeds, and Get of an absent key returns an
// error matching ErrNotFound.
type Mirror interface {
	Put(ctx context.Context, kind Kind, userID string, e Entry) error
	Get(ctx context.Context, kind Kind, userID string) (string, error)
	Delete(ctx context.Context, kind Kind, userID string) error
}

// PairWriter writes or deletes both records of a user in one round trip.
type PairWriter interface {
	PutPair(ctx context.Context, userID string, access, refresh Entry) error
	DeletePair(ctx context.Context, userID string) error
}

// Rotator replaces both records only if the refresh record still equals
// expectedRefresh. On failure nothing is written and the error matches
// ErrNotFound or ErrMismatch.
type Rotator interface {
	RotatePair(ctx context.Context, userID, expectedRefresh string, access, refresh Entry) error
}

// Key renders the store key for kind and userID under prefix.
func Key(prefix string, kind Kind, userID string) string {
	if prefix == "" {
		return string(kind) + ":" + userID
	}
	return prefix + ":" + string(kind) + ":" + userID
}
