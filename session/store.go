package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 2
	rotateStatusRotated  int64 = 3
)

// KEYS: access, refresh. ARGV: expected refresh, next access, access ttl ms,
// next refresh, refresh ttl ms.
const rotatePairScript = `
local current = redis.call("GET", KEYS[2])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[4], "PX", ARGV[5])
return 3
`

var rotatePairLua = redis.NewScript(rotatePairScript)

// RedisMirror is the Redis implementation of Mirror, PairWriter and Rotator.
type RedisMirror struct {
	redis  redis.UniversalClient
	prefix string
}

var (
	_ Mirror     = (*RedisMirror)(nil)
	_ PairWriter = (*RedisMirror)(nil)
	_ Rotator    = (*RedisMirror)(nil)
)

// NewRedisMirror returns a mirror over client. prefix namespaces every key
// and may be empty.
func NewRedisMirror(client redis.UniversalClient, prefix string) *RedisMirror {
	return &RedisMirror{redis: client, prefix: prefix}
}

func (m *RedisMirror) key(kind Kind, userID string) string {
	return Key(m.prefix, kind, userID)
}

// Put stores e under kind and userID, replacing any previous value.
//
//	Performance: 1 Redis SET.
func (m *RedisMirror) Put(ctx context.Context, kind Kind, userID string, e Entry) error {
	if e.TTL <= 0 {
		return ErrExpiredEntry
	}
	if err := m.redis.Set(ctx, m.key(kind, userID), e.Token, e.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the mirrored token for kind and userID.
//
//	Performance: 1 Redis GET.
func (m *RedisMirror) Get(ctx context.Context, kind Kind, userID string) (string, error) {
	val, err := m.redis.Get(ctx, m.key(kind, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.Join(redis.Nil, ErrNotFound)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Delete removes the record for kind and userID. Deleting an absent record is
// not an error.
func (m *RedisMirror) Delete(ctx context.Context, kind Kind, userID string) error {
	if err := m.redis.Del(ctx, m.key(kind, userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// PutPair writes both records inside one MULTI/EXEC.
//
//	Performance: 1 round trip (2 SETs).
func (m *RedisMirror) PutPair(ctx context.Context, userID string, access, refresh Entry) error {
	if access.TTL <= 0 || refresh.TTL <= 0 {
		return ErrExpiredEntry
	}
	_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, m.key(KindAccess, userID), access.Token, access.TTL)
		pipe.Set(ctx, m.key(KindRefresh, userID), refresh.Token, refresh.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeletePair removes both records in one command.
func (m *RedisMirror) DeletePair(ctx context.Context, userID string) error {
	if err := m.redis.Del(ctx, m.key(KindAccess, userID), m.key(KindRefresh, userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RotatePair atomically swaps in a new pair if the refresh record still holds
// expectedRefresh. Of several concurrent rotations presenting the same
// refresh token, exactly one succeeds; the rest get ErrMismatch.
//
//	Performance: 1 Lua EVALSHA.
//	Security: the compare and both writes happen in one script, so a spent
//	refresh token can never be rotated twice.
func (m *RedisMirror) RotatePair(ctx context.Context, userID, expectedRefresh string, access, refresh Entry) error {
	if access.TTL <= 0 || refresh.TTL <= 0 {
		return ErrExpiredEntry
	}
	code, err := rotatePairLua.Run(
		ctx,
		m.redis,
		[]string{m.key(KindAccess, userID), m.key(KindRefresh, userID)},
		expectedRefresh,
		access.Token,
		ttlMillis(access.TTL),
		refresh.Token,
		ttlMillis(refresh.TTL),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch code {
	case rotateStatusRotated:
		return nil
	case rotateStatusNotFound:
		return errors.Join(redis.Nil, ErrNotFound)
	case rotateStatusMismatch:
		return ErrMismatch
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrUnavailable, code)
	}
}

// Ping reports Redis reachability and round-trip latency.
func (m *RedisMirror) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := m.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

func ttlMillis(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10)
}
