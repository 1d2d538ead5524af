// Package memory is a process-local CredentialStore for development servers,
// demos and tests. Nothing survives a restart.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// Store keeps users and resource ownership in maps guarded by one RWMutex.
// User IDs are decimal strings assigned in creation order, starting at 1.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	users     map[string]goSession.UserRecord
	emails    map[string]string
	resources map[string]string
	now       func() time.Time
}

var _ goSession.CredentialStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:     make(map[string]goSession.UserRecord),
		emails:    make(map[string]string),
		resources: make(map[string]string),
		now:       time.Now,
	}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (goSession.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return goSession.UserRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return goSession.UserRecord{}, goSession.ErrProviderNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (goSession.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return goSession.UserRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return goSession.UserRecord{}, goSession.ErrProviderNotFound
	}
	return rec, nil
}

// CreateUser rejects an email that is already registered, compared byte for
// byte.
func (s *Store) CreateUser(ctx context.Context, in goSession.CreateUserInput) (goSession.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return goSession.UserRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[in.Email]; taken {
		return goSession.UserRecord{}, goSession.ErrProviderDuplicate
	}

	s.nextID++
	rec := goSession.UserRecord{
		User: goSession.User{
			ID:        strconv.FormatInt(s.nextID, 10),
			Email:     in.Email,
			FirstName: cloneString(in.FirstName),
			LastName:  cloneString(in.LastName),
			CreatedAt: s.now().UTC(),
		},
		PasswordHash: in.PasswordHash,
	}
	s.users[rec.ID] = rec
	s.emails[rec.Email] = rec.ID
	return rec, nil
}

func (s *Store) FindResourceOwner(ctx context.Context, resourceID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.resources[resourceID]
	if !ok {
		return "", goSession.ErrProviderNotFound
	}
	return owner, nil
}

// PutResource records ownerID as the owner of resourceID, replacing any
// previous owner.
func (s *Store) PutResource(resourceID, ownerID string) {
	s.mu.Lock()
	s.resources[resourceID] = ownerID
	s.mu.Unlock()
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
