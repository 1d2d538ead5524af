package jwt

import (
	"bytes"
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Pair is one access token and one refresh token minted for the same subject.
type Pair struct {
	Access  Token
	Refresh Token
}

// PairSigner mints access/refresh pairs from two kind-specific Managers.
type PairSigner struct {
	access  *Manager
	refresh *Manager
}

// NewPairSigner checks that access and refresh are distinct kinds with
// distinct key material.
func NewPairSigner(access, refresh *Manager) (*PairSigner, error) {
	if access == nil || refresh == nil {
		return nil, errors.New("both access and refresh managers are required")
	}
	if access.Kind() != KindAccess || refresh.Kind() != KindRefresh {
		return nil, errors.New("pair signer managers have the wrong kinds")
	}
	if access.config.SigningMethod == MethodHS256 && refresh.config.SigningMethod == MethodHS256 &&
		bytes.Equal(access.config.Secret, refresh.config.Secret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &PairSigner{access: access, refresh: refresh}, nil
}

// Access returns the access-token Manager.
func (p *PairSigner) Access() *Manager { return p.access }

// Refresh returns the refresh-token Manager.
func (p *PairSigner) Refresh() *Manager { return p.refresh }

// Issue signs both tokens for subject concurrently. The first signing error
// wins and no partial pair is returned.
func (p *PairSigner) Issue(ctx context.Context, subject string) (Pair, error) {
	var pair Pair
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		tok, err := p.access.Sign(subject)
		pair.Access = tok
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		tok, err := p.refresh.Sign(subject)
		pair.Refresh = tok
		return err
	})
	if err := g.Wait(); err != nil {
		return Pair{}, err
	}
	return pair, nil
}
