// Package memstore provides an in-memory authority store, primarily for
// tests and single-process deployments.
package memstore

import (
	"context"
	"sync"

	"github.com/oauthkit/claimauth/authority"
)

// Store is an in-memory authstore.Store. The zero value is not usable; use
// New. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	grants map[string]authority.Set
}

// New returns an empty store, optionally seeded with initial grants.
func New(seed map[string][]string) *Store {
	s := &Store{grants: make(map[string]authority.Set, len(seed))}
	for identity, authorities := range seed {
		s.grants[identity] = authority.NewSet(authorities...)
	}
	return s
}

// Grant adds authorities to an identity.
func (s *Store) Grant(identity string, authorities ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.grants[identity]
	if !ok {
		set = authority.Set{}
		s.grants[identity] = set
	}
	for _, a := range authorities {
		set.Add(a)
	}
}

// Revoke removes authorities from an identity.
func (s *Store) Revoke(identity string, authorities ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.grants[identity]
	if !ok {
		return
	}
	for _, a := range authorities {
		delete(set, a)
	}
}

// Lookup implements authstore.Store. Unknown identities yield an empty set.
func (s *Store) Lookup(_ context.Context, identity string) (authority.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.grants[identity]
	if !ok {
		return authority.Set{}, nil
	}
	return set.Copy(), nil
}
