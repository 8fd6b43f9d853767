package claimauth

import (
	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/claims"
)

// Authentication is the resolved identity for one request: a validated
// claim set together with the authorities derived from it. Values are
// immutable and safe for concurrent use; authorities are computed once at
// construction and never change afterwards.
//
// An Authentication only ever exists in the fully authenticated state. A
// rejected resolution yields an error, never a partially populated value.
type Authentication struct {
	cs      *claims.ClaimSet
	granted authority.Set
}

// NewAuthentication wraps a claim set and its resolved authorities. Most
// callers obtain Authentication values from Manager.Resolve; constructing
// one directly is intended for test support and custom wiring.
func NewAuthentication(cs *claims.ClaimSet, granted authority.Set) *Authentication {
	return &Authentication{cs: cs, granted: granted.Copy()}
}

// ClaimSet returns the validated claim set.
func (a *Authentication) ClaimSet() *claims.ClaimSet { return a.cs }

// Subject returns the authenticated principal's subject.
func (a *Authentication) Subject() string { return a.cs.Subject() }

// Authorities returns a copy of the granted authority set.
func (a *Authentication) Authorities() authority.Set { return a.granted.Copy() }

// HasAuthority reports whether the given authority was granted.
func (a *Authentication) HasAuthority(auth string) bool { return a.granted.Has(auth) }

// Authenticated always reports true: rejected resolutions never produce an
// Authentication.
func (a *Authentication) Authenticated() bool { return true }
