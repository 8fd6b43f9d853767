// Package authstore defines the external authority store contract: a keyed
// lookup from an identity to the authorities granted to it, backed by Redis,
// a watched file, an in-memory map, or any other keyed storage.
//
// Store implementations must keep "no authorities" and "store unavailable"
// distinct: conflating the two would let an outage silently strip (or, with
// a default-permit caller, grant) access.
package authstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/claims"
)

// ErrUnavailable indicates the backing store could not be reached. It is
// never returned for an identity that simply has no authorities; unknown
// identities yield an empty set and a nil error.
var ErrUnavailable = errors.New("authstore: store unavailable")

// Store is a keyed authority lookup. Implementations must support
// concurrent reads.
type Store interface {
	// Lookup returns the authorities granted to the identity. An unknown
	// identity yields an empty set, not an error. A backend failure yields
	// an error wrapping ErrUnavailable.
	Lookup(ctx context.Context, identity string) (authority.Set, error)
}

// IdentityFunc selects the store lookup key for a claim set.
type IdentityFunc func(cs *claims.ClaimSet) string

// SubjectOrClientID is the default identity selector: the subject claim,
// falling back to "client_id" for client-credentials tokens.
func SubjectOrClientID(cs *claims.ClaimSet) string {
	if sub := cs.Subject(); sub != "" {
		return sub
	}
	id, _ := cs.StringClaim("client_id")
	return id
}

// ConverterOption configures a store-backed converter.
type ConverterOption func(*storeConverter)

// WithIdentity overrides how the lookup key is derived from a claim set.
func WithIdentity(fn IdentityFunc) ConverterOption {
	return func(c *storeConverter) { c.identity = fn }
}

type storeConverter struct {
	store    Store
	identity IdentityFunc
}

// NewConverter returns an authority.Converter that resolves authorities
// through the store on every call. There is no caching: revoking a grant in
// the store takes effect on the next request.
//
// A store failure propagates as an error; it is never collapsed into an
// empty-but-successful authority set.
func NewConverter(store Store, opts ...ConverterOption) authority.Converter {
	c := &storeConverter{store: store, identity: SubjectOrClientID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *storeConverter) Convert(ctx context.Context, cs *claims.ClaimSet) (authority.Set, error) {
	identity := c.identity(cs)
	if identity == "" {
		return authority.Set{}, nil
	}
	set, err := c.store.Lookup(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("authority lookup for %q: %w", identity, err)
	}
	return set, nil
}
