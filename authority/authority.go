// Package authority models granted authorities and the converters that
// derive them from a validated claim set.
//
// An authority is a case-sensitive string capability, conventionally
// "<namespace>:<action>" (e.g. "message:read") or a bare global authority
// (e.g. "ACTUATOR"). Converters are pure: the same claim set always yields
// the same authority set, so they are safe to share across concurrent
// requests.
package authority

import (
	"context"
	"sort"

	"github.com/oauthkit/claimauth/claims"
)

// DefaultClaim is the claim name the embedded converter reads when no
// override is configured.
const DefaultClaim = "authorities"

// Set is a deduplicated set of authority strings. A nil Set supports reads
// (Has, Len, Slice, Copy, Equal) and behaves as an empty set; build with
// NewSet or Copy before calling Add.
type Set map[string]struct{}

// NewSet builds a Set from the given authorities, collapsing duplicates.
func NewSet(authorities ...string) Set {
	s := make(Set, len(authorities))
	for _, a := range authorities {
		s[a] = struct{}{}
	}
	return s
}

// Add inserts an authority. Adding an existing member is a no-op.
func (s Set) Add(a string) { s[a] = struct{}{} }

// Has reports membership. Comparison is exact and case-sensitive.
func (s Set) Has(a string) bool {
	_, ok := s[a]
	return ok
}

// Len returns the number of distinct authorities.
func (s Set) Len() int { return len(s) }

// Slice returns the authorities as a sorted copy.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Copy returns an independent copy of the set.
func (s Set) Copy() Set {
	dup := make(Set, len(s))
	for a := range s {
		dup[a] = struct{}{}
	}
	return dup
}

// Equal reports whether both sets contain exactly the same authorities.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for a := range s {
		if !o.Has(a) {
			return false
		}
	}
	return true
}

// Converter derives the authorities granted by a claim set. Implementations
// must be safe for concurrent use and must never return a partially
// populated set alongside an error.
type Converter interface {
	Convert(ctx context.Context, cs *claims.ClaimSet) (Set, error)
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(ctx context.Context, cs *claims.ClaimSet) (Set, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, cs *claims.ClaimSet) (Set, error) {
	return f(ctx, cs)
}
