package authority

import (
	"context"
	"strings"

	"github.com/oauthkit/claimauth/claims"
)

// Embedded returns a converter that reads authorities embedded in the token
// itself, from the named claim (use DefaultClaim for the conventional
// "authorities" claim). The claim value is a whitespace- or comma-delimited
// string; tokens are trimmed, empties dropped, duplicates collapsed.
//
// The converter never fails: an absent claim, or one holding a non-string
// value, yields an empty set.
func Embedded(claimName string) Converter {
	if claimName == "" {
		claimName = DefaultClaim
	}
	return ConverterFunc(func(_ context.Context, cs *claims.ClaimSet) (Set, error) {
		raw, ok := cs.StringClaim(claimName)
		if !ok {
			return Set{}, nil
		}
		return splitAuthorities(raw), nil
	})
}

// ScopeFiltered wraps a converter with the scope-namespacing policy: an
// authority of form "<namespace>:<action>" is kept only when its namespace
// (the substring before the first ':') is a member of the claim set's scope.
// Comparison is exact string match, case-sensitive.
//
// Authorities carrying no ':' pass through unconditionally; they are treated
// as global authorities outside any namespace.
//
// This prevents a token scoped only for, say, "message" access from
// exercising authorities embedded under an unrelated namespace.
func ScopeFiltered(next Converter) Converter {
	return ConverterFunc(func(ctx context.Context, cs *claims.ClaimSet) (Set, error) {
		all, err := next.Convert(ctx, cs)
		if err != nil {
			return nil, err
		}
		kept := make(Set, len(all))
		for a := range all {
			idx := strings.Index(a, ":")
			if idx < 0 || cs.HasScope(a[:idx]) {
				kept.Add(a)
			}
		}
		return kept, nil
	})
}

// splitAuthorities tokenizes a whitespace- or comma-delimited authorities
// string into a Set.
func splitAuthorities(raw string) Set {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	s := make(Set, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		s.Add(f)
	}
	return s
}
