// Package claims provides an immutable, validated view over the claims of a
// decoded OAuth2 token. A ClaimSet is constructed once per inbound request
// from either a verified JWT payload or an RFC 7662 introspection response
// and discarded when the request completes.
package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed indicates the raw claim map is structurally invalid: a
// required claim (sub, iss, exp) is absent or carries the wrong type.
var ErrMalformed = errors.New("claims: malformed claim set")

// ErrExpired indicates the claim set was well formed but its expiry has
// already passed at validation time.
var ErrExpired = errors.New("claims: token expired")

// ClaimSet is an immutable snapshot of a token's claims. All accessors are
// safe for concurrent use; the backing map, nested values included, is
// copied at construction, so later mutation of the source map is never
// observable.
type ClaimSet struct {
	subject  string
	issuer   string
	expiry   time.Time
	issuedAt time.Time
	hasIat   bool
	scope    []string
	raw      map[string]any
}

// FromMap validates a raw claim mapping and returns an immutable ClaimSet.
// The caller supplies now so expiry checks are deterministic under test.
//
// Required claims: "sub" (non-empty string), "iss" (non-empty string), "exp"
// (numeric). A missing or mistyped required claim yields ErrMalformed; an
// expiry at or before now yields ErrExpired. The optional "scope" claim is
// split on whitespace into an ordered, deduplicated set; its absence is not
// an error.
func FromMap(raw map[string]any, now time.Time) (*ClaimSet, error) {
	sub, ok := raw["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: missing or invalid sub", ErrMalformed)
	}
	iss, ok := raw["iss"].(string)
	if !ok || iss == "" {
		return nil, fmt.Errorf("%w: missing or invalid iss", ErrMalformed)
	}
	expVal, ok := raw["exp"]
	if !ok {
		return nil, fmt.Errorf("%w: missing exp", ErrMalformed)
	}
	exp, ok := asTime(expVal)
	if !ok {
		return nil, fmt.Errorf("%w: invalid exp", ErrMalformed)
	}
	if !exp.After(now) {
		return nil, fmt.Errorf("%w: expired at %s", ErrExpired, exp.UTC().Format(time.RFC3339))
	}

	cs := &ClaimSet{
		subject: sub,
		issuer:  iss,
		expiry:  exp,
		raw:     copyMap(raw),
	}

	if iatVal, ok := raw["iat"]; ok {
		if iat, ok := asTime(iatVal); ok {
			cs.issuedAt = iat
			cs.hasIat = true
		}
	}

	if scopeVal, ok := raw["scope"]; ok {
		scopeStr, ok := scopeVal.(string)
		if !ok {
			return nil, fmt.Errorf("%w: scope claim is not a string", ErrMalformed)
		}
		cs.scope = splitScope(scopeStr)
	}

	return cs, nil
}

// Subject returns the token's subject ("sub").
func (c *ClaimSet) Subject() string { return c.subject }

// Issuer returns the token's issuer ("iss").
func (c *ClaimSet) Issuer() string { return c.issuer }

// ExpiresAt returns the token's expiry instant.
func (c *ClaimSet) ExpiresAt() time.Time { return c.expiry }

// IssuedAt returns the "iat" instant and whether the claim was present.
func (c *ClaimSet) IssuedAt() (time.Time, bool) { return c.issuedAt, c.hasIat }

// Scope returns a copy of the ordered scope set. Absent scope claim yields
// an empty (nil) slice.
func (c *ClaimSet) Scope() []string {
	return append([]string(nil), c.scope...)
}

// HasScope reports whether the given scope string is a member of the scope
// set. Comparison is exact and case-sensitive.
func (c *ClaimSet) HasScope(scope string) bool {
	for _, s := range c.scope {
		if s == scope {
			return true
		}
	}
	return false
}

// Claim returns the raw value of an arbitrary claim and whether it exists.
// Composite values (maps, slices) are shared between calls; treat them as
// read-only.
func (c *ClaimSet) Claim(name string) (any, bool) {
	v, ok := c.raw[name]
	return v, ok
}

// StringClaim returns a claim value when it exists and is a string.
func (c *ClaimSet) StringClaim(name string) (string, bool) {
	v, ok := c.raw[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Claims unmarshals the full claim map into the provided struct reference.
func (c *ClaimSet) Claims(ref any) error {
	b, err := json.Marshal(c.raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

// splitScope splits a space-delimited scope string into an ordered set with
// duplicates collapsed (first occurrence wins).
func splitScope(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// asTime coerces the numeric forms a JSON decoder or JWT library may hand us
// for time-valued claims.
func asTime(v any) (time.Time, bool) {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0), true
	case int64:
		return time.Unix(n, 0), true
	case int:
		return time.Unix(int64(n), 0), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(f), 0), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(f), 0), true
	case time.Time:
		return n, true
	}
	return time.Time{}, false
}

// copyMap deep-copies the nested maps and slices a JSON decode produces, so
// later mutation of the caller's map cannot reach the ClaimSet.
func copyMap(m map[string]any) map[string]any {
	dup := make(map[string]any, len(m))
	for k, v := range m {
		dup[k] = copyValue(v)
	}
	return dup
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		dup := make([]any, len(t))
		for i, e := range t {
			dup[i] = copyValue(e)
		}
		return dup
	}
	return v
}
