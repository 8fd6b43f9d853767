// Package claimauthtest builds authentication fixtures from literal claim
// values, bypassing token decoding and introspection entirely. It lets
// handler and authorization tests exercise a protected resource with a
// precisely shaped identity without standing up an authorization server.
package claimauthtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oauthkit/claimauth"
	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/claims"
)

// AuthenticationBuilder accumulates literal claim values and produces a
// ready-made Authentication. The zero value is not usable; use
// NewAuthentication.
type AuthenticationBuilder struct {
	subject     string
	issuer      string
	expiry      time.Time
	scope       string
	authorities []string
	extra       map[string]any
}

// NewAuthentication returns a builder with test-friendly defaults: subject
// "test-subject", issuer "https://test-issuer.local", expiry one hour out,
// and a random jti.
func NewAuthentication() *AuthenticationBuilder {
	return &AuthenticationBuilder{
		subject: "test-subject",
		issuer:  "https://test-issuer.local",
		expiry:  time.Now().Add(time.Hour),
		extra:   map[string]any{"jti": uuid.NewString()},
	}
}

// Subject overrides the subject claim.
func (b *AuthenticationBuilder) Subject(sub string) *AuthenticationBuilder {
	b.subject = sub
	return b
}

// Issuer overrides the issuer claim.
func (b *AuthenticationBuilder) Issuer(iss string) *AuthenticationBuilder {
	b.issuer = iss
	return b
}

// ExpiresAt overrides the expiry claim.
func (b *AuthenticationBuilder) ExpiresAt(exp time.Time) *AuthenticationBuilder {
	b.expiry = exp
	return b
}

// Scope sets the space-delimited scope claim.
func (b *AuthenticationBuilder) Scope(scope string) *AuthenticationBuilder {
	b.scope = scope
	return b
}

// Authorities sets the granted authorities directly.
func (b *AuthenticationBuilder) Authorities(authorities ...string) *AuthenticationBuilder {
	b.authorities = append([]string(nil), authorities...)
	return b
}

// Claim sets an arbitrary additional claim.
func (b *AuthenticationBuilder) Claim(name string, value any) *AuthenticationBuilder {
	b.extra[name] = value
	return b
}

// Build assembles the Authentication. The claim map goes through the same
// validation real resolutions use, so an impossible fixture (empty subject,
// past expiry) fails the test instead of silently passing.
func (b *AuthenticationBuilder) Build(t *testing.T) *claimauth.Authentication {
	t.Helper()
	raw := map[string]any{
		"sub": b.subject,
		"iss": b.issuer,
		"exp": float64(b.expiry.Unix()),
	}
	if b.scope != "" {
		raw["scope"] = b.scope
	}
	for k, v := range b.extra {
		raw[k] = v
	}
	cs, err := claims.FromMap(raw, time.Now())
	if err != nil {
		t.Fatalf("claimauthtest: invalid fixture claims: %v", err)
	}
	return claimauth.NewAuthentication(cs, authority.NewSet(b.authorities...))
}

// StaticSource is a claimauth.ClaimsSource returning a fixed claim map (or
// a fixed error) for every token, for driving a Manager in tests.
type StaticSource struct {
	Claims map[string]any
	Err    error
}

// ReadClaims implements claimauth.ClaimsSource.
func (s *StaticSource) ReadClaims(context.Context, string) (map[string]any, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Claims, nil
}
