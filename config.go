package claimauth

import (
	"context"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/authstore"
)

// Config is the env-driven configuration surface for a resource-server
// instance. Defaults can be loaded via envdecode; every field can also be
// populated directly.
type Config struct {
	// Source selects how claims are obtained: "jwt" or "introspection".
	// ENV: CLAIMAUTH_SOURCE
	Source string `env:"CLAIMAUTH_SOURCE,default=jwt"`

	// Issuer is the authorization server issuer URL (jwt source).
	// ENV: CLAIMAUTH_ISSUER
	Issuer string `env:"CLAIMAUTH_ISSUER"`
	// Audience is the expected "aud" claim (jwt source).
	// ENV: CLAIMAUTH_AUDIENCE
	Audience string `env:"CLAIMAUTH_AUDIENCE"`
	// JWKSURL skips OIDC discovery when set (jwt source).
	// ENV: CLAIMAUTH_JWKS_URL
	JWKSURL string `env:"CLAIMAUTH_JWKS_URL"`
	// Leeway is clock-skew tolerance for time-based claims.
	// ENV: CLAIMAUTH_LEEWAY
	Leeway time.Duration `env:"CLAIMAUTH_LEEWAY,default=60s"`

	// IntrospectionEndpoint, IntrospectionClientID and
	// IntrospectionClientSecret configure the introspection source.
	// ENV: CLAIMAUTH_INTROSPECTION_ENDPOINT / _CLIENT_ID / _CLIENT_SECRET
	IntrospectionEndpoint     string `env:"CLAIMAUTH_INTROSPECTION_ENDPOINT"`
	IntrospectionClientID     string `env:"CLAIMAUTH_INTROSPECTION_CLIENT_ID"`
	IntrospectionClientSecret string `env:"CLAIMAUTH_INTROSPECTION_CLIENT_SECRET"`

	// Converter selects the authority converter variant: "embedded",
	// "scoped" (embedded + scope-namespace filter) or "store".
	// ENV: CLAIMAUTH_CONVERTER
	Converter string `env:"CLAIMAUTH_CONVERTER,default=embedded"`
	// AuthoritiesClaim is the claim read by the embedded/scoped variants.
	// ENV: CLAIMAUTH_AUTHORITIES_CLAIM
	AuthoritiesClaim string `env:"CLAIMAUTH_AUTHORITIES_CLAIM,default=authorities"`
	// RequiredScopes lists scopes of which at least one must be present;
	// semicolon-separated in the environment.
	// ENV: CLAIMAUTH_REQUIRED_SCOPES
	RequiredScopes []string `env:"CLAIMAUTH_REQUIRED_SCOPES"`
}

// ConfigFromEnv populates a Config via envdecode. Absent variables leave
// their struct-tag defaults in place.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config from env: %w", err)
	}
	return cfg, nil
}

// NewManager assembles the configured source and converter into a Manager.
// The store argument backs the "store" converter variant and may be nil for
// the others. Additional options are applied after the config-derived ones,
// so callers can still override them.
func (c Config) NewManager(ctx context.Context, store authstore.Store, opts ...Option) (*Manager, error) {
	conv, err := c.newConverter(store)
	if err != nil {
		return nil, err
	}

	all := []Option{WithConverter(conv)}
	if len(c.RequiredScopes) > 0 {
		all = append(all, WithRequiredScopes(c.RequiredScopes...))
	}
	all = append(all, opts...)

	switch c.Source {
	case "", "jwt":
		return NewJWTManager(ctx, JWTConfig{
			Issuer:    c.Issuer,
			Audiences: audiences(c.Audience),
			JWKSURL:   c.JWKSURL,
			Leeway:    c.Leeway,
		}, all...)
	case "introspection":
		return NewIntrospectionManager(IntrospectionConfig{
			Endpoint:     c.IntrospectionEndpoint,
			ClientID:     c.IntrospectionClientID,
			ClientSecret: c.IntrospectionClientSecret,
		}, all...)
	default:
		return nil, fmt.Errorf("unknown claims source %q", c.Source)
	}
}

func (c Config) newConverter(store authstore.Store) (authority.Converter, error) {
	switch c.Converter {
	case "", "embedded":
		return authority.Embedded(c.AuthoritiesClaim), nil
	case "scoped":
		return authority.ScopeFiltered(authority.Embedded(c.AuthoritiesClaim)), nil
	case "store":
		if store == nil {
			return nil, fmt.Errorf("converter %q requires an authority store", c.Converter)
		}
		return authstore.NewConverter(store), nil
	default:
		return nil, fmt.Errorf("unknown converter variant %q", c.Converter)
	}
}

func audiences(aud string) []string {
	if aud == "" {
		return nil
	}
	return []string{aud}
}
