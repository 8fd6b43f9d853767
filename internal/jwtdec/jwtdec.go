// Package jwtdec turns bearer JWT strings into verified raw claim maps. It
// enforces signature, issuer, audience, algorithm and time validity; the
// structural claim-set validation (subject, scope shape) belongs to the
// claims package and is deliberately not duplicated here.
package jwtdec

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode indicates the token could not be verified (signature, issuer,
// audience, exp/nbf, algorithm). Callers treat it as "could not establish
// identity".
var ErrDecode = errors.New("jwtdec: token verification failed")

// Config controls verification behavior for access tokens.
type Config struct {
	Issuer string
	// ExpectedAudiences contains the accepted audiences. With exactly one
	// entry the parser's built-in audience enforcement is used; with several,
	// intersection logic runs after parsing.
	ExpectedAudiences []string
	AllowedAlgs       []string
	Leeway            time.Duration
}

// DefaultConfig returns a Config with safe defaults for algorithm and leeway.
func DefaultConfig() *Config {
	return &Config{
		AllowedAlgs: []string{"RS256"},
		Leeway:      60 * time.Second,
	}
}

func (c *Config) normalize() {
	if len(c.AllowedAlgs) == 0 {
		c.AllowedAlgs = []string{"RS256"}
	}
	if c.Leeway == 0 {
		c.Leeway = 60 * time.Second
	}
}

// Decoder verifies bearer JWTs and exposes their claims as a raw map.
type Decoder struct {
	cfg     *Config
	issuer  string
	keyfunc jwt.Keyfunc
}

// NewFromDiscovery performs OIDC discovery to obtain jwks_uri and issuer and
// constructs a Decoder. JWKS keys are auto-refreshed.
func NewFromDiscovery(ctx context.Context, cfg *Config) (*Decoder, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	cfg.normalize()

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		Issuer  string `json:"issuer"`
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, errors.New("discovery incomplete: missing jwks_uri")
	}

	return newDecoder(ctx, cfg, meta.Issuer, meta.JwksURI)
}

// NewStatic constructs a Decoder against a statically configured JWKS URI
// (no discovery).
func NewStatic(ctx context.Context, cfg *Config, jwksURI string) (*Decoder, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}
	cfg.normalize()
	return newDecoder(ctx, cfg, cfg.Issuer, jwksURI)
}

func newDecoder(ctx context.Context, cfg *Config, issuer, jwksURI string) (*Decoder, error) {
	// Auto-refreshing JWKS
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return &Decoder{
		cfg:    cfg,
		issuer: issuer,
		keyfunc: func(t *jwt.Token) (any, error) {
			// Enforce allowed algs
			alg := t.Method.Alg()
			allowed := false
			for _, a := range cfg.AllowedAlgs {
				if alg == a {
					allowed = true
					break
				}
			}
			if !allowed {
				return nil, fmt.Errorf("disallowed alg: %s", alg)
			}
			return kf.Keyfunc(t)
		},
	}, nil
}

// ReadClaims verifies the token and returns its raw claim map.
func (d *Decoder) ReadClaims(ctx context.Context, tok string) (map[string]any, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(d.cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(d.issuer),
		jwt.WithLeeway(d.cfg.Leeway),
	}
	if len(d.cfg.ExpectedAudiences) == 1 {
		opts = append(opts, jwt.WithAudience(d.cfg.ExpectedAudiences[0]))
	}
	parser := jwt.NewParser(opts...)

	parsed, err := parser.Parse(tok, d.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: token parse/verify failed: %v", ErrDecode, err)
	}

	// Header checks (RFC 9068 typ)
	if typ, _ := parsed.Header["typ"].(string); typ != "at+jwt" && typ != "application/at+jwt" {
		return nil, fmt.Errorf("%w: invalid typ; want at+jwt", ErrDecode)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", ErrDecode)
	}

	if iss, _ := mapClaims["iss"].(string); iss == "" || iss != d.issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrDecode)
	}
	if len(d.cfg.ExpectedAudiences) > 1 && !audIntersects(mapClaims["aud"], d.cfg.ExpectedAudiences) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrDecode)
	}
	// Basic sanity on iat when present: not too far in the future.
	if iatf, ok := mapClaims["iat"].(float64); ok {
		iat := time.Unix(int64(iatf), 0)
		if iat.After(time.Now().Add(d.cfg.Leeway + 5*time.Minute)) {
			return nil, fmt.Errorf("%w: iat too far in future", ErrDecode)
		}
	}

	return map[string]any(mapClaims), nil
}

func audIntersects(aud any, wants []string) bool {
	wantSet := make(map[string]struct{}, len(wants))
	for _, w := range wants {
		wantSet[w] = struct{}{}
	}
	switch v := aud.(type) {
	case string:
		_, ok := wantSet[v]
		return ok
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if _, ok2 := wantSet[s]; ok2 {
					return true
				}
			}
		}
	case []string:
		for _, s := range v {
			if _, ok := wantSet[s]; ok {
				return true
			}
		}
	}
	return false
}
