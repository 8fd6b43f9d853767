package claimauth

import (
	"context"
	"net/http"
	"time"

	"github.com/oauthkit/claimauth/internal/introspect"
	"github.com/oauthkit/claimauth/internal/jwtdec"
)

// JWTConfig configures a locally verifying JWT claims source.
type JWTConfig struct {
	// Issuer is the authorization server issuer URL. Required.
	Issuer string
	// Audiences are the accepted "aud" values. At least one is required.
	Audiences []string
	// JWKSURL, when set, skips OIDC discovery and fetches keys from this
	// URL directly.
	JWKSURL string
	// AllowedAlgs restricts JWS algorithms; defaults to ["RS256"].
	AllowedAlgs []string
	// Leeway is clock-skew tolerance for time-based claims; defaults to 60s.
	Leeway time.Duration
}

// NewJWTManager builds a Manager whose claims source verifies RFC 9068 JWT
// access tokens. Keys come from OIDC discovery unless JWKSURL is set.
func NewJWTManager(ctx context.Context, cfg JWTConfig, opts ...Option) (*Manager, error) {
	dcfg := jwtdec.DefaultConfig()
	dcfg.Issuer = cfg.Issuer
	dcfg.ExpectedAudiences = append([]string(nil), cfg.Audiences...)
	if len(cfg.AllowedAlgs) > 0 {
		dcfg.AllowedAlgs = append([]string(nil), cfg.AllowedAlgs...)
	}
	if cfg.Leeway > 0 {
		dcfg.Leeway = cfg.Leeway
	}

	var (
		dec *jwtdec.Decoder
		err error
	)
	if cfg.JWKSURL != "" {
		dec, err = jwtdec.NewStatic(ctx, dcfg, cfg.JWKSURL)
	} else {
		dec, err = jwtdec.NewFromDiscovery(ctx, dcfg)
	}
	if err != nil {
		return nil, err
	}
	return NewManager(dec, opts...)
}

// IntrospectionConfig configures an RFC 7662 introspection claims source.
type IntrospectionConfig struct {
	// Endpoint is the introspection endpoint URL. Required.
	Endpoint string
	// ClientID and ClientSecret authenticate this resource server to the
	// endpoint.
	ClientID     string
	ClientSecret string
	// HTTPClient optionally overrides the transport.
	HTTPClient *http.Client
}

// NewIntrospectionManager builds a Manager whose claims source introspects
// opaque tokens against the configured endpoint.
func NewIntrospectionManager(cfg IntrospectionConfig, opts ...Option) (*Manager, error) {
	client, err := introspect.New(introspect.Config{
		Endpoint:     cfg.Endpoint,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		HTTPClient:   cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return NewManager(client, opts...)
}
