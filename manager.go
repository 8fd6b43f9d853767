package claimauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/claims"
	"github.com/oauthkit/claimauth/internal/logctx"
)

// ClaimsSource obtains the raw claim map behind a bearer token, either by
// verifying a JWT locally or by introspecting the token remotely. A source
// must respect ctx cancellation and return an error for any token it cannot
// vouch for.
type ClaimsSource interface {
	ReadClaims(ctx context.Context, token string) (map[string]any, error)
}

// ClaimsSourceFunc adapts a plain function to the ClaimsSource interface.
type ClaimsSourceFunc func(ctx context.Context, token string) (map[string]any, error)

// ReadClaims implements ClaimsSource.
func (f ClaimsSourceFunc) ReadClaims(ctx context.Context, token string) (map[string]any, error) {
	return f(ctx, token)
}

// Option configures a Manager.
type Option func(*Manager)

// WithConverter selects the authority converter. Defaults to the embedded
// converter reading the "authorities" claim.
func WithConverter(conv authority.Converter) Option {
	return func(m *Manager) { m.converter = conv }
}

// WithRequiredScopes requires the token's scope set to overlap the given
// scopes: resolution fails with ErrInsufficientScope unless at least one is
// present.
func WithRequiredScopes(scopes ...string) Option {
	return func(m *Manager) { m.requiredScopes = append([]string(nil), scopes...) }
}

// WithClock overrides the time source used for expiry validation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.clock = now }
}

// WithLogger sets the logger for resolution outcomes. Defaults to
// slog.Default(); rejections are logged at Debug with their taxonomy class
// only.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// Manager orchestrates one resolution per inbound request: obtain claims
// from the source, validate them into a ClaimSet, run the configured
// converter, enforce required scopes, and hand back an Authentication.
//
// A Manager holds no per-call mutable state and is safe for concurrent use.
type Manager struct {
	source         ClaimsSource
	converter      authority.Converter
	requiredScopes []string
	clock          func() time.Time
	log            *slog.Logger
}

// NewManager builds a Manager around a claims source.
func NewManager(source ClaimsSource, opts ...Option) (*Manager, error) {
	if source == nil {
		return nil, errors.New("claims source is required")
	}
	m := &Manager{
		source:    source,
		converter: authority.Embedded(authority.DefaultClaim),
		clock:     time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Resolve authenticates a bearer token. Every rejection wraps exactly one
// taxonomy sentinel, discriminable with errors.Is:
//
//   - ErrInvalidToken: the source could not establish identity (bad
//     signature, inactive token, timeout)
//   - claims.ErrMalformed, claims.ErrExpired: structural claim failures
//   - ErrLookup: the authority converter failed (store unreachable)
//   - ErrInsufficientScope: valid identity, wrong scope
func (m *Manager) Resolve(ctx context.Context, token string) (*Authentication, error) {
	raw, err := m.source.ReadClaims(ctx, token)
	if err != nil {
		return nil, m.reject(ctx, errors.Join(ErrInvalidToken, err))
	}

	cs, err := claims.FromMap(raw, m.clock())
	if err != nil {
		return nil, m.reject(ctx, err)
	}

	granted, err := m.converter.Convert(ctx, cs)
	if err != nil {
		return nil, m.reject(ctx, errors.Join(ErrLookup, err))
	}

	if len(m.requiredScopes) > 0 && !m.scopeSatisfied(cs) {
		return nil, m.reject(ctx, ErrInsufficientScope)
	}

	ctx = logctx.WithAuthData(ctx, &logctx.AuthData{Subject: cs.Subject(), Issuer: cs.Issuer()})
	m.log.DebugContext(ctx, "authentication accepted", "authorities", granted.Len())
	return NewAuthentication(cs, granted), nil
}

// scopeSatisfied applies the any-overlap rule: one shared scope is enough.
func (m *Manager) scopeSatisfied(cs *claims.ClaimSet) bool {
	for _, want := range m.requiredScopes {
		if cs.HasScope(want) {
			return true
		}
	}
	return false
}

func (m *Manager) reject(ctx context.Context, err error) error {
	m.log.DebugContext(ctx, "authentication rejected", "class", classOf(err))
	return err
}

func classOf(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientScope):
		return "insufficient_scope"
	case errors.Is(err, ErrLookup):
		return "lookup_failed"
	case errors.Is(err, claims.ErrExpired):
		return "expired_token"
	case errors.Is(err, claims.ErrMalformed):
		return "malformed_claims"
	default:
		return "invalid_token"
	}
}
