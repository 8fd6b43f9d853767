// Package claimauth turns OAuth2 bearer tokens into authenticated
// identities carrying a resolved authority set. It is the glue a resource
// server needs between "a token arrived" and "this principal holds these
// capabilities": token verification and introspection are delegated to
// standard collaborators, and the one piece of domain logic — deriving
// authorities from a validated claim set — is deterministic and pluggable.
//
// # Resolution
//
// A Manager walks a fixed pipeline per request: a ClaimsSource produces the
// raw claim map (local JWT verification or RFC 7662 introspection), the
// claims package validates it into an immutable ClaimSet, an
// authority.Converter derives the granted authorities, and an optional
// required-scope check gates the result. Success yields an Authentication;
// every failure is an explicit rejection wrapping one taxonomy sentinel.
// There is no default-permit path and no partially authenticated state.
//
// Example:
//
//	ctx := context.Background()
//	m, err := claimauth.NewJWTManager(ctx, claimauth.JWTConfig{
//	    Issuer:    "https://issuer.example",
//	    Audiences: []string{"https://api.example.com"},
//	},
//	    claimauth.WithConverter(authority.ScopeFiltered(authority.Embedded(authority.DefaultClaim))),
//	    claimauth.WithRequiredScopes("showcase"),
//	)
//	if err != nil { log.Fatal(err) }
//
//	authn, err := m.Resolve(r.Context(), bearerToken)
//	if errors.Is(err, claimauth.ErrInsufficientScope) { /* 403 */ }
//	if err != nil { /* 401 */ }
//	authn.HasAuthority("message:read")
//
// # Converters
//
// Three converter variants cover the usual deployments: authority.Embedded
// reads authorities embedded in the token, authority.ScopeFiltered
// restricts namespaced authorities to the token's granted scopes, and
// authstore.NewConverter resolves them through an external store (Redis,
// watched file, in-memory) on every call.
//
// # HTTP integration
//
// Middleware adapts a Manager to net/http: it extracts the bearer token,
// resolves it, stashes the Authentication on the request context
// (FromContext), and writes RFC 6750 challenges for rejections. The
// claimauthtest package builds Authentication values from literal claims
// for handler tests, bypassing decoding entirely.
//
// # Errors
//
// ErrInvalidToken, claims.ErrMalformed, claims.ErrExpired, ErrLookup and
// ErrInsufficientScope partition every rejection; discriminate with
// errors.Is. A store outage surfaces as ErrLookup, never as an empty
// authority set.
package claimauth
