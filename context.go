package claimauth

import "context"

type authenticationContextKey struct{}

// WithAuthentication stashes a resolved Authentication on the context. The
// middleware does this for every accepted request; handlers and
// authorization policies read it back with FromContext.
func WithAuthentication(ctx context.Context, a *Authentication) context.Context {
	return context.WithValue(ctx, authenticationContextKey{}, a)
}

// FromContext retrieves the Authentication for the current request,
// regardless of which claims source produced it.
func FromContext(ctx context.Context) (*Authentication, bool) {
	if ctx == nil {
		return nil, false
	}
	a, ok := ctx.Value(authenticationContextKey{}).(*Authentication)
	return a, ok
}
