package claimauth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/oauthkit/claimauth/internal/logctx"
)

// MiddlewareOption configures the HTTP middleware.
type MiddlewareOption func(*middleware)

// WithRealm sets the realm advertised in Bearer challenges. Defaults to
// "claimauth".
func WithRealm(realm string) MiddlewareOption {
	return func(mw *middleware) { mw.realm = realm }
}

type middleware struct {
	manager *Manager
	realm   string
}

// Middleware wraps an http.Handler with bearer-token authentication. On
// success the resolved Authentication is placed on the request context; on
// rejection the matching RFC 6750 challenge is written and the wrapped
// handler never runs.
func Middleware(m *Manager, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	mw := &middleware{manager: m, realm: "claimauth"}
	for _, opt := range opts {
		opt(mw)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
				RequestID:  uuid.NewString(),
				Method:     r.Method,
				Path:       r.URL.Path,
				RemoteAddr: r.RemoteAddr,
			})

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				MissingTokenChallenge(mw.realm).Write(w)
				return
			}

			authn, err := mw.manager.Resolve(ctx, token)
			if err != nil {
				ChallengeFor(err, mw.realm).Write(w)
				return
			}

			ctx = WithAuthentication(ctx, authn)
			ctx = logctx.WithAuthData(ctx, &logctx.AuthData{
				Subject: authn.Subject(),
				Issuer:  authn.ClaimSet().Issuer(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// comparison is case-insensitive per RFC 9110.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
