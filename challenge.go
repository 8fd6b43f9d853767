package claimauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/oauthkit/claimauth/claims"
)

// Challenge describes the HTTP answer to a failed authentication: a status
// code and a WWW-Authenticate header value per RFC 6750.
type Challenge struct {
	Status          int
	WWWAuthenticate string
}

// Write emits the challenge on the response.
func (c Challenge) Write(w http.ResponseWriter) {
	if c.WWWAuthenticate != "" {
		w.Header().Set("WWW-Authenticate", c.WWWAuthenticate)
	}
	w.WriteHeader(c.Status)
}

// MissingTokenChallenge is the challenge for a request carrying no bearer
// token at all.
func MissingTokenChallenge(realm string) Challenge {
	return Challenge{
		Status:          http.StatusUnauthorized,
		WWWAuthenticate: fmt.Sprintf(`Bearer realm=%q`, realm),
	}
}

// ChallengeFor maps a Resolve rejection onto its HTTP challenge. Error
// descriptions stay generic: the wire never learns whether a signature was
// bad, a store was down, or which claim was malformed.
func ChallengeFor(err error, realm string) Challenge {
	switch {
	case errors.Is(err, ErrInsufficientScope):
		return Challenge{
			Status:          http.StatusForbidden,
			WWWAuthenticate: fmt.Sprintf(`Bearer realm=%q error="insufficient_scope"`, realm),
		}
	case errors.Is(err, ErrLookup):
		// Store outage is a server-side condition, not a token defect.
		return Challenge{Status: http.StatusServiceUnavailable}
	case errors.Is(err, claims.ErrExpired):
		return Challenge{
			Status:          http.StatusUnauthorized,
			WWWAuthenticate: fmt.Sprintf(`Bearer realm=%q error="invalid_token", error_description="token expired"`, realm),
		}
	default:
		return Challenge{
			Status:          http.StatusUnauthorized,
			WWWAuthenticate: fmt.Sprintf(`Bearer realm=%q error="invalid_token"`, realm),
		}
	}
}
