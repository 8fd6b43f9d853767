package claimauth

import "errors"

// ErrInvalidToken indicates no identity could be established from the
// bearer token: decoding or introspection failed, timed out, or the token
// is inactive. Infrastructure detail is deliberately not reflected in the
// sentinel so authorization decisions cannot leak it.
var ErrInvalidToken = errors.New("claimauth: invalid token")

// ErrInsufficientScope indicates the caller authenticated but the token's
// scope set does not overlap the required scopes.
var ErrInsufficientScope = errors.New("claimauth: insufficient scope")

// ErrLookup indicates authority resolution failed, typically because an
// external authority store was unreachable. It is a rejection, never an
// empty grant: confusing "no authorities" with "store unavailable" would be
// a security defect.
var ErrLookup = errors.New("claimauth: authority lookup failed")
