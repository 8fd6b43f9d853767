package claimauth

import (
	"log/slog"

	"github.com/oauthkit/claimauth/internal/logctx"
)

// NewLogHandler wraps an slog.Handler so that records emitted while a
// request is being resolved carry a "req" group (request id, method, path)
// and, once authentication succeeds, an "auth" group (subject, issuer).
// Install it on the logger handed to WithLogger, or on the process default:
//
//	slog.SetDefault(slog.New(claimauth.NewLogHandler(slog.NewJSONHandler(os.Stdout, nil))))
func NewLogHandler(inner slog.Handler) slog.Handler {
	return logctx.Handler{Handler: inner}
}
