// Package logctx decorates slog records with request and authentication
// attributes carried on the context, so every log line emitted during a
// resolution is attributable without threading loggers through call sites.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps an slog.Handler and appends context-carried attribute
// groups to each record.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}

	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		r.AddAttrs(slog.Group("auth",
			slog.String("subject", ad.Subject),
			slog.String("issuer", ad.Issuer),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

// RequestData identifies the inbound HTTP request being resolved.
type RequestData struct {
	RequestID  string
	Method     string
	Path       string
	RemoteAddr string
}

// WithRequestData attaches request attributes to the context.
func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type authDataKey struct{}

// AuthData identifies the authenticated principal once resolution succeeds.
type AuthData struct {
	Subject string
	Issuer  string
}

// WithAuthData attaches principal attributes to the context.
func WithAuthData(ctx context.Context, data *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, data)
}
