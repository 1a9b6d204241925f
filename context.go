package goGate

import (
	"context"
	"io"
	"log/slog"

	"github.com/MrEthical07/goGate/internal/credctx"
)

type requestIDContextKey struct{}

// WithoutCredentials marks ctx so requests made with it carry no
// Authorization header and a 401 answer never clears the session. Login,
// registration and password reset calls use it.
func WithoutCredentials(ctx context.Context) context.Context {
	return credctx.Anonymous(ctx)
}

// WithRequestID sets the request ID the [Transport] sends instead of
// generating one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
