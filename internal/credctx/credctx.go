// Package credctx marks requests that must be sent without session credentials.
package credctx

import "context"

type anonymousKey struct{}

// Anonymous returns a context whose requests carry no Authorization header and
// never invalidate the session on 401.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

// IsAnonymous reports whether ctx was marked by [Anonymous].
func IsAnonymous(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}
