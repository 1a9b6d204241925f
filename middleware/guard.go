package middleware

import (
	"context"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

type decisionContextKey struct{}

type identityContextKey struct{}

// DecisionFromContext returns the decision [Gate] allowed the request with.
func DecisionFromContext(ctx context.Context) (goGate.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(goGate.Decision)
	return d, ok
}

// IdentityFromContext returns the identity [RequireSession] attached.
func IdentityFromContext(ctx context.Context) (*goGate.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goGate.Identity)
	return id, ok
}

// Gate serves a page only when the gate allows its path. Redirect decisions
// answer 303 to the login or home location. Before hydration completes the
// request is refused with 503 and Retry-After.
func Gate(g *goGate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				suspend(w)
				return
			}

			d, target := g.Authorize(r.URL.Path)
			switch d {
			case goGate.DecisionAllow:
				ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
				next.ServeHTTP(w, r.WithContext(ctx))
			case goGate.DecisionRedirectToLogin, goGate.DecisionRedirectToHome:
				http.Redirect(w, r, target, http.StatusSeeOther)
			default:
				suspend(w)
			}
		})
	}
}

// RequireSession guards JSON endpoints: 401 without a session, 503 before
// hydration. The identity is attached to the request context.
func RequireSession(store *goGate.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				suspend(w)
				return
			}

			st := store.State()
			if !st.Hydrated {
				suspend(w)
				return
			}
			if !st.Authenticated() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, st.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func suspend(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	http.Error(w, "session loading", http.StatusServiceUnavailable)
}
