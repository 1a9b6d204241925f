package goGate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/goGate/session"
)

type navCall struct {
	location string
	replace  bool
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) Navigate(location string, opts NavigateOptions) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{location: location, replace: opts.Replace})
}

func (n *recordingNavigator) Calls() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

func dashboardRoutes(t testing.TB) *RouteTable {
	t.Helper()
	table, err := NewRouteTable(map[string]LocationClass{
		"/login":          ClassPublic,
		"/register":       ClassPublic,
		"/reset-password": ClassOpen,
		"/":               ClassProtected,
		"/dashboard":      ClassProtected,
	})
	if err != nil {
		t.Fatalf("NewRouteTable: %v", err)
	}
	return table
}

func newTestGate(t *testing.T, p Persistence) (*Store, *Gate, *recordingNavigator) {
	t.Helper()
	store := NewStore(p, StoreOptions{})
	nav := &recordingNavigator{}
	g, err := NewGate(store, nav, dashboardRoutes(t), GateOptions{})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	t.Cleanup(func() {
		g.Close()
		store.Close()
	})
	return store, g, nav
}

func TestGateSuspendsUntilHydrated(t *testing.T) {
	store, g, nav := newTestGate(t, nil)

	if d := g.SetLocation("/dashboard"); d != DecisionSuspend {
		t.Fatalf("expected SUSPEND before hydration, got %s", d)
	}
	if d := g.SetLocation("/login"); d != DecisionSuspend {
		t.Fatalf("expected SUSPEND on public page before hydration, got %s", d)
	}
	if len(nav.Calls()) != 0 {
		t.Fatalf("gate must not navigate before hydration: %v", nav.Calls())
	}

	g.SetLocation("/dashboard")
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	calls := nav.Calls()
	if len(calls) != 1 || calls[0].location != "/login" || !calls[0].replace {
		t.Fatalf("expected one replace navigation to /login, got %v", calls)
	}
	if g.Last() != DecisionRedirectToLogin {
		t.Fatalf("expected REDIRECT_TO_LOGIN, got %s", g.Last())
	}
}

func TestGateRestoredSessionAllowsProtected(t *testing.T) {
	u := testIdentity("u1")
	p := newBlockingPersistence(session.Record{Token: "tok", User: &u}, nil)
	close(p.release)
	store, g, nav := newTestGate(t, p)

	g.SetLocation("/dashboard")
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if g.Last() != DecisionAllow {
		t.Fatalf("expected ALLOW, got %s", g.Last())
	}
	if len(nav.Calls()) != 0 {
		t.Fatalf("expected no navigation, got %v", nav.Calls())
	}
}

func TestGateDecisionTable(t *testing.T) {
	store, g, _ := newTestGate(t, nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	cases := []struct {
		location string
		loggedIn bool
		want     Decision
	}{
		{"/dashboard", false, DecisionRedirectToLogin},
		{"/unknown/page", false, DecisionRedirectToLogin},
		{"/login", false, DecisionAllow},
		{"/reset-password", false, DecisionAllow},
		{"/dashboard", true, DecisionAllow},
		{"/login", true, DecisionRedirectToHome},
		{"/register?token=x", true, DecisionRedirectToHome},
		{"/reset-password", true, DecisionAllow},
	}
	for _, tc := range cases {
		if tc.loggedIn {
			if err := store.Login("tok", testIdentity("u1")); err != nil {
				t.Fatalf("Login: %v", err)
			}
		} else {
			store.Logout()
		}
		if got := g.Decide(tc.location); got != tc.want {
			t.Fatalf("Decide(%q, loggedIn=%v) = %s, want %s", tc.location, tc.loggedIn, got, tc.want)
		}
	}
}

func TestGateLogoutRedirectsToLogin(t *testing.T) {
	store, g, nav := newTestGate(t, nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if err := store.Login("tok", testIdentity("u1")); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if d := g.SetLocation("/dashboard"); d != DecisionAllow {
		t.Fatalf("expected ALLOW, got %s", d)
	}

	store.Logout()
	calls := nav.Calls()
	if len(calls) != 1 || calls[0].location != "/login" || !calls[0].replace {
		t.Fatalf("expected logout to redirect to /login, got %v", calls)
	}
	if g.Location() != "/login" {
		t.Fatalf("expected gate location /login, got %q", g.Location())
	}

	// now on /login and logged out: settled, no further navigation
	g.Evaluate()
	store.Logout()
	if n := len(nav.Calls()); n != 1 {
		t.Fatalf("expected no oscillation, got %d navigations", n)
	}
}

func TestGateLoginRedirectsHomeOnce(t *testing.T) {
	store, g, nav := newTestGate(t, nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	g.SetLocation("/login")
	if err := store.Login("tok", testIdentity("u1")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	calls := nav.Calls()
	if len(calls) != 1 || calls[0].location != "/" || !calls[0].replace {
		t.Fatalf("expected one redirect home, got %v", calls)
	}
	if g.Last() != DecisionRedirectToHome {
		t.Fatalf("expected REDIRECT_TO_HOME, got %s", g.Last())
	}
	if d := g.Evaluate(); d != DecisionAllow {
		t.Fatalf("expected gate to settle on ALLOW at home, got %s", d)
	}
	if n := len(nav.Calls()); n != 1 {
		t.Fatalf("expected no further navigation, got %d", n)
	}
}

func TestGateSettlesAfterRedirect(t *testing.T) {
	store := NewStore(nil, StoreOptions{})
	defer store.Close()
	nav := &recordingNavigator{}
	m := NewMetrics(MetricsConfig{Enabled: true})
	g, err := NewGate(store, nav, dashboardRoutes(t), GateOptions{Metrics: m})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	defer g.Close()

	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	g.SetLocation("/dashboard")
	for i := 0; i < 3; i++ {
		g.Evaluate()
	}
	if n := len(nav.Calls()); n != 1 {
		t.Fatalf("repeated evaluation must not navigate again, got %d", n)
	}
	if m.Value(MetricGateRedirectLogin) != 1 {
		t.Fatalf("expected one redirect counted, got %d", m.Value(MetricGateRedirectLogin))
	}
}

func TestGateDedupesNavigationToCurrentLocation(t *testing.T) {
	store := NewStore(nil, StoreOptions{})
	defer store.Close()
	nav := &recordingNavigator{}
	m := NewMetrics(MetricsConfig{Enabled: true})
	// raw-string classifier: "/login?from=x" is unknown and so protected
	classifier := ClassifierFunc(func(location string) LocationClass {
		if location == "/login" {
			return ClassPublic
		}
		return ClassProtected
	})
	g, err := NewGate(store, nav, classifier, GateOptions{Metrics: m})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	defer g.Close()
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	if d := g.SetLocation("/login?from=x"); d != DecisionRedirectToLogin {
		t.Fatalf("expected REDIRECT_TO_LOGIN, got %s", d)
	}
	if n := len(nav.Calls()); n != 0 {
		t.Fatalf("target equals current location, expected no navigation, got %d", n)
	}
	if m.Value(MetricNavigationDeduped) != 1 {
		t.Fatalf("expected deduped navigation counted")
	}
}

func TestGateEvaluateBeforeLocation(t *testing.T) {
	store, g, nav := newTestGate(t, nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if d := g.Evaluate(); d != DecisionSuspend {
		t.Fatalf("expected SUSPEND without a location, got %s", d)
	}
	if len(nav.Calls()) != 0 {
		t.Fatalf("expected no navigation without a location")
	}
}

func TestGateCloseStopsReacting(t *testing.T) {
	store, g, nav := newTestGate(t, nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if err := store.Login("tok", testIdentity("u1")); err != nil {
		t.Fatalf("Login: %v", err)
	}
	g.SetLocation("/dashboard")
	g.Close()
	store.Logout()
	if len(nav.Calls()) != 0 {
		t.Fatalf("closed gate must not navigate, got %v", nav.Calls())
	}
}

func TestGateAuthorizeDoesNotNavigate(t *testing.T) {
	store, g, nav := newTestGate(t, nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	d, target := g.Authorize("/dashboard")
	if d != DecisionRedirectToLogin || target != "/login" {
		t.Fatalf("unexpected Authorize result %s %q", d, target)
	}
	if len(nav.Calls()) != 0 {
		t.Fatalf("Authorize must not navigate")
	}
}

func TestNewGateValidation(t *testing.T) {
	store := NewStore(nil, StoreOptions{})
	defer store.Close()
	nav := &recordingNavigator{}
	routes := dashboardRoutes(t)

	if _, err := NewGate(nil, nav, routes, GateOptions{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil store, got %v", err)
	}
	if _, err := NewGate(store, nil, routes, GateOptions{}); !errors.Is(err, ErrNavigatorRequired) {
		t.Fatalf("expected ErrNavigatorRequired, got %v", err)
	}
	if _, err := NewGate(store, nav, nil, GateOptions{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil classifier, got %v", err)
	}
	if _, err := NewGate(store, nav, routes, GateOptions{LoginLocation: "/dashboard"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected protected login location rejected, got %v", err)
	}
	if _, err := NewGate(store, nav, routes, GateOptions{HomeLocation: "/register"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected public home location rejected, got %v", err)
	}
	if _, err := NewGate(store, nav, routes, GateOptions{LoginLocation: "/login", HomeLocation: "/login/"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected identical login and home rejected, got %v", err)
	}
}

func TestDecisionString(t *testing.T) {
	if DecisionRedirectToLogin.String() != "REDIRECT_TO_LOGIN" {
		t.Fatalf("unexpected string %q", DecisionRedirectToLogin.String())
	}
	if !DecisionRedirectToHome.Redirect() || DecisionAllow.Redirect() || DecisionSuspend.Redirect() {
		t.Fatalf("unexpected Redirect results")
	}
}
