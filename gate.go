package goGate

import (
	"fmt"
	"log/slog"
	"sync"
)

// Decision is the outcome of a gate evaluation.
type Decision uint8

const (
	// DecisionSuspend means persisted state has not loaded yet. Render
	// nothing and do not navigate.
	DecisionSuspend Decision = iota
	DecisionAllow
	DecisionRedirectToLogin
	DecisionRedirectToHome
)

func (d Decision) String() string {
	switch d {
	case DecisionSuspend:
		return "SUSPEND"
	case DecisionAllow:
		return "ALLOW"
	case DecisionRedirectToLogin:
		return "REDIRECT_TO_LOGIN"
	case DecisionRedirectToHome:
		return "REDIRECT_TO_HOME"
	default:
		return fmt.Sprintf("Decision(%d)", uint8(d))
	}
}

// Redirect reports whether d requires navigation.
func (d Decision) Redirect() bool {
	return d == DecisionRedirectToLogin || d == DecisionRedirectToHome
}

// NavigateOptions mirrors the navigation provider's options. The gate always
// sets Replace.
type NavigateOptions struct {
	Replace bool
}

// Navigator is the navigation provider the gate redirects through.
type Navigator interface {
	Navigate(location string, opts NavigateOptions)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(location string, opts NavigateOptions)

func (f NavigatorFunc) Navigate(location string, opts NavigateOptions) {
	f(location, opts)
}

// GateOptions configures a [Gate].
type GateOptions struct {
	LoginLocation string
	HomeLocation  string
	Logger        *slog.Logger
	Metrics       *Metrics
}

// Gate decides whether the current location may be shown for the current
// session and redirects through a [Navigator] when it may not.
//
// The gate re-evaluates on every [Gate.SetLocation] and on every store
// notification. It never navigates while the store is not hydrated, always
// navigates with replace semantics, and skips navigation when the target is
// already the current location.
type Gate struct {
	store      *Store
	nav        Navigator
	classifier Classifier
	login      string
	home       string
	logger     *slog.Logger
	metrics    *Metrics

	mu          sync.Mutex
	location    string
	hasLocation bool
	last        Decision
	unsubscribe func()
}

// NewGate attaches a gate to store. The login location must not classify as
// protected and the home location must not classify as public.
func NewGate(store *Store, nav Navigator, classifier Classifier, opts GateOptions) (*Gate, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: gate requires a store", ErrInvalidConfig)
	}
	if nav == nil {
		return nil, ErrNavigatorRequired
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: gate requires a classifier", ErrInvalidConfig)
	}
	login := opts.LoginLocation
	if login == "" {
		login = "/login"
	}
	home := opts.HomeLocation
	if home == "" {
		home = "/"
	}
	if NormalizeLocation(login) == NormalizeLocation(home) {
		return nil, fmt.Errorf("%w: login and home locations must differ", ErrInvalidConfig)
	}
	// A redirect target the gate would itself reject loops forever.
	if classifier.Classify(login) == ClassProtected {
		return nil, fmt.Errorf("%w: login location %q is protected", ErrInvalidConfig, login)
	}
	if classifier.Classify(home) == ClassPublic {
		return nil, fmt.Errorf("%w: home location %q is public", ErrInvalidConfig, home)
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	g := &Gate{
		store:      store,
		nav:        nav,
		classifier: classifier,
		login:      login,
		home:       home,
		logger:     logger,
		metrics:    opts.Metrics,
	}
	g.unsubscribe = store.Subscribe(func(State) {
		g.Evaluate()
	})
	return g, nil
}

// Decide returns the decision for location under the store's current state.
// It has no side effects.
func (g *Gate) Decide(location string) Decision {
	return g.decide(g.store.State(), location)
}

func (g *Gate) decide(st State, location string) Decision {
	if !st.Hydrated {
		return DecisionSuspend
	}
	switch g.classifier.Classify(location) {
	case ClassOpen:
		return DecisionAllow
	case ClassPublic:
		if st.Authenticated() {
			return DecisionRedirectToHome
		}
		return DecisionAllow
	default:
		if st.Authenticated() {
			return DecisionAllow
		}
		return DecisionRedirectToLogin
	}
}

// Target returns where d redirects to, or "" when it does not redirect.
func (g *Gate) Target(d Decision) string {
	switch d {
	case DecisionRedirectToLogin:
		return g.login
	case DecisionRedirectToHome:
		return g.home
	default:
		return ""
	}
}

// Authorize decides for location and records the outcome in metrics without
// navigating. It is the entry point for request-scoped callers such as HTTP
// middleware, which have no shared current location.
func (g *Gate) Authorize(location string) (Decision, string) {
	d := g.Decide(location)
	g.count(d)
	return d, g.Target(d)
}

// SetLocation records a location change and evaluates it.
func (g *Gate) SetLocation(location string) Decision {
	g.mu.Lock()
	g.location = location
	g.hasLocation = true
	g.mu.Unlock()
	return g.Evaluate()
}

// Location returns the current location as last set or navigated to.
func (g *Gate) Location() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.location
}

// Last returns the most recent evaluated decision.
func (g *Gate) Last() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Evaluate re-runs the decision for the current location and navigates if
// required. Before any location is set it returns [DecisionSuspend].
func (g *Gate) Evaluate() Decision {
	g.mu.Lock()
	if !g.hasLocation {
		g.mu.Unlock()
		return DecisionSuspend
	}
	st := g.store.State()
	current := g.location
	d := g.decide(st, current)
	g.last = d
	target := g.Target(d)
	navigate := false
	if target != "" {
		if NormalizeLocation(target) == NormalizeLocation(current) {
			g.metrics.Inc(MetricNavigationDeduped)
		} else {
			g.location = target
			navigate = true
		}
	}
	g.mu.Unlock()

	g.count(d)
	if navigate {
		g.logger.Debug("gate redirect", "decision", d.String(), "from", current, "to", target)
		g.nav.Navigate(target, NavigateOptions{Replace: true})
	}
	return d
}

// Close detaches the gate from the store.
func (g *Gate) Close() {
	if g == nil || g.unsubscribe == nil {
		return
	}
	g.unsubscribe()
}

func (g *Gate) count(d Decision) {
	switch d {
	case DecisionSuspend:
		g.metrics.Inc(MetricGateSuspend)
	case DecisionAllow:
		g.metrics.Inc(MetricGateAllow)
	case DecisionRedirectToLogin:
		g.metrics.Inc(MetricGateRedirectLogin)
	case DecisionRedirectToHome:
		g.metrics.Inc(MetricGateRedirectHome)
	}
}
