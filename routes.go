package goGate

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// LocationClass classifies a navigable location for the [Gate].
type LocationClass uint8

const (
	// ClassProtected locations require an authenticated session. It is the
	// zero value so an unclassified location is denied by default.
	ClassProtected LocationClass = iota
	// ClassPublic locations are only meaningful while logged out
	// (login, registration). Authenticated users are sent home.
	ClassPublic
	// ClassOpen locations are allowed for everyone once hydrated.
	ClassOpen
)

func (c LocationClass) String() string {
	switch c {
	case ClassProtected:
		return "protected"
	case ClassPublic:
		return "public"
	case ClassOpen:
		return "open"
	default:
		return fmt.Sprintf("LocationClass(%d)", uint8(c))
	}
}

// ParseLocationClass parses the names returned by [LocationClass.String].
func ParseLocationClass(s string) (LocationClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "protected":
		return ClassProtected, nil
	case "public":
		return ClassPublic, nil
	case "open":
		return ClassOpen, nil
	default:
		return ClassProtected, fmt.Errorf("%w: unknown location class %q", ErrInvalidConfig, s)
	}
}

// Classifier maps a location to its class. Implementations must return
// [ClassProtected] for locations they do not know.
type Classifier interface {
	Classify(location string) LocationClass
}

// ClassifierFunc adapts a function to [Classifier].
type ClassifierFunc func(location string) LocationClass

func (f ClassifierFunc) Classify(location string) LocationClass {
	return f(location)
}

type routeRule struct {
	pattern string
	prefix  string
	exact   bool
	class   LocationClass
}

// RouteTable classifies locations by pattern. A pattern is either an exact
// path ("/login") or a subtree ("/bars/*", which also matches "/bars").
// The longest matching pattern wins; anything unmatched is protected.
type RouteTable struct {
	rules []routeRule
}

// NewRouteTable builds a table from pattern to class.
func NewRouteTable(routes map[string]LocationClass) (*RouteTable, error) {
	t := &RouteTable{}
	for pattern, class := range routes {
		if err := t.add(pattern, class); err != nil {
			return nil, err
		}
	}
	sort.Slice(t.rules, func(i, j int) bool {
		if len(t.rules[i].prefix) != len(t.rules[j].prefix) {
			return len(t.rules[i].prefix) > len(t.rules[j].prefix)
		}
		// exact beats subtree at equal length
		return t.rules[i].exact && !t.rules[j].exact
	})
	return t, nil
}

func (t *RouteTable) add(pattern string, class LocationClass) error {
	if class > ClassOpen {
		return fmt.Errorf("%w: pattern %q has unknown class %d", ErrInvalidConfig, pattern, class)
	}
	p := strings.TrimSpace(pattern)
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: route pattern %q must start with /", ErrInvalidConfig, pattern)
	}
	rule := routeRule{pattern: p, class: class, exact: true}
	if strings.HasSuffix(p, "/*") {
		rule.exact = false
		p = strings.TrimSuffix(p, "/*")
		if p == "" {
			p = "/"
		}
	} else if strings.Contains(p, "*") {
		return fmt.Errorf("%w: wildcard only allowed as trailing /* in %q", ErrInvalidConfig, pattern)
	}
	rule.prefix = NormalizeLocation(p)
	for _, r := range t.rules {
		if r.prefix == rule.prefix && r.exact == rule.exact {
			return fmt.Errorf("%w: duplicate route pattern %q", ErrInvalidConfig, pattern)
		}
	}
	t.rules = append(t.rules, rule)
	return nil
}

// Classify implements [Classifier].
func (t *RouteTable) Classify(location string) LocationClass {
	if t == nil {
		return ClassProtected
	}
	p := NormalizeLocation(location)
	for _, r := range t.rules {
		if r.exact {
			if p == r.prefix {
				return r.class
			}
			continue
		}
		if p == r.prefix || r.prefix == "/" || strings.HasPrefix(p, r.prefix+"/") {
			return r.class
		}
	}
	return ClassProtected
}

// Patterns returns the configured patterns and their classes.
func (t *RouteTable) Patterns() map[string]LocationClass {
	out := make(map[string]LocationClass, len(t.rules))
	for _, r := range t.rules {
		out[r.pattern] = r.class
	}
	return out
}

// NormalizeLocation reduces a location to a cleaned absolute path with no
// query, fragment or trailing slash. Locations that cannot be parsed
// normalise to themselves trimmed, which classifies them as protected.
func NormalizeLocation(location string) string {
	s := strings.TrimSpace(location)
	if s == "" {
		return "/"
	}
	if u, err := url.Parse(s); err == nil {
		s = u.Path
	} else {
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	return path.Clean(s)
}
