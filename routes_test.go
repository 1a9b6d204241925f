package goGate

import (
	"errors"
	"testing"
)

func TestRouteTableClassify(t *testing.T) {
	table, err := NewRouteTable(map[string]LocationClass{
		"/login":      ClassPublic,
		"/":           ClassProtected,
		"/bars/*":     ClassProtected,
		"/bars/share": ClassOpen,
		"/help/*":     ClassOpen,
	})
	if err != nil {
		t.Fatalf("NewRouteTable: %v", err)
	}

	cases := map[string]LocationClass{
		"/login":               ClassPublic,
		"/login/":              ClassPublic,
		"login":                ClassPublic,
		"/login?next=/bars":    ClassPublic,
		"/login#top":           ClassPublic,
		"/":                    ClassProtected,
		"":                     ClassProtected,
		"/bars":                ClassProtected,
		"/bars/42/stats":       ClassProtected,
		"/bars/share":          ClassOpen,
		"/bars/share/x":        ClassProtected,
		"/help":                ClassOpen,
		"/help/faq":            ClassOpen,
		"/helpdesk":            ClassProtected,
		"/unknown":             ClassProtected,
		"/login/../bars/1":     ClassProtected,
		"/./login":             ClassPublic,
		"https://x.test/login": ClassPublic,
	}
	for loc, want := range cases {
		if got := table.Classify(loc); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", loc, got, want)
		}
	}
}

func TestRouteTableRootSubtree(t *testing.T) {
	table, err := NewRouteTable(map[string]LocationClass{
		"/*":     ClassOpen,
		"/admin": ClassProtected,
	})
	if err != nil {
		t.Fatalf("NewRouteTable: %v", err)
	}
	if table.Classify("/anything/deep") != ClassOpen {
		t.Fatalf("expected root subtree to match everything")
	}
	if table.Classify("/admin") != ClassProtected {
		t.Fatalf("expected exact pattern to win")
	}
}

func TestRouteTableRejectsBadPatterns(t *testing.T) {
	bad := []map[string]LocationClass{
		{"login": ClassPublic},
		{"/bars/*/stats": ClassProtected},
		{"/bars*": ClassProtected},
		{"/login": LocationClass(9)},
		{"/login": ClassPublic, "/login/": ClassPublic},
	}
	for _, routes := range bad {
		if _, err := NewRouteTable(routes); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig for %v, got %v", routes, err)
		}
	}
}

func TestNilRouteTableIsProtected(t *testing.T) {
	var table *RouteTable
	if table.Classify("/login") != ClassProtected {
		t.Fatalf("nil table must classify as protected")
	}
}

func TestParseLocationClass(t *testing.T) {
	for _, c := range []LocationClass{ClassProtected, ClassPublic, ClassOpen} {
		got, err := ParseLocationClass(" " + c.String() + " ")
		if err != nil || got != c {
			t.Fatalf("ParseLocationClass(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseLocationClass("secret"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
