package guard

import (
	"strings"
)

// Route is one entry of the routing table. Child paths are relative to the
// parent path.
type Route struct {
	Path          string
	Name          string
	RequiresAuth  bool
	RequiresAdmin bool
	Children      []Route
}

// Match is the result of resolving a path against a Table.
type Match struct {
	// Chain holds the matched route and its ancestors, outermost first.
	Chain  []Route
	Params map[string]string
}

// Route returns the innermost matched route.
func (m Match) Route() Route {
	return m.Chain[len(m.Chain)-1]
}

// RequiresAuth reports whether any route in the chain requires a signed-in user.
func (m Match) RequiresAuth() bool {
	for _, r := range m.Chain {
		if r.RequiresAuth || r.RequiresAdmin {
			return true
		}
	}
	return false
}

// RequiresAdmin reports whether any route in the chain requires the admin role.
func (m Match) RequiresAdmin() bool {
	for _, r := range m.Chain {
		if r.RequiresAdmin {
			return true
		}
	}
	return false
}

// Table is a nested routing table. Routes are tried in declaration order.
type Table struct {
	routes []Route
}

// NewTable creates a Table from top-level routes.
func NewTable(routes ...Route) *Table {
	return &Table{routes: routes}
}

// Match resolves path to a route chain. Trailing slashes are ignored, literal
// segments compare case-insensitively and ":name" segments capture parameters
// as written.
func (t *Table) Match(path string) (Match, bool) {
	segs := splitPath(path)
	for _, r := range t.routes {
		params := make(map[string]string)
		if chain, ok := matchRoute(r, segs, params); ok {
			return Match{Chain: chain, Params: params}, true
		}
	}
	return Match{}, false
}

func matchRoute(r Route, segs []string, params map[string]string) ([]Route, bool) {
	pattern := splitPath(r.Path)
	if len(pattern) > len(segs) {
		return nil, false
	}

	captured := make(map[string]string)
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			captured[name] = segs[i]
			continue
		}
		if !strings.EqualFold(p, segs[i]) {
			return nil, false
		}
	}

	rest := segs[len(pattern):]
	if len(rest) == 0 {
		for k, v := range captured {
			params[k] = v
		}
		return []Route{r}, true
	}

	for _, child := range r.Children {
		childParams := make(map[string]string)
		if chain, ok := matchRoute(child, rest, childParams); ok {
			for k, v := range captured {
				params[k] = v
			}
			for k, v := range childParams {
				params[k] = v
			}
			return append([]Route{r}, chain...), true
		}
	}

	return nil, false
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Route names of the storefront.
const (
	RouteHome        = "Home"
	RouteProducts    = "products"
	RouteProduct     = "product"
	RouteLogin       = "login"
	RouteCart        = "cart"
	RouteMyProfile   = "myprofile"
	RouteAdmin       = "admin"
	RouteFlights     = "admin-flights"
	RouteFlight      = "admin-flight"
	LoginPath        = "/login"
	HomePath         = "/"
	RedirectQueryKey = "redirect"
)

// DefaultTable returns the storefront routing table.
func DefaultTable() *Table {
	return NewTable(
		Route{Path: "/", Name: RouteHome},
		Route{Path: "/products", Name: RouteProducts},
		Route{Path: "/products/:id", Name: RouteProduct},
		Route{Path: LoginPath, Name: RouteLogin},
		Route{Path: "/cart", Name: RouteCart},
		Route{Path: "/myprofile", Name: RouteMyProfile, RequiresAuth: true},
		Route{
			Path:          "/admin",
			Name:          RouteAdmin,
			RequiresAuth:  true,
			RequiresAdmin: true,
			Children: []Route{
				{Path: "flights", Name: RouteFlights},
				{Path: "flights/:id", Name: RouteFlight},
			},
		},
	)
}
