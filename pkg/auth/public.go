package auth

import "strings"

// Classifier records which routes are public, meaning they bypass the
// session gate. Public only means no credential is required to attempt
// the request; a Guard on a public route still requires a principal.
//
// Markers exist at two levels: a group marker covers every route under
// a path prefix, and a route marker covers one exact path. A route
// marker always overrides a group marker. The classifier is populated
// at startup and read-only afterwards.
type Classifier struct {
	groups map[string]bool
	routes map[string]bool
}

// NewClassifier returns an empty classifier; every route is protected
// until marked otherwise.
func NewClassifier() *Classifier {
	return &Classifier{
		groups: make(map[string]bool),
		routes: make(map[string]bool),
	}
}

// MarkGroup sets the public marker for every route under the prefix.
func (c *Classifier) MarkGroup(prefix string, public bool) {
	c.groups[strings.TrimSuffix(prefix, "/")] = public
}

// MarkRoute sets the public marker for one exact path, overriding any
// group marker.
func (c *Classifier) MarkRoute(path string, public bool) {
	c.routes[path] = public
}

// IsPublic reports whether the path bypasses the session gate.
// Route-level markers take precedence; otherwise the longest matching
// group prefix decides.
func (c *Classifier) IsPublic(path string) bool {
	if v, ok := c.routes[path]; ok {
		return v
	}

	best := ""
	public := false
	for prefix, v := range c.groups {
		if !matchesPrefix(path, prefix) {
			continue
		}
		if len(prefix) > len(best) {
			best = prefix
			public = v
		}
	}
	if best == "" {
		// A root group marker ("" or "/") applies to everything.
		if v, ok := c.groups[""]; ok {
			return v
		}
		return false
	}
	return public
}

// matchesPrefix reports whether path falls under prefix on a path
// segment boundary.
func matchesPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
