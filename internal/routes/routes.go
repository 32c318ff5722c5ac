// Package routes holds the static route classification consumed by the
// authorization gate and by anything that needs to know whether a page is
// protected.
package routes

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Skotchmaster/course_market/internal/models"
)

type Access int

const (
	Authenticated Access = iota
	Public
	RoleRestricted
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case RoleRestricted:
		return "role"
	default:
		return "authenticated"
	}
}

// Rule maps a path pattern to an access level. Patterns match on path
// segment boundaries; a pattern prefixed with "=" matches only that exact path.
type Rule struct {
	Pattern string
	Access  Access
	Role    string

	exact  bool
	prefix string
}

type Table struct {
	rules []Rule
}

func NewTable(rules ...Rule) (*Table, error) {
	seen := make(map[string]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		p := strings.TrimSpace(r.Pattern)
		if strings.HasPrefix(p, "=") {
			r.exact = true
			p = strings.TrimPrefix(p, "=")
		}
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("route pattern %q must start with /", r.Pattern)
		}
		if len(p) > 1 {
			p = strings.TrimSuffix(p, "/")
		}
		if r.Access == RoleRestricted && !models.ValidRole(r.Role) {
			return nil, fmt.Errorf("route pattern %q: %w %q", r.Pattern, models.ErrInvalidRole, r.Role)
		}
		key := p
		if r.exact {
			key = "=" + p
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("route pattern %q listed twice", r.Pattern)
		}
		seen[key] = struct{}{}
		r.prefix = p
		out = append(out, r)
	}

	// exact rules first, then longest prefix first
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].exact != out[j].exact {
			return out[i].exact
		}
		return len(out[i].prefix) > len(out[j].prefix)
	})
	return &Table{rules: out}, nil
}

// Classify returns the most specific rule for path. Unmatched paths
// require authentication.
func (t *Table) Classify(path string) Rule {
	if path == "" {
		path = "/"
	}
	for _, r := range t.rules {
		if r.matches(path) {
			return r
		}
	}
	return Rule{Pattern: path, Access: Authenticated}
}

func (t *Table) IsProtected(path string) bool {
	return t.Classify(path).Access != Public
}

func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func (r Rule) matches(path string) bool {
	if r.exact {
		return path == r.prefix
	}
	if r.prefix == "/" {
		return true
	}
	return path == r.prefix || strings.HasPrefix(path, r.prefix+"/")
}

func DashboardPath(role string) string {
	if !models.ValidRole(role) {
		role = models.RoleStudent
	}
	return "/dashboard/" + role
}

// Parse builds rules from the env formats: a CSV of patterns for one access
// level, and "role=pattern|pattern;role=pattern" for role restrictions.
func Parse(public, authenticated []string, roleRules string) ([]Rule, error) {
	var rules []Rule
	for _, p := range public {
		rules = append(rules, Rule{Pattern: p, Access: Public})
	}
	for _, p := range authenticated {
		rules = append(rules, Rule{Pattern: p, Access: Authenticated})
	}
	for _, group := range strings.Split(roleRules, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		role, patterns, ok := strings.Cut(group, "=")
		if !ok {
			return nil, fmt.Errorf("role routes %q: expected role=pattern", group)
		}
		role = strings.TrimSpace(role)
		for _, p := range strings.Split(patterns, "|") {
			if p = strings.TrimSpace(p); p != "" {
				rules = append(rules, Rule{Pattern: p, Access: RoleRestricted, Role: role})
			}
		}
	}
	return rules, nil
}

// LocalRedirect reports whether target is a same-site path that is safe to
// redirect to after sign-in.
func LocalRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}
	for _, r := range target {
		if r < 0x20 || r == 0x7f || r == '\\' {
			return false
		}
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/") && !strings.HasPrefix(u.Path, "//")
}
