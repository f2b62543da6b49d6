package gate

import "strings"

// RouteClass is the access-control category of a request path.
type RouteClass int

const (
	Public RouteClass = iota
	Protected
	Admin
)

func (c RouteClass) String() string {
	switch c {
	case Admin:
		return "admin"
	case Protected:
		return "protected"
	default:
		return "public"
	}
}

// Classifier assigns exactly one class to every path. The admin prefix is
// checked first and is exclusive; protected patterns only apply to non-admin
// paths. Everything else is public.
type Classifier struct {
	adminPrefix string
	patterns    [][]string
}

// NewClassifier compiles the protected patterns. Each pattern is a
// prefix-anchored path in which a "*" segment matches exactly one non-slash
// segment, e.g. /courses/*/study.
func NewClassifier(adminPrefix string, protectedPatterns []string) *Classifier {
	c := &Classifier{adminPrefix: adminPrefix}
	for _, p := range protectedPatterns {
		c.patterns = append(c.patterns, splitSegments(p))
	}
	return c
}

func (c *Classifier) Classify(path string) RouteClass {
	if strings.HasPrefix(path, c.adminPrefix) {
		return Admin
	}
	segs := splitSegments(path)
	for _, pat := range c.patterns {
		if matchPrefix(pat, segs) {
			return Protected
		}
	}
	return Public
}

// matchPrefix reports whether the pattern's segments match the leading
// segments of the path.
func matchPrefix(pattern, path []string) bool {
	if len(path) < len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == "*" {
			continue
		}
		if p != path[i] {
			return false
		}
	}
	return true
}

func splitSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
