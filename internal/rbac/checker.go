package rbac

import "strings"

// Policy maps a role to the permissions it holds. A grant of "*" covers every
// permission and a grant ending in "*" covers that prefix ("report:*").
type Policy map[string][]string

// Checker answers permission questions for allocation officers and viewers.
type Checker struct {
	policy Policy
}

// NewChecker uses DefaultPolicy when p is nil.
func NewChecker(p Policy) *Checker {
	if p == nil {
		p = DefaultPolicy
	}
	return &Checker{policy: p}
}

// Has reports whether role may perform perm. Unknown roles hold nothing.
func (c *Checker) Has(role, perm string) bool {
	for _, grant := range c.policy[role] {
		if covers(grant, perm) {
			return true
		}
	}
	return false
}

func covers(grant, perm string) bool {
	switch {
	case grant == "*", grant == perm:
		return true
	case strings.HasSuffix(grant, "*"):
		return strings.HasPrefix(perm, strings.TrimSuffix(grant, "*"))
	}
	return false
}
