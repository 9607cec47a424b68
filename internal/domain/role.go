package domain

import "strings"

// Level is the coarse classification of a role that drives default filtering.
type Level int

const (
	LevelUnknown Level = iota
	LevelExecutive
	LevelManager
	LevelRep
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelExecutive:
		return "executive"
	case LevelManager:
		return "manager"
	case LevelRep:
		return "rep"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Standard actions. ActionAny matches every action.
const (
	ActionRead   = "read"
	ActionExport = "export"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAny    = "*"
)

// Permission grants actions on a namespaced resource ("reports:sales").
// A resource of the form "<domain>:*" covers every resource in that domain.
type Permission struct {
	Resource   string
	Actions    []string
	Conditions map[string]any
}

// Covers reports whether the permission's resource matches resource.
// Wildcards only match within their own domain prefix.
func (p Permission) Covers(resource string) bool {
	if p.Resource == resource {
		return true
	}
	prefix, ok := strings.CutSuffix(p.Resource, ":*")
	if !ok || prefix == "" {
		return false
	}
	return strings.HasPrefix(resource, prefix+":")
}

// Allows reports whether action is listed, directly or via ActionAny.
func (p Permission) Allows(action string) bool {
	for _, a := range p.Actions {
		if a == action || a == ActionAny {
			return true
		}
	}
	return false
}

// Role is a statically defined set of permissions.
type Role struct {
	ID          string
	Name        string
	Level       Level
	Permissions []Permission
}
