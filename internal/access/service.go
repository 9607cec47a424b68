package access

import (
	"net/http"
	"slices"

	"dealeraccess/internal/domain"
)

// Service evaluates access rules for a single user.
type Service struct {
	user domain.UserContext
}

// New binds a Service to user.
func New(user domain.UserContext) *Service {
	return &Service{user: user}
}

// User returns the bound user context.
func (s *Service) User() domain.UserContext {
	return s.user
}

// HasPermission reports whether the role may perform action on resource.
// The first permission covering resource decides; unknown resources yield false.
func (s *Service) HasPermission(resource, action string) bool {
	for _, p := range s.user.Role.Permissions {
		if !p.Covers(resource) {
			continue
		}
		if p.Allows(action) {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether any of actions is permitted on resource.
func (s *Service) HasAnyPermission(resource string, actions ...string) bool {
	return slices.ContainsFunc(actions, func(a string) bool {
		return s.HasPermission(resource, a)
	})
}

// AllowedTerritories returns the territories the user is limited to.
// An empty result means no restriction.
func (s *Service) AllowedTerritories() []string {
	switch s.user.Role.Level {
	case domain.LevelManager, domain.LevelRep:
		return slices.Clone(s.user.Territories)
	default:
		return []string{}
	}
}

// AllowedTeamMembers returns the user IDs whose records are visible.
// An empty result means no restriction.
func (s *Service) AllowedTeamMembers() []string {
	switch s.user.Role.Level {
	case domain.LevelManager:
		return slices.Clone(s.user.TeamMembers)
	case domain.LevelRep:
		return []string{s.user.UserID}
	default:
		return []string{}
	}
}

// ActionForMethod maps an HTTP method onto a permission action.
func ActionForMethod(method string) string {
	switch method {
	case http.MethodPost:
		return domain.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.ActionUpdate
	case http.MethodDelete:
		return domain.ActionDelete
	default:
		return domain.ActionRead
	}
}
