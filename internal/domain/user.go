package domain

import "slices"

// UserContext is the acting user for one session. It is built once and never
// mutated; switching roles produces a new value.
type UserContext struct {
	UserID      string
	Role        Role
	Territories []string
	TeamMembers []string
	ManagerID   string
	TenantID    string
}

// NewUserContext resolves roleID against the catalog.
func NewUserContext(userID, roleID string, territories, team []string, managerID string) (UserContext, error) {
	role, err := LookupRole(roleID)
	if err != nil {
		return UserContext{}, err
	}
	return UserContext{
		UserID:      userID,
		Role:        role,
		Territories: slices.Clone(territories),
		TeamMembers: slices.Clone(team),
		ManagerID:   managerID,
	}, nil
}

// WithRole returns a copy of u acting as roleID.
func (u UserContext) WithRole(roleID string) (UserContext, error) {
	role, err := LookupRole(roleID)
	if err != nil {
		return UserContext{}, err
	}
	u.Role = role
	return u, nil
}

// WithTenant returns a copy of u bound to tenantID.
func (u UserContext) WithTenant(tenantID string) UserContext {
	u.TenantID = tenantID
	return u
}

func (u UserContext) IsManager() bool {
	return u.Role.Level == LevelManager
}

func (u UserContext) IsExecutive() bool {
	return u.Role.Level == LevelExecutive
}
