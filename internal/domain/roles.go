package domain

import (
	"fmt"
	"slices"
	"sort"
)

// Catalog role IDs.
const (
	RoleExecutive         = "executive"
	RoleSalesManager      = "sales_manager"
	RoleServiceManager    = "service_manager"
	RoleFinanceManager    = "finance_manager"
	RoleSalesRep          = "sales_rep"
	RoleServiceTechnician = "service_technician"
	RoleAdmin             = "admin"
)

var (
	readExport = []string{ActionRead, ActionExport}
	readWrite  = []string{ActionRead, ActionCreate, ActionUpdate}
	readOnly   = []string{ActionRead}
)

var roles = map[string]Role{
	RoleExecutive: {
		ID: RoleExecutive, Name: "Executive", Level: LevelExecutive,
		Permissions: []Permission{
			{Resource: "reports:*", Actions: readExport},
			{Resource: "sales:*", Actions: readExport},
			{Resource: "service:*", Actions: readExport},
			{Resource: "finance:*", Actions: readExport},
			{Resource: "customers:*", Actions: readExport},
		},
	},
	RoleSalesManager: {
		ID: RoleSalesManager, Name: "Sales Manager", Level: LevelManager,
		Permissions: []Permission{
			{Resource: "reports:sales", Actions: readExport, Conditions: map[string]any{"scope": "team"}},
			{Resource: "sales:*", Actions: readWrite, Conditions: map[string]any{"scope": "team"}},
			{Resource: "customers:*", Actions: readWrite},
		},
	},
	RoleServiceManager: {
		ID: RoleServiceManager, Name: "Service Manager", Level: LevelManager,
		Permissions: []Permission{
			{Resource: "reports:service", Actions: readExport, Conditions: map[string]any{"scope": "team"}},
			{Resource: "service:*", Actions: readWrite, Conditions: map[string]any{"scope": "team"}},
			{Resource: "customers:records", Actions: readOnly},
		},
	},
	RoleFinanceManager: {
		ID: RoleFinanceManager, Name: "Finance Manager", Level: LevelManager,
		Permissions: []Permission{
			{Resource: "reports:finance", Actions: readExport},
			{Resource: "finance:*", Actions: []string{ActionAny}},
			{Resource: "customers:records", Actions: readOnly, Conditions: map[string]any{"fields": []string{"financial"}}},
		},
	},
	RoleSalesRep: {
		ID: RoleSalesRep, Name: "Sales Representative", Level: LevelRep,
		Permissions: []Permission{
			{Resource: "reports:sales", Actions: readOnly, Conditions: map[string]any{"scope": "own"}},
			{Resource: "sales:records", Actions: readWrite, Conditions: map[string]any{"scope": "own"}},
			{Resource: "customers:records", Actions: readWrite},
		},
	},
	RoleServiceTechnician: {
		ID: RoleServiceTechnician, Name: "Service Technician", Level: LevelRep,
		Permissions: []Permission{
			{Resource: "service:tickets", Actions: []string{ActionRead, ActionUpdate}, Conditions: map[string]any{"scope": "own"}},
			{Resource: "customers:records", Actions: readOnly},
		},
	},
	RoleAdmin: {
		ID: RoleAdmin, Name: "Administrator", Level: LevelAdmin,
		Permissions: []Permission{
			{Resource: "reports:*", Actions: []string{ActionAny}},
			{Resource: "sales:*", Actions: []string{ActionAny}},
			{Resource: "service:*", Actions: []string{ActionAny}},
			{Resource: "finance:*", Actions: []string{ActionAny}},
			{Resource: "customers:*", Actions: []string{ActionAny}},
			{Resource: "settings:*", Actions: []string{ActionAny}},
		},
	},
}

// LookupRole returns the catalog role with the given ID.
func LookupRole(id string) (Role, error) {
	r, ok := roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: %q", ErrUnknownRole, id)
	}
	r.Permissions = slices.Clone(r.Permissions)
	return r, nil
}

// RoleIDs lists the catalog in stable order.
func RoleIDs() []string {
	ids := make([]string, 0, len(roles))
	for id := range roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
