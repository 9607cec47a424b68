package access

import (
	"net/url"
	"strings"

	"dealeraccess/internal/domain"
)

// Query constraint names understood by the dealer API.
const (
	FilterUserID             = "userId"
	FilterManagerID          = "managerId"
	FilterServiceManagerID   = "serviceManagerId"
	FilterAssignedTechnician = "assignedTechnicianId"
	FilterTerritoryID        = "territoryId"
)

// Filters maps a constraint name to its value. An empty Filters means the
// query is unrestricted.
type Filters map[string]string

// Apply merges f into q. Constraint values replace any caller-supplied value
// for the same key.
func (f Filters) Apply(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	for k, v := range f {
		q.Set(k, v)
	}
	return q
}

// DataFilters returns the query constraints scoping d for the bound user.
func (s *Service) DataFilters(d domain.DataDomain) Filters {
	u := s.user
	f := Filters{}

	switch u.Role.Level {
	case domain.LevelExecutive:
		return f
	case domain.LevelManager:
		switch {
		case d == domain.DomainSales && u.Role.ID == domain.RoleSalesManager:
			s.territoryFilter(f)
			f[FilterManagerID] = u.UserID
		case d == domain.DomainService && u.Role.ID == domain.RoleServiceManager:
			s.territoryFilter(f)
			f[FilterServiceManagerID] = u.UserID
		}
		// Other manager/domain pairs (finance manager included) fall through
		// unrestricted.
	case domain.LevelRep:
		switch d {
		case domain.DomainSales:
			f[FilterUserID] = u.UserID
		case domain.DomainService:
			f[FilterAssignedTechnician] = u.UserID
		}
	}
	return f
}

func (s *Service) territoryFilter(f Filters) {
	if len(s.user.Territories) > 0 {
		f[FilterTerritoryID] = strings.Join(s.user.Territories, ",")
	}
}
