package domain

import "strings"

// DataDomain is a logical data category used to select filter and
// redaction rules.
type DataDomain string

const (
	DomainNone     DataDomain = ""
	DomainSales    DataDomain = "sales"
	DomainService  DataDomain = "service"
	DomainFinance  DataDomain = "finance"
	DomainCustomer DataDomain = "customer"
)

// InferFromPath guesses a domain from endpoint naming. Callers should pass the
// domain explicitly; this exists for requests that do not.
func InferFromPath(path string) DataDomain {
	switch {
	case strings.Contains(path, "/sales"):
		return DomainSales
	case strings.Contains(path, "/service-"):
		return DomainService
	case strings.Contains(path, "/financial"), strings.Contains(path, "/payment"):
		return DomainFinance
	default:
		return DomainNone
	}
}
