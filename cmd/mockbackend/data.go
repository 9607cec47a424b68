package main

import (
	"fmt"
	"slices"
	"strings"
)

type record = map[string]any

func seedCustomers() []record {
	return []record{
		{"id": "cust-001", "name": "Acme Print Co", "territoryId": "north", "creditScore": 712, "profitMargin": 0.31, "internalNotes": "renewal due Q3", "creditLimit": 50000},
		{"id": "cust-002", "name": "Globex Office", "territoryId": "north", "creditScore": 655, "profitMargin": 0.22, "internalNotes": "slow payer", "creditLimit": 20000},
		{"id": "cust-003", "name": "Initech", "territoryId": "south", "creditScore": 590, "profitMargin": 0.18, "internalNotes": "", "creditLimit": 10000},
		{"id": "cust-004", "name": "Umbrella Legal", "territoryId": "east", "creditScore": 781, "profitMargin": 0.35, "internalNotes": "key account", "creditLimit": 90000},
	}
}

func seedDeals() []record {
	return []record{
		{"id": "deal-101", "customerId": "cust-001", "userId": "rep-001", "managerId": "mgr-sales-1", "territoryId": "north", "stage": "proposal", "amount": 18500, "managerNotes": "push for 3yr lease", "teamComparison": 1.2},
		{"id": "deal-102", "customerId": "cust-002", "userId": "rep-002", "managerId": "mgr-sales-1", "territoryId": "north", "stage": "won", "amount": 9200, "managerNotes": "", "teamComparison": 0.8},
		{"id": "deal-103", "customerId": "cust-003", "userId": "rep-003", "managerId": "mgr-sales-2", "territoryId": "south", "stage": "lead", "amount": 4100, "managerNotes": "", "teamComparison": 0.6},
		{"id": "deal-104", "customerId": "cust-004", "userId": "rep-001", "managerId": "mgr-sales-1", "territoryId": "east", "stage": "negotiation", "amount": 42000, "managerNotes": "exec sponsor engaged", "teamComparison": 1.9},
	}
}

func seedTickets() []record {
	return []record{
		{"id": "tkt-201", "customerId": "cust-001", "assignedTechnicianId": "tech-001", "serviceManagerId": "mgr-svc-1", "territoryId": "north", "status": "open", "device": "MX-4071"},
		{"id": "tkt-202", "customerId": "cust-002", "assignedTechnicianId": "tech-002", "serviceManagerId": "mgr-svc-1", "territoryId": "north", "status": "dispatched", "device": "C3530i"},
		{"id": "tkt-203", "customerId": "cust-003", "assignedTechnicianId": "tech-001", "serviceManagerId": "mgr-svc-2", "territoryId": "south", "status": "closed", "device": "IM C4500"},
	}
}

func seedInvoices() []record {
	return []record{
		{"id": "inv-301", "customerId": "cust-001", "amount": 1840.50, "status": "paid", "detailedFinancials": record{"cost": 1210, "margin": 630.5}, "creditLimit": 50000},
		{"id": "inv-302", "customerId": "cust-002", "amount": 920.00, "status": "overdue", "detailedFinancials": record{"cost": 700, "margin": 220}, "creditLimit": 20000},
		{"id": "inv-303", "customerId": "cust-004", "amount": 5120.75, "status": "open", "detailedFinancials": record{"cost": 3300, "margin": 1820.75}, "creditLimit": 90000},
	}
}

// matches keeps records whose fields satisfy every query parameter naming
// one of their fields. Comma-separated values match any listed value.
func matches(rec record, query map[string][]string) bool {
	for k, vs := range query {
		field, ok := rec[k]
		if !ok || len(vs) == 0 {
			continue
		}
		allowed := strings.Split(vs[0], ",")
		if !slices.Contains(allowed, fmt.Sprint(field)) {
			return false
		}
	}
	return true
}

func filter(records []record, query map[string][]string) []record {
	out := make([]record, 0, len(records))
	for _, r := range records {
		if matches(r, query) {
			out = append(out, r)
		}
	}
	return out
}

func findByID(records []record, id string) (record, bool) {
	for _, r := range records {
		if r["id"] == id {
			return r, true
		}
	}
	return nil, false
}
