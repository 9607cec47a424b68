package access

import (
	"encoding/json"
	"fmt"

	"dealeraccess/internal/domain"
)

type redactKey struct {
	level  domain.Level
	domain domain.DataDomain
}

// hiddenFields lists fields removed per (level, domain).
var hiddenFields = map[redactKey][]string{
	{domain.LevelRep, domain.DomainCustomer}:    {"profitMargin", "internalNotes", "creditScore"},
	{domain.LevelRep, domain.DomainSales}:       {"teamComparison", "managerNotes"},
	{domain.LevelManager, domain.DomainFinance}: {"detailedFinancials", "creditLimit"},
}

func (s *Service) hidden(d domain.DataDomain) []string {
	if s.user.Role.Level == domain.LevelManager && s.user.Role.ID == domain.RoleFinanceManager {
		return nil
	}
	return hiddenFields[redactKey{s.user.Role.Level, d}]
}

// Redacts reports whether FilterSensitive can change anything in d.
func (s *Service) Redacts(d domain.DataDomain) bool {
	return len(s.hidden(d)) > 0
}

// FilterSensitive returns v without the fields the user may not see in d.
// Objects are shallow-copied; other values are returned unchanged.
func (s *Service) FilterSensitive(v any, d domain.DataDomain) any {
	rec, ok := v.(map[string]any)
	if !ok {
		return v
	}
	fields := s.hidden(d)
	if len(fields) == 0 {
		return rec
	}
	out := make(map[string]any, len(rec))
	for k, val := range rec {
		out[k] = val
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// FilterSensitiveList applies FilterSensitive to every element.
func (s *Service) FilterSensitiveList(items []any, d domain.DataDomain) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = s.FilterSensitive(item, d)
	}
	return out
}

// RedactJSON filters a JSON body: each element of a top-level array, or the
// top-level object. Bodies needing no change are returned as-is.
func (s *Service) RedactJSON(body []byte, d domain.DataDomain) ([]byte, int, error) {
	if !s.Redacts(d) || len(body) == 0 {
		return body, 0, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, 0, fmt.Errorf("decoding body for redaction: %w", err)
	}

	var n int
	switch t := v.(type) {
	case []any:
		v = s.FilterSensitiveList(t, d)
		n = len(t)
	case map[string]any:
		v = s.FilterSensitive(t, d)
		n = 1
	default:
		return body, 0, nil
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding redacted body: %w", err)
	}
	return out, n, nil
}
