package persistence

import "strings"

// sortColumns whitelists the sort keys a list endpoint accepts. Anything else, including
// injection attempts, falls back to the default column. Ties are broken by id so pages are stable.
type sortColumns struct {
	columns  map[string]string
	fallback string
}

var locationSort = sortColumns{
	columns: map[string]string{
		"id":         "id",
		"name":       "name",
		"type":       "type",
		"balance":    "balance",
		"is_active":  "is_active",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	fallback: "created_at",
}

// clause builds an ORDER BY clause; direction defaults to DESC
func (s sortColumns) clause(field, dir string) string {
	column, ok := s.columns[strings.TrimSpace(field)]
	if !ok {
		column = s.fallback
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		direction = "ASC"
	}
	if column == "id" {
		return "id " + direction
	}
	return column + " " + direction + ", id " + direction
}
