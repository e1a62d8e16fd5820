package sourcing

import (
	"sort"
	"strings"

	"govcon/research/internal/models"
)

const (
	maxQueries         = 4
	maxSpecValueLength = 50
)

// BuildQueries returns up to four distinct search queries for a requirement:
// name and category, the top keywords, name and short specification values,
// category and the top two keywords.
func BuildQueries(r models.Requirement) []string {
	var queries []string

	queries = append(queries, strings.TrimSpace(r.Name+" "+r.Category))

	if len(r.Keywords) > 0 {
		queries = append(queries, strings.Join(head(r.Keywords, 3), " "))
	}

	keys := make([]string, 0, len(r.Specifications))
	for k := range r.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var values []string
	for _, k := range keys {
		if v := r.Specifications[k]; v != "" && len(v) < maxSpecValueLength {
			values = append(values, v)
		}
		if len(values) == 2 {
			break
		}
	}
	if len(values) > 0 {
		queries = append(queries, strings.TrimSpace(r.Name+" "+strings.Join(values, " ")))
	}

	queries = append(queries, strings.TrimSpace(r.Category+" "+strings.Join(head(r.Keywords, 2), " ")))

	seen := make(map[string]bool)
	var out []string
	for _, q := range queries {
		if len(q) <= 3 || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == maxQueries {
			break
		}
	}
	return out
}
