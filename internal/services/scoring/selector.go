package scoring

import (
	"sort"

	"govcon/research/internal/models"
)

type productKey struct {
	name   string
	vendor string
}

// Select drops repeated (product name, vendor) pairs, keeping the first
// occurrence, and sorts the rest by 0.6 × total score + 0.4 × confidence.
// Ties keep input order.
func Select(candidates []models.Candidate) []models.Candidate {
	seen := make(map[productKey]bool, len(candidates))
	selected := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := productKey{name: c.ProductName, vendor: c.Vendor}
		if seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, c)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return rank(selected[i]) > rank(selected[j])
	})
	return selected
}

// rank is the weighted ordering key, scaled by ten to stay in integers.
func rank(c models.Candidate) int {
	total := 0
	if c.Compliance != nil {
		total = c.Compliance.TotalScore
	}
	return 6*total + 4*c.Confidence
}

// BestByRequirement returns the first candidate per requirement id from a
// ranked list.
func BestByRequirement(ranked []models.Candidate) map[string]models.Candidate {
	best := make(map[string]models.Candidate)
	for _, c := range ranked {
		if _, ok := best[c.RequirementID]; !ok {
			best[c.RequirementID] = c
		}
	}
	return best
}
