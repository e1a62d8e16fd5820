package research

import (
	"math"
	"strings"

	"govcon/research/internal/models"
)

// deliveryDays maps availability phrases to a shipping estimate in days.
// Unrecognized availability counts as two weeks.
var deliveryDays = []struct {
	phrase string
	days   int
}{
	{"next day", 1},
	{"2-3 days", 3},
	{"1 week", 7},
	{"2-3 weeks", 21},
	{"4-6 weeks", 42},
}

const defaultDeliveryDays = 14

// Summarize aggregates ranked matches for display.
func Summarize(reqs []models.Requirement, matches []models.Candidate) models.ResearchSummary {
	return models.ResearchSummary{
		TotalRequirements:   len(reqs),
		MatchedRequirements: matchedRequirements(matches),
		AverageConfidence:   averageConfidence(matches),
		EstimatedDelivery:   estimatedDelivery(matches),
	}
}

func matchedRequirements(matches []models.Candidate) int {
	seen := make(map[string]bool)
	for _, m := range matches {
		seen[m.RequirementID] = true
	}
	return len(seen)
}

func averageConfidence(matches []models.Candidate) int {
	if len(matches) == 0 {
		return 0
	}
	total := 0
	for _, m := range matches {
		total += m.Confidence
	}
	return int(math.Round(float64(total) / float64(len(matches))))
}

// estimatedDelivery reports the slowest match's delivery window.
func estimatedDelivery(matches []models.Candidate) string {
	if len(matches) == 0 {
		return "Unknown"
	}
	worst := 0
	for _, m := range matches {
		worst = max(worst, availabilityDays(m.Availability))
	}
	switch {
	case worst <= 3:
		return "2-3 business days"
	case worst <= 7:
		return "1 week"
	case worst <= 21:
		return "2-3 weeks"
	case worst <= 42:
		return "4-6 weeks"
	default:
		return "6-8 weeks"
	}
}

func availabilityDays(availability string) int {
	text := strings.ToLower(availability)
	for _, d := range deliveryDays {
		if strings.Contains(text, d.phrase) {
			return d.days
		}
	}
	return defaultDeliveryDays
}
