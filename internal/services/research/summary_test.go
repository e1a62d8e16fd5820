package research

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"govcon/research/internal/models"
)

func TestEstimatedDelivery(t *testing.T) {
	cases := []struct {
		availability []string
		want         string
	}{
		{nil, "Unknown"},
		{[]string{"In Stock - Ships Next Day"}, "2-3 business days"},
		{[]string{"In Stock - Ships Next Day", "In Stock - Ships 2-3 Days"}, "2-3 business days"},
		{[]string{"Limited Stock - Ships 1 Week"}, "1 week"},
		{[]string{"Backordered"}, "2-3 weeks"},
		{[]string{"In Stock - Ships Next Day", "Available - Ships 2-3 Weeks"}, "2-3 weeks"},
		{[]string{"Special Order - 4-6 Weeks"}, "4-6 weeks"},
	}
	for _, tc := range cases {
		var matches []models.Candidate
		for _, a := range tc.availability {
			matches = append(matches, models.Candidate{Availability: a})
		}
		assert.Equal(t, tc.want, estimatedDelivery(matches), "%v", tc.availability)
	}
}

func TestSummarize(t *testing.T) {
	reqs := []models.Requirement{{ID: "R-1"}, {ID: "R-2"}, {ID: "R-3"}}
	matches := []models.Candidate{
		{RequirementID: "R-1", Confidence: 90, Availability: "In Stock - Ships Next Day"},
		{RequirementID: "R-1", Confidence: 81, Availability: "In Stock - Ships 2-3 Days"},
		{RequirementID: "R-3", Confidence: 70, Availability: "Limited Stock - Ships 1 Week"},
	}

	got := Summarize(reqs, matches)

	assert.Equal(t, models.ResearchSummary{
		TotalRequirements:   3,
		MatchedRequirements: 2,
		AverageConfidence:   80,
		EstimatedDelivery:   "1 week",
	}, got)
	assert.Equal(t, 0, Summarize(reqs, nil).AverageConfidence)
}
