package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"govcon/research/internal/models"
)

var findings = models.Findings{
	GovernmentStandards: []string{"FIPS 140-2", "NIST SP 800-53"},
	ComplianceRequirements: []models.ComplianceRequirement{
		{Standard: "FedRAMP"},
		{Standard: "FISMA"},
	},
}

func marketplaceOffer() models.Candidate {
	return models.Candidate{
		ID:            "match-R-1-gsa-q0-0",
		RequirementID: "R-1",
		ProductName:   "GSA Advantage Enterprise Hardware Pro Model A1234",
		Vendor:        "GSA Advantage",
		Confidence:    80,
		Availability:  "In Stock - Ships Next Day",
		Specifications: map[string]string{
			"CPU Requirements":    "Intel Xeon Gold 6338",
			"Memory Requirements": "256 GB",
			"Form Factor":         "2U rack-mount",
			"FedRAMP Compliance":  "Certified",
			"FISMA Compliance":    "Certified",
			"FIPS 140-2":          "Compliant",
			"NIST SP 800-53":      "Compliant",
			"Warranty":            "3-year warranty",
		},
		GovContractNumber: "GS-35F-123456",
	}
}

func TestScore_Marketplace(t *testing.T) {
	s := NewComplianceScorer("GSA Advantage", zaptest.NewLogger(t))

	got := s.Score(marketplaceOffer(), findings)

	assert.Equal(t, models.ComplianceScore{
		Specifications:      40,
		Compliance:          20,
		GovernmentStandards: 14,
		ExactMatch:          10,
		TotalScore:          84,
		Bonus:               16,
	}, got)
}

func TestScore_EmptySpecificationsDoNotCount(t *testing.T) {
	s := NewComplianceScorer("GSA Advantage", nil)
	c := models.Candidate{Specifications: map[string]string{"A": "x", "B": " ", "C": ""}}

	got := s.Score(c, models.Findings{})

	assert.Equal(t, 5, got.Specifications)
	assert.Equal(t, got.Specifications+got.Compliance+got.GovernmentStandards+got.ExactMatch, got.TotalScore)
}

func TestApply_ThresholdAndConfidence(t *testing.T) {
	s := NewComplianceScorer("GSA Advantage", zaptest.NewLogger(t))

	weak := marketplaceOffer()
	weak.ID = "weak"
	weak.GovContractNumber = ""
	weak.Vendor = "CDW Government"
	weak.Specifications = map[string]string{"Warranty": "1-year warranty"}

	accepted := s.Apply([]models.Candidate{weak, marketplaceOffer()}, findings)

	require.Len(t, accepted, 1)
	got := accepted[0]
	require.NotNil(t, got.Compliance)
	assert.GreaterOrEqual(t, got.Compliance.TotalScore, MinTotalScore)
	// 80 + 16 bonus
	assert.Equal(t, 96, got.Confidence)
}

func TestApply_ConfidenceNeverDecreasesAndIsCapped(t *testing.T) {
	s := NewComplianceScorer("GSA Advantage", nil)

	for confidence := 0; confidence <= 100; confidence++ {
		c := marketplaceOffer()
		c.Confidence = confidence

		accepted := s.Apply([]models.Candidate{c}, findings)

		require.Len(t, accepted, 1)
		assert.GreaterOrEqual(t, accepted[0].Confidence, confidence)
		if confidence <= MaxConfidence {
			assert.LessOrEqual(t, accepted[0].Confidence, MaxConfidence)
		}
	}
}

func TestSelect_DeduplicatesByNameAndVendor(t *testing.T) {
	score := models.NewComplianceScore(40, 30, 0, 10, 0)
	first := models.Candidate{ID: "q0", ProductName: "Acme Router X200", Vendor: "CDW", Confidence: 70, Compliance: &score}
	second := models.Candidate{ID: "q1", ProductName: "Acme Router X200", Vendor: "CDW", Confidence: 95, Compliance: &score}
	other := models.Candidate{ID: "q2", ProductName: "Acme Router X200", Vendor: "Grainger", Confidence: 60, Compliance: &score}

	got := Select([]models.Candidate{first, second, other})

	require.Len(t, got, 2)
	assert.Equal(t, "q0", got[0].ID)
	assert.Equal(t, "q2", got[1].ID)
}

func TestSelect_RanksByWeightedScore(t *testing.T) {
	high := models.NewComplianceScore(40, 30, 20, 10, 0)
	low := models.NewComplianceScore(40, 20, 15, 0, 0)
	candidates := []models.Candidate{
		{ID: "a", ProductName: "A", Vendor: "V", Confidence: 98, Compliance: &low},  // 45+39.2
		{ID: "b", ProductName: "B", Vendor: "V", Confidence: 70, Compliance: &high}, // 60+28
		{ID: "c", ProductName: "C", Vendor: "V", Confidence: 70, Compliance: &high},
	}

	got := Select(candidates)

	assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestBestByRequirement(t *testing.T) {
	ranked := []models.Candidate{
		{ID: "1", RequirementID: "R-2"},
		{ID: "2", RequirementID: "R-1"},
		{ID: "3", RequirementID: "R-2"},
	}

	best := BestByRequirement(ranked)

	assert.Equal(t, "1", best["R-2"].ID)
	assert.Equal(t, "2", best["R-1"].ID)
}
