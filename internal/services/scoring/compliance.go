// Package scoring grades candidates against the solicitation's compliance
// findings and ranks the ones that pass.
package scoring

import (
	"strings"

	"go.uber.org/zap"

	"govcon/research/internal/logging"
	"govcon/research/internal/models"
)

const (
	// MinTotalScore is the compliance total a candidate needs to be quoted.
	MinTotalScore = 75
	MaxConfidence = 98

	specificationPoints  = 5
	maxSpecifications    = 40
	compliancePoints     = 10
	maxCompliance        = 30
	standardPoints       = 7
	maxStandards         = 20
	exactMatchPoints     = 10
	exactMatchBonus      = 5
	marketplaceBonus     = 8
	highConfidence       = 90
	highConfidenceBonus  = 5
	inStockBonus         = 3
	certifiedValue       = "Certified"
	complianceSpecSuffix = " Compliance"
)

// ComplianceScorer scores candidates against document-wide findings.
type ComplianceScorer struct {
	marketplace string
	logger      *zap.Logger
}

// NewComplianceScorer takes the name of the government marketplace vendor.
func NewComplianceScorer(marketplace string, logger *zap.Logger) *ComplianceScorer {
	return &ComplianceScorer{marketplace: marketplace, logger: logging.OrNop(logger)}
}

// Score computes the compliance score of a candidate. The candidate is not modified.
func (s *ComplianceScorer) Score(c models.Candidate, findings models.Findings) models.ComplianceScore {
	populated := 0
	for _, v := range c.Specifications {
		if strings.TrimSpace(v) != "" {
			populated++
		}
	}

	certified := 0
	for _, req := range findings.ComplianceRequirements {
		if c.Specifications[req.Standard+complianceSpecSuffix] == certifiedValue {
			certified++
		}
	}

	standards := 0
	for _, std := range findings.GovernmentStandards {
		if _, ok := c.Specifications[std]; ok {
			standards++
		}
	}

	exact, bonus := 0, 0
	if c.GovContractNumber != "" {
		exact = exactMatchPoints
		bonus += exactMatchBonus
	}
	if s.marketplace != "" && c.Vendor == s.marketplace {
		bonus += marketplaceBonus
	}
	if c.Confidence >= highConfidence {
		bonus += highConfidenceBonus
	}
	if strings.Contains(c.Availability, "Stock") {
		bonus += inStockBonus
	}

	return models.NewComplianceScore(
		min(populated*specificationPoints, maxSpecifications),
		min(certified*compliancePoints, maxCompliance),
		min(standards*standardPoints, maxStandards),
		exact,
		bonus,
	)
}

// Apply scores every candidate and returns the ones reaching MinTotalScore,
// with the score attached and confidence raised by the bonus (capped at 98).
// Input order is preserved.
func (s *ComplianceScorer) Apply(candidates []models.Candidate, findings models.Findings) []models.Candidate {
	accepted := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		score := s.Score(c, findings)
		if score.TotalScore < MinTotalScore {
			s.logger.Debug("candidate below compliance threshold",
				zap.String("candidate_id", c.ID),
				zap.String("product", c.ProductName),
				zap.Int("total_score", score.TotalScore))
			continue
		}
		c.Compliance = &score
		c.Confidence = max(c.Confidence, min(c.Confidence+score.Bonus, MaxConfidence))
		accepted = append(accepted, c)
	}
	return accepted
}
