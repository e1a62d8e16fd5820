package models

import "github.com/shopspring/decimal"

// ComplianceScore measures how well a candidate's declared attributes satisfy the solicitation.
type ComplianceScore struct {
	Specifications      int `json:"specifications"`
	Compliance          int `json:"compliance"`
	GovernmentStandards int `json:"governmentStandards"`
	ExactMatch          int `json:"exactMatch"`
	TotalScore          int `json:"totalScore"`
	Bonus               int `json:"bonus"`
}

// NewComplianceScore builds a score whose total is the sum of the four sub-scores.
// The bonus feeds confidence only and is not part of the total.
func NewComplianceScore(specifications, compliance, governmentStandards, exactMatch, bonus int) ComplianceScore {
	return ComplianceScore{
		Specifications:      specifications,
		Compliance:          compliance,
		GovernmentStandards: governmentStandards,
		ExactMatch:          exactMatch,
		TotalScore:          specifications + compliance + governmentStandards + exactMatch,
		Bonus:               bonus,
	}
}

// Candidate is a commercial offer considered against one requirement.
type Candidate struct {
	ID                string            `json:"id"`
	RequirementID     string            `json:"requirementId"`
	ProductName       string            `json:"productName"`
	Description       string            `json:"description"`
	Vendor            string            `json:"vendor"`
	Source            string            `json:"source"`
	Price             decimal.Decimal   `json:"price"`
	PriceUnit         string            `json:"priceUnit"`
	Currency          string            `json:"currency"`
	Specifications    map[string]string `json:"specifications"`
	Availability      string            `json:"availability"`
	SourceURL         string            `json:"sourceUrl"`
	Confidence        int               `json:"confidence"`
	GovContractNumber string            `json:"govContractNumber,omitempty"`
	Compliance        *ComplianceScore  `json:"complianceScore,omitempty"`
}
