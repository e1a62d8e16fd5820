package models

// Priority ranks how strongly the solicitation insists on a requirement.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Requirement is a structured need extracted from solicitation text.
type Requirement struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Specifications map[string]string `json:"specifications"`
	Quantity       int               `json:"quantity"`
	UnitType       string            `json:"unitType"`
	Keywords       []string          `json:"keywords"`
	Priority       Priority          `json:"priority"`
}

// ComplianceType groups compliance requirements.
type ComplianceType string

const (
	ComplianceSecurity      ComplianceType = "security"
	ComplianceRegulation    ComplianceType = "regulation"
	ComplianceCertification ComplianceType = "certification"
)

// ComplianceRequirement is a regulatory obligation detected in the solicitation.
// Standard is the short name a candidate certifies as "<Standard> Compliance".
type ComplianceRequirement struct {
	Type                 ComplianceType `json:"type"`
	Name                 string         `json:"name"`
	Standard             string         `json:"standard"`
	Description          string         `json:"description"`
	Mandatory            bool           `json:"mandatory"`
	VerificationRequired bool           `json:"verificationRequired"`
	DocumentationNeeded  []string       `json:"documentationNeeded"`
}

// DetailedSpecification is a labelled value found in the text, e.g. "Memory: 64 GB".
type DetailedSpecification struct {
	Category           string `json:"category"`
	Requirement        string `json:"requirement"`
	Value              string `json:"value"`
	Mandatory          bool   `json:"mandatory"`
	ExactMatchRequired bool   `json:"exactMatchRequired"`
	ToleranceAllowed   bool   `json:"toleranceAllowed"`
}

// DeliveryFindings holds delivery terms found in the text.
type DeliveryFindings struct {
	Timeframe            string `json:"timeframe,omitempty"`
	Warranty             string `json:"warranty,omitempty"`
	InstallationRequired bool   `json:"installationRequired"`
	TrainingRequired     bool   `json:"trainingRequired"`
}

// Findings is the document-wide output of the text classifier.
type Findings struct {
	CriticalKeywords       []string                `json:"criticalKeywords"`
	ExactPhrases           []string                `json:"exactPhrases"`
	GovernmentStandards    []string                `json:"governmentStandards"`
	ComplianceRequirements []ComplianceRequirement `json:"complianceRequirements"`
	Specifications         []DetailedSpecification `json:"specifications"`
	Delivery               DeliveryFindings        `json:"delivery"`
}
