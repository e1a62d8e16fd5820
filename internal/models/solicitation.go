package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var solicitationIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidSolicitationID reports whether id is a well-formed solicitation id:
// up to 128 letters, digits, dots, dashes or underscores, starting alphanumeric.
func ValidSolicitationID(id string) bool {
	return solicitationIDPattern.MatchString(id)
}

// Solicitation is a government RFQ as read by the research and matching pipelines.
// Code lists are comma-joined strings.
type Solicitation struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Agency             string           `json:"agency"`
	SolicitationNumber string           `json:"solicitation_number"`
	NAICSCodes         string           `json:"naics_codes"`
	PSCCodes           string           `json:"psc_codes"`
	Location           string           `json:"location"`
	State              string           `json:"state"`
	City               string           `json:"city"`
	ContractType       string           `json:"contract_type"`
	ContractValueMin   *decimal.Decimal `json:"contract_value_min,omitempty"`
	ContractValueMax   *decimal.Decimal `json:"contract_value_max,omitempty"`
	SetAsideType       string           `json:"set_aside_type"`
	PostedDate         string           `json:"posted_date"`
	DeadlineDate       string           `json:"deadline_date"`
	Status             string           `json:"status"`
}

// NAICSList returns the trimmed, non-empty NAICS codes.
func (s Solicitation) NAICSList() []string {
	return SplitCodes(s.NAICSCodes)
}

// SolicitationSummary is the subset of a solicitation returned next to cached match scores.
type SolicitationSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Agency       string `json:"agency"`
	State        string `json:"state"`
	City         string `json:"city"`
	NAICSCodes   string `json:"naics_codes"`
	SetAsideType string `json:"set_aside_type"`
	DeadlineDate string `json:"deadline_date"`
}

func (s Solicitation) Summary() SolicitationSummary {
	return SolicitationSummary{
		ID:           s.ID,
		Title:        s.Title,
		Agency:       s.Agency,
		State:        s.State,
		City:         s.City,
		NAICSCodes:   s.NAICSCodes,
		SetAsideType: s.SetAsideType,
		DeadlineDate: s.DeadlineDate,
	}
}

// SplitCodes splits a comma-joined code list.
func SplitCodes(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	var codes []string
	for _, part := range strings.Split(joined, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
