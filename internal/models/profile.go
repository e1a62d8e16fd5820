package models

import (
	"math"
	"strings"
)

// Profile is the business profile of the user requesting matches.
type Profile struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	CompanyName  string `json:"company_name"`
	NAICSCodes   string `json:"naics_codes"`
	PSCCodes     string `json:"psc_codes"`
	Location     string `json:"location"`
	State        string `json:"state"`
	City         string `json:"city"`
	BusinessType string `json:"business_type"`

	// CompletionPercentage is supplied by the profile store when it tracks completion itself.
	CompletionPercentage *int `json:"completion_percentage,omitempty"`
}

// Completion returns the stored completion percentage, or derives it from the required fields.
func (p Profile) Completion() int {
	if p.CompletionPercentage != nil {
		return clampPercent(*p.CompletionPercentage)
	}
	required := []string{p.CompanyName, p.NAICSCodes}
	filled := 0
	for _, v := range required {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(len(required)) * 100))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
