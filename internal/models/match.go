package models

import "time"

// FactorScore is one weighted factor of a profile match.
type FactorScore struct {
	Score                int      `json:"score"`
	Weight               float64  `json:"weight"`
	Explanation          string   `json:"explanation"`
	MatchedCodes         []string `json:"matched_codes,omitempty"`
	MatchingKeywords     []string `json:"matching_keywords,omitempty"`
	CategoryMatch        *bool    `json:"category_match,omitempty"`
	CompletionPercentage *int     `json:"completion_percentage,omitempty"`
}

type MatchFactors struct {
	NAICS        FactorScore `json:"naics_match"`
	Location     FactorScore `json:"location_match"`
	Capability   FactorScore `json:"capability_match"`
	Size         FactorScore `json:"size_match"`
	Completeness FactorScore `json:"profile_completeness"`
}

// MatchScoreBreakdown is the weighted fit between a business profile and a solicitation.
type MatchScoreBreakdown struct {
	OverallScore    int          `json:"overall_score"`
	Factors         MatchFactors `json:"factors"`
	Recommendations []string     `json:"recommendations"`
}

// MatchScore is a cached breakdown keyed by (user, solicitation).
type MatchScore struct {
	UserID         string              `json:"user_id"`
	SolicitationID string              `json:"solicitation_id"`
	OverallScore   int                 `json:"overall_score"`
	Breakdown      MatchScoreBreakdown `json:"breakdown"`
	CalculatedAt   time.Time           `json:"calculated_at"`
}

// MatchScoreEntry is a cached score joined with its solicitation, as listed
// by the batch endpoint. Breakdown is only set when requested.
type MatchScoreEntry struct {
	Solicitation      SolicitationSummary  `json:"solicitation"`
	OverallScore      int                  `json:"overall_score"`
	NAICSScore        int                  `json:"naics_score"`
	LocationScore     int                  `json:"location_score"`
	CapabilityScore   int                  `json:"capability_score"`
	SizeScore         int                  `json:"size_score"`
	CompletenessScore int                  `json:"completeness_score"`
	MatchedCodes      []string             `json:"matched_codes"`
	MatchingKeywords  []string             `json:"matching_keywords"`
	Breakdown         *MatchScoreBreakdown `json:"detailed_breakdown,omitempty"`
	CalculatedAt      time.Time            `json:"calculated_at"`
}

// NewMatchScoreEntry flattens a cached score for listing.
func NewMatchScoreEntry(score MatchScore, sol SolicitationSummary, includeBreakdown bool) MatchScoreEntry {
	f := score.Breakdown.Factors
	entry := MatchScoreEntry{
		Solicitation:      sol,
		OverallScore:      score.OverallScore,
		NAICSScore:        f.NAICS.Score,
		LocationScore:     f.Location.Score,
		CapabilityScore:   f.Capability.Score,
		SizeScore:         f.Size.Score,
		CompletenessScore: f.Completeness.Score,
		MatchedCodes:      nonNil(f.NAICS.MatchedCodes),
		MatchingKeywords:  nonNil(f.Capability.MatchingKeywords),
		CalculatedAt:      score.CalculatedAt,
	}
	if includeBreakdown {
		b := score.Breakdown
		entry.Breakdown = &b
	}
	return entry
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
