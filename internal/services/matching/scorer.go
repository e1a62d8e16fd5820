// Package matching scores how well a business profile fits a solicitation
// and caches the results per (user, solicitation).
package matching

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

// Factor weights. They sum to 1.
const (
	WeightNAICS        = 0.35
	WeightLocation     = 0.20
	WeightCapability   = 0.25
	WeightSize         = 0.15
	WeightCompleteness = 0.05
)

const maxKeywords = 20

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	stateTokenPattern = regexp.MustCompile(`\b([A-Z]{2})\b`)

	commonWords = map[string]bool{
		"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
		"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	}

	largeContractValue = decimal.NewFromInt(10_000_000)
)

// Scorer computes match breakdowns. It holds only read-only catalog tables,
// so a single instance is safe for concurrent use.
type Scorer struct {
	cat *catalog.Catalog
}

func NewScorer(cat *catalog.Catalog) *Scorer {
	return &Scorer{cat: cat}
}

// Score is a pure function of its inputs.
func (s *Scorer) Score(p models.Profile, sol models.Solicitation) models.MatchScoreBreakdown {
	factors := models.MatchFactors{
		NAICS:        s.naicsMatch(p, sol),
		Location:     s.locationMatch(p, sol),
		Capability:   s.capabilityMatch(p, sol),
		Size:         s.sizeMatch(p, sol),
		Completeness: completenessMatch(p),
	}
	factors.NAICS.Weight = WeightNAICS
	factors.Location.Weight = WeightLocation
	factors.Capability.Weight = WeightCapability
	factors.Size.Weight = WeightSize
	factors.Completeness.Weight = WeightCompleteness

	weighted := float64(factors.NAICS.Score)*WeightNAICS +
		float64(factors.Location.Score)*WeightLocation +
		float64(factors.Capability.Score)*WeightCapability +
		float64(factors.Size.Score)*WeightSize +
		float64(factors.Completeness.Score)*WeightCompleteness
	overall := max(0, min(100, int(math.Round(weighted))))

	return models.MatchScoreBreakdown{
		OverallScore:    overall,
		Factors:         factors,
		Recommendations: recommendations(factors, sol),
	}
}

func (s *Scorer) naicsMatch(p models.Profile, sol models.Solicitation) models.FactorScore {
	userCodes := models.SplitCodes(p.NAICSCodes)
	solCodes := sol.NAICSList()

	if len(userCodes) == 0 {
		return models.FactorScore{Explanation: "Add NAICS codes to your profile for better matching", MatchedCodes: []string{}}
	}
	if len(solCodes) == 0 {
		return models.FactorScore{Explanation: "RFQ has no NAICS codes specified", MatchedCodes: []string{}}
	}

	if exact := codesMatching(userCodes, solCodes, 0); len(exact) > 0 {
		return models.FactorScore{
			Score:        100,
			Explanation:  fmt.Sprintf("Perfect match: %d exact NAICS code%s aligned", len(exact), plural(len(exact))),
			MatchedCodes: exact,
		}
	}
	if group := codesMatching(userCodes, solCodes, 3); len(group) > 0 {
		return models.FactorScore{
			Score:        75,
			Explanation:  fmt.Sprintf("Industry group match: %d related NAICS code%s in same industry", len(group), plural(len(group))),
			MatchedCodes: group,
		}
	}
	if sector := codesMatching(userCodes, solCodes, 2); len(sector) > 0 {
		return models.FactorScore{
			Score:        50,
			Explanation:  fmt.Sprintf("Sector match: %d NAICS code%s in related sector", len(sector), plural(len(sector))),
			MatchedCodes: sector,
		}
	}
	return models.FactorScore{Score: 20, Explanation: "No NAICS code alignment found", MatchedCodes: []string{}}
}

// codesMatching returns the user codes sharing a prefix of the given length
// with any solicitation code. A zero length compares whole codes.
func codesMatching(userCodes, solCodes []string, prefix int) []string {
	var matched []string
	for _, u := range userCodes {
		for _, c := range solCodes {
			if prefixOf(u, prefix) == prefixOf(c, prefix) {
				matched = append(matched, u)
				break
			}
		}
	}
	return matched
}

func prefixOf(code string, n int) string {
	if n == 0 || len(code) <= n {
		return code
	}
	return code[:n]
}

func (s *Scorer) locationMatch(p models.Profile, sol models.Solicitation) models.FactorScore {
	solState := strings.ToUpper(strings.TrimSpace(sol.State))
	location := strings.ToLower(sol.Location)
	if solState == "" || strings.Contains(location, "remote") || strings.Contains(location, "nationwide") {
		return models.FactorScore{Score: 100, Explanation: "Remote/nationwide opportunity - location not a constraint"}
	}

	if strings.TrimSpace(p.Location) == "" && strings.TrimSpace(p.State) == "" {
		return models.FactorScore{Score: 70, Explanation: "Add location to your profile for better geographic matching"}
	}

	userState := profileState(p)
	if userState == "" {
		return models.FactorScore{Score: 60, Explanation: "Location data incomplete for accurate matching"}
	}

	if userState == solState {
		if p.City != "" && sol.City != "" && strings.EqualFold(strings.TrimSpace(p.City), strings.TrimSpace(sol.City)) {
			return models.FactorScore{Score: 100, Explanation: "Excellent location match - same city"}
		}
		return models.FactorScore{Score: 90, Explanation: "Great location match - same state"}
	}

	if region := s.cat.RegionOf(userState); region != "" && region == s.cat.RegionOf(solState) {
		return models.FactorScore{Score: 80, Explanation: "Good regional match - nearby state"}
	}
	return models.FactorScore{Score: 40, Explanation: "Different region - may require travel"}
}

// profileState is the profile's state, or the last two-letter upper-case
// token of its free-form location.
func profileState(p models.Profile) string {
	if state := strings.TrimSpace(p.State); state != "" {
		return strings.ToUpper(state)
	}
	matches := stateTokenPattern.FindAllString(p.Location, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

func (s *Scorer) capabilityMatch(p models.Profile, sol models.Solicitation) models.FactorScore {
	keywords := extractKeywords(sol.Title + " " + sol.Description)
	capabilities := s.capabilities(p)

	if len(capabilities) == 0 {
		return models.FactorScore{
			Score:            50,
			Explanation:      "Complete your profile with more details for better capability matching",
			MatchingKeywords: []string{},
		}
	}

	matching := []string{}
	for _, c := range capabilities {
		for _, k := range keywords {
			if strings.Contains(k, c) || strings.Contains(c, k) {
				matching = append(matching, c)
				break
			}
		}
	}

	score := int(math.Round(float64(len(matching)) / float64(len(capabilities)) * 100))
	var explanation string
	switch {
	case score >= 80:
		explanation = fmt.Sprintf("Excellent capability match: %d strong alignments found", len(matching))
	case score >= 60:
		explanation = fmt.Sprintf("Good capability match: %d relevant skills identified", len(matching))
	case score >= 40:
		explanation = fmt.Sprintf("Moderate capability match: %d related skills found", len(matching))
	default:
		explanation = "Limited capability match - consider expanding your service offerings"
		score = max(score, 30)
	}
	return models.FactorScore{Score: score, Explanation: explanation, MatchingKeywords: matching}
}

// capabilities derives the profile's capability vocabulary from its NAICS
// codes and company name.
func (s *Scorer) capabilities(p models.Profile) []string {
	var caps []string
	for _, code := range models.SplitCodes(p.NAICSCodes) {
		for _, nc := range s.cat.NAICSCapabilities {
			if strings.HasPrefix(code, nc.Prefix) {
				caps = append(caps, nc.Capabilities...)
			}
		}
	}
	company := strings.ToLower(p.CompanyName)
	if company != "" {
		for _, nc := range s.cat.NameCapabilities {
			if strings.Contains(company, nc.Term) {
				caps = append(caps, nc.Capabilities...)
			}
		}
	}

	seen := make(map[string]bool, len(caps))
	out := caps[:0]
	for _, c := range caps {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// extractKeywords returns the first twenty lower-cased words longer than
// three characters that are not common words.
func extractKeywords(text string) []string {
	text = nonWordPattern.ReplaceAllString(strings.ToLower(text), " ")
	var keywords []string
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) > 3 && !commonWords[w] {
			keywords = append(keywords, w)
			if len(keywords) == maxKeywords {
				break
			}
		}
	}
	return keywords
}

func (s *Scorer) sizeMatch(p models.Profile, sol models.Solicitation) models.FactorScore {
	setAside := strings.TrimSpace(sol.SetAsideType)
	if setAside == "" {
		return models.FactorScore{Score: 100, Explanation: "Open competition - no set-aside restrictions", CategoryMatch: boolPtr(true)}
	}

	businessType := strings.ToLower(strings.TrimSpace(p.BusinessType))
	if program, ok := s.cat.SetAsideFor(setAside); ok && businessType != "" {
		for _, term := range program.Qualifying {
			if strings.Contains(businessType, strings.ToLower(term)) {
				return models.FactorScore{
					Score:         100,
					Explanation:   fmt.Sprintf("Perfect match: Your business qualifies for %s set-aside", setAside),
					CategoryMatch: boolPtr(true),
				}
			}
		}
	}

	if businessType == "" {
		return models.FactorScore{
			Score:         75,
			Explanation:   fmt.Sprintf("%s set-aside required - verify your business qualification", setAside),
			CategoryMatch: boolPtr(false),
		}
	}
	if strings.Contains(businessType, "small") && !strings.EqualFold(setAside, "Large Business") {
		return models.FactorScore{
			Score:         60,
			Explanation:   fmt.Sprintf("May qualify: Small businesses often eligible for %s opportunities", setAside),
			CategoryMatch: boolPtr(false),
		}
	}
	return models.FactorScore{
		Score:         30,
		Explanation:   fmt.Sprintf("Limited eligibility: %s set-aside may not match your business type", setAside),
		CategoryMatch: boolPtr(false),
	}
}

func completenessMatch(p models.Profile) models.FactorScore {
	pct := p.Completion()
	explanation := fmt.Sprintf("%d%% profile complete - add more details to improve matching", pct)
	if pct == 100 {
		explanation = "Complete profile provides maximum matching accuracy"
	}
	return models.FactorScore{Score: pct, Explanation: explanation, CompletionPercentage: &pct}
}

func recommendations(f models.MatchFactors, sol models.Solicitation) []string {
	recs := []string{}

	if f.NAICS.Score < 50 {
		recs = append(recs, "Consider adding relevant NAICS codes to your profile to improve industry matching")
	} else if f.NAICS.Score == 100 {
		recs = append(recs, "Excellent NAICS alignment - this opportunity matches your registered capabilities")
	}
	if f.Location.Score < 70 && sol.State != "" {
		recs = append(recs, fmt.Sprintf("Consider if you can service %s operations or partner with local businesses", sol.State))
	}
	if f.Capability.Score < 60 {
		recs = append(recs, "Review the RFQ requirements to identify skill gaps or partnership opportunities")
	}
	if f.Size.Score < 100 && sol.SetAsideType != "" {
		recs = append(recs, fmt.Sprintf("Verify %s qualification or consider teaming arrangements", sol.SetAsideType))
	}
	if f.Completeness.Score < 100 {
		recs = append(recs, "Complete your business profile to improve matching accuracy across all opportunities")
	}
	if sol.ContractValueMin != nil && sol.ContractValueMin.GreaterThan(largeContractValue) {
		recs = append(recs, "Large contract value - consider teaming with established primes if you're a small business")
	}
	return recs
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

func boolPtr(b bool) *bool {
	return &b
}
