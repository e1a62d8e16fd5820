package analysis

import (
	"regexp"
	"sort"
	"strings"

	"govcon/research/internal/models"
)

// Detector reports the earliest trigger phrase found in a corpus.
type Detector func(corpus string) (match string, ok bool)

// TextClassifier finds requirement signals in solicitation text.
type TextClassifier interface {
	// Classify extracts the document-wide findings.
	Classify(corpus string) models.Findings
	// Detector compiles a detector for a set of trigger phrases.
	Detector(phrases []string) Detector
	// Priority grades the language around anchor.
	Priority(corpus, anchor string) models.Priority
}

const maxCriticalKeywords = 50

var (
	mandatoryMarkerPattern = regexp.MustCompile(`(?i)\b(?:shall|must|required|mandatory)\b`)
	sentenceSplitPattern   = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)
	quotedPhrasePattern    = regexp.MustCompile(`"([^"\n]+)"`)
	exactlyPattern         = regexp.MustCompile(`(?i)\b(?:exactly|specifically|precisely)\s+([^.!?\n]+)`)

	highPriorityPattern   = regexp.MustCompile(`(?i)\b(?:critical|essential|mandatory|required|shall|must)\b`)
	mediumPriorityPattern = regexp.MustCompile(`(?i)\b(?:preferred|desired|should)\b`)

	installationPattern = regexp.MustCompile(`(?i)\binstall(?:ation|ed)?\b`)
	trainingPattern     = regexp.MustCompile(`(?i)\btraining\b`)
	timeframePattern    = regexp.MustCompile(`(?i)\bwithin\s+\d+\s+(?:calendar\s+|business\s+)?(?:days?|weeks?|months?)\b`)
	warrantyPattern     = regexp.MustCompile(`(?i)\b(\d+)[-\s](?:year|yr)s?\s+warranty\b`)
)

type standardPattern struct {
	re        *regexp.Regexp
	canonical string
}

// Numbered identifiers are upper-cased; named standards use their canonical spelling.
var governmentStandardPatterns = []standardPattern{
	{re: regexp.MustCompile(`(?i)\bFIPS\s*\d+(?:-\d+)?`)},
	{re: regexp.MustCompile(`(?i)\bNIST\s+(?:SP\s+)?[\w.-]*\d[\w-]*`)},
	{re: regexp.MustCompile(`(?i)\bISO\s*\d+(?::\d{4})?`)},
	{re: regexp.MustCompile(`(?i)\bANSI\s+[\w.-]*\d[\w-]*`)},
	{re: regexp.MustCompile(`(?i)\bIEEE\s+\d[\w.-]*\w`)},
	{re: regexp.MustCompile(`(?i)\bFedRAMP\b`), canonical: "FedRAMP"},
	{re: regexp.MustCompile(`(?i)\bFISMA\b`), canonical: "FISMA"},
	{re: regexp.MustCompile(`(?i)\bHIPAA\b`), canonical: "HIPAA"},
	{re: regexp.MustCompile(`\bSOX\b`), canonical: "SOX"},
	{re: regexp.MustCompile(`(?i)\b510\(k\)`), canonical: "510(k)"},
}

// complianceRule emits a compliance requirement when its trigger occurs.
type complianceRule struct {
	trigger  *regexp.Regexp
	kind     models.ComplianceType
	name     string
	standard string
	docs     []string
	describe func(corpus string) string
}

var (
	topSecretPattern    = regexp.MustCompile(`(?i)\btop\s+secret\b|\bts/sci\b`)
	secretPattern       = regexp.MustCompile(`(?i)\bsecret\b`)
	fedrampLevelPattern = regexp.MustCompile(`(?i)\bfedramp\s+(high|moderate|low)\b|\b(high|moderate|low)\s+(?:impact\s+)?fedramp\b`)
)

var complianceRules = []complianceRule{
	{
		trigger:  regexp.MustCompile(`(?i)\btop\s+secret\b|\bsecret\b|\bsecurity\s+clearance\b|\bts/sci\b`),
		kind:     models.ComplianceSecurity,
		name:     "Security Clearance Required",
		standard: "Security Clearance",
		docs:     []string{"Personnel Security Investigation", "Clearance Certificate"},
		describe: func(corpus string) string {
			switch {
			case topSecretPattern.MatchString(corpus):
				return "Top Secret clearance required"
			case secretPattern.MatchString(corpus):
				return "Secret clearance required"
			}
			return "Security clearance required"
		},
	},
	{
		trigger:  regexp.MustCompile(`(?i)\bfisma\b|\bfederal\s+information\s+security\b`),
		kind:     models.ComplianceSecurity,
		name:     "FISMA Compliance",
		standard: "FISMA",
		docs:     []string{"FISMA Compliance Certificate", "Security Assessment Report"},
		describe: func(string) string {
			return "Federal Information Security Management Act compliance"
		},
	},
	{
		trigger:  regexp.MustCompile(`(?i)\bfedramp\b`),
		kind:     models.ComplianceSecurity,
		name:     "FedRAMP Authorization",
		standard: "FedRAMP",
		docs:     []string{"FedRAMP Authorization Letter", "Security Package"},
		describe: func(corpus string) string {
			if m := fedrampLevelPattern.FindStringSubmatch(corpus); m != nil {
				level := m[1]
				if level == "" {
					level = m[2]
				}
				return "FedRAMP " + titleCase(level) + " authorization required"
			}
			return "FedRAMP authorization required"
		},
	},
	{
		trigger:  regexp.MustCompile(`(?i)\bhipaa\b`),
		kind:     models.ComplianceRegulation,
		name:     "HIPAA Compliance",
		standard: "HIPAA",
		docs:     []string{"HIPAA Compliance Assessment", "Business Associate Agreement"},
		describe: func(string) string {
			return "Health Insurance Portability and Accountability Act compliance"
		},
	},
	{
		trigger:  regexp.MustCompile(`(?i)\bfda\b|\b510\(k\)|\bmedical\s+devices?\b`),
		kind:     models.ComplianceCertification,
		name:     "FDA Approval",
		standard: "FDA",
		docs:     []string{"FDA 510(k) Clearance", "Quality System Certificate"},
		describe: func(corpus string) string {
			if strings.Contains(strings.ToLower(corpus), "510(k)") {
				return "FDA 510(k) clearance required"
			}
			return "FDA approval required"
		},
	},
}

var detailedSpecPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:minimum\s+|min\s+)?(?:cpu|processor):\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)\b(?:minimum\s+|min\s+)?(?:memory|ram):\s*(\d+\s*(?:gb|mb|tb))`),
	regexp.MustCompile(`(?i)\b(?:storage|disk|hard drive|ssd|solid state):\s*(\d+\s*(?:gb|mb|tb))`),
	regexp.MustCompile(`(?i)\b(?:minimum\s+)?version:\s*([^\n]+?)(?:\.\s|\n|$)`),
	regexp.MustCompile(`(?i)\b(?:performance|speed|throughput):\s*([^\n.]+)`),
}

var (
	exactSpecPattern     = regexp.MustCompile(`(?i)\b(?:exact|exactly|precisely|specifically|only|solely)\b`)
	toleranceSpecPattern = regexp.MustCompile(`(?i)\b(?:approximately|about|around|tolerance|acceptable range)\b|±`)
)

// PatternExtractor is the rule-based TextClassifier.
type PatternExtractor struct{}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Classify runs every detector over the corpus. It is a pure function of its input.
func (p *PatternExtractor) Classify(corpus string) models.Findings {
	return models.Findings{
		CriticalKeywords:       extractCriticalKeywords(corpus),
		ExactPhrases:           extractExactPhrases(corpus),
		GovernmentStandards:    identifyGovernmentStandards(corpus),
		ComplianceRequirements: identifyComplianceRequirements(corpus),
		Specifications:         parseDetailedSpecifications(corpus),
		Delivery:               extractDelivery(corpus),
	}
}

// Detector compiles whole-word, case-insensitive matchers for phrases.
func (p *PatternExtractor) Detector(phrases []string) Detector {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		if strings.TrimSpace(phrase) == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(phrasePattern(phrase)))
	}
	return func(corpus string) (string, bool) {
		best, bestPos := "", -1
		for _, re := range patterns {
			loc := re.FindStringIndex(corpus)
			if loc != nil && (bestPos == -1 || loc[0] < bestPos) {
				best, bestPos = corpus[loc[0]:loc[1]], loc[0]
			}
		}
		return best, bestPos != -1
	}
}

// Priority is high when the text within 100 characters of anchor uses mandatory
// language, medium for preference language, else low.
func (p *PatternExtractor) Priority(corpus, anchor string) models.Priority {
	context := contextAround(corpus, anchor, 100)
	if highPriorityPattern.MatchString(context) {
		return models.PriorityHigh
	}
	if mediumPriorityPattern.MatchString(context) {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

func splitSentences(corpus string) []string {
	var out []string
	for _, s := range sentenceSplitPattern.Split(corpus, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func extractCriticalKeywords(corpus string) []string {
	var keywords []string
	for _, sentence := range splitSentences(corpus) {
		if mandatoryMarkerPattern.MatchString(sentence) {
			keywords = append(keywords, significantTokens(sentence)...)
		}
	}
	keywords = deduplicateStrings(keywords)
	if len(keywords) > maxCriticalKeywords {
		keywords = keywords[:maxCriticalKeywords]
	}
	return keywords
}

func extractExactPhrases(corpus string) []string {
	var phrases []string
	for _, m := range quotedPhrasePattern.FindAllStringSubmatch(corpus, -1) {
		phrases = append(phrases, strings.TrimSpace(m[1]))
	}
	for _, m := range exactlyPattern.FindAllStringSubmatch(corpus, -1) {
		phrases = append(phrases, strings.TrimSpace(m[1]))
	}

	var out []string
	for _, p := range deduplicateStrings(phrases) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func identifyGovernmentStandards(corpus string) []string {
	seen := make(map[string]bool)
	var standards []string
	for _, sp := range governmentStandardPatterns {
		for _, m := range sp.re.FindAllString(corpus, -1) {
			name := sp.canonical
			if name == "" {
				name = strings.ToUpper(strings.Join(strings.Fields(m), " "))
			}
			if !seen[name] {
				seen[name] = true
				standards = append(standards, name)
			}
		}
	}
	return standards
}

func identifyComplianceRequirements(corpus string) []models.ComplianceRequirement {
	var out []models.ComplianceRequirement
	for _, rule := range complianceRules {
		if !rule.trigger.MatchString(corpus) {
			continue
		}
		out = append(out, models.ComplianceRequirement{
			Type:                 rule.kind,
			Name:                 rule.name,
			Standard:             rule.standard,
			Description:          rule.describe(corpus),
			Mandatory:            true,
			VerificationRequired: true,
			DocumentationNeeded:  append([]string(nil), rule.docs...),
		})
	}
	return out
}

func parseDetailedSpecifications(corpus string) []models.DetailedSpecification {
	type found struct {
		pos  int
		spec models.DetailedSpecification
	}
	var all []found
	for _, re := range detailedSpecPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(corpus, -1) {
			whole := corpus[loc[0]:loc[1]]
			label := strings.TrimSpace(strings.SplitN(whole, ":", 2)[0])
			line := lineAt(corpus, loc[0])
			all = append(all, found{pos: loc[0], spec: models.DetailedSpecification{
				Category:           categorizeSpec(label),
				Requirement:        label,
				Value:              strings.TrimSpace(corpus[loc[2]:loc[3]]),
				Mandatory:          mandatoryMarkerPattern.MatchString(line),
				ExactMatchRequired: exactSpecPattern.MatchString(line),
				ToleranceAllowed:   toleranceSpecPattern.MatchString(line),
			}})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	specs := make([]models.DetailedSpecification, 0, len(all))
	for _, f := range all {
		specs = append(specs, f.spec)
	}
	return specs
}

func categorizeSpec(label string) string {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "cpu") || strings.Contains(l, "processor") ||
		strings.Contains(l, "performance") || strings.Contains(l, "speed") || strings.Contains(l, "throughput"):
		return "Performance"
	case strings.Contains(l, "memory") || strings.Contains(l, "ram") ||
		strings.Contains(l, "storage") || strings.Contains(l, "disk") || strings.Contains(l, "ssd") ||
		strings.Contains(l, "drive") || strings.Contains(l, "solid state"):
		return "Hardware"
	case strings.Contains(l, "version"):
		return "Software"
	}
	return "General"
}

func extractDelivery(corpus string) models.DeliveryFindings {
	d := models.DeliveryFindings{
		InstallationRequired: installationPattern.MatchString(corpus),
		TrainingRequired:     trainingPattern.MatchString(corpus),
	}
	if m := timeframePattern.FindString(corpus); m != "" {
		d.Timeframe = strings.ToLower(strings.Join(strings.Fields(m), " "))
	}
	if m := warrantyPattern.FindStringSubmatch(corpus); m != nil {
		d.Warranty = m[1] + "-year warranty"
	}
	return d
}

// lineAt returns the line of text containing byte offset pos.
func lineAt(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := strings.IndexByte(text[pos:], '\n')
	if end == -1 {
		return text[start:]
	}
	return text[start : pos+end]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}
