package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

const (
	maxRequirementKeywords = 10
	maxGenericKeywords     = 8
	maxNameLength          = 80
	maxDescriptionLength   = 500
	maxQuantity            = 1000000
)

// CategoryRule pairs a trigger detector with the extractor that fills the
// specifications of the requirement it produces.
type CategoryRule struct {
	Category catalog.Category
	Detect   Detector
	Extract  SpecExtractor

	namePatterns     []*regexp.Regexp
	quantityPatterns []*regexp.Regexp
}

// RequirementBuilder turns a corpus and its findings into structured requirements.
type RequirementBuilder struct {
	classifier TextClassifier
	rules      []CategoryRule
	generic    catalog.Generic
	genericCat []genericRule
}

type genericRule struct {
	name   string
	detect Detector
}

// NewRequirementBuilder registers one rule per catalog category.
func NewRequirementBuilder(cat *catalog.Catalog, classifier TextClassifier) (*RequirementBuilder, error) {
	b := &RequirementBuilder{classifier: classifier, generic: cat.Generic}
	for _, c := range cat.Categories {
		extract, ok := LookupExtractor(c.Extractor)
		if !ok {
			return nil, fmt.Errorf("category %q: unknown extractor %q", c.Name, c.Extractor)
		}
		b.Register(CategoryRule{Category: c, Detect: classifier.Detector(c.Triggers), Extract: extract})
	}
	for _, g := range cat.GenericCategories {
		b.genericCat = append(b.genericCat, genericRule{name: g.Name, detect: classifier.Detector(g.Keywords)})
	}
	return b, nil
}

// Register adds a category rule. Rules are evaluated in registration order.
func (b *RequirementBuilder) Register(rule CategoryRule) {
	anchor := regexp.QuoteMeta(rule.Category.Anchor)
	if anchor != "" {
		rule.namePatterns = []*regexp.Regexp{
			regexp.MustCompile(`(?i)"([^"\n]*` + anchor + `[^"\n]*)"`),
			regexp.MustCompile(`(?i)\bshall be\s+([^.\n]*` + anchor + `[^.\n]*)`),
			regexp.MustCompile(`(?i)\bmust be\s+([^.\n]*` + anchor + `[^.\n]*)`),
			regexp.MustCompile(`(?i)\brequired:\s*([^.\n]*` + anchor + `[^.\n]*)`),
		}
	}
	rule.quantityPatterns = quantityPatterns(rule.Category.QuantityUnits)
	b.rules = append(b.rules, rule)
}

// Build emits one requirement per triggered category, or a single generic
// requirement when none trigger. Ids are "<solicitation id>-<n>".
func (b *RequirementBuilder) Build(sol models.Solicitation, corpus string, findings models.Findings) []models.Requirement {
	var reqs []models.Requirement
	for _, rule := range b.rules {
		trigger, ok := rule.Detect(corpus)
		if !ok {
			continue
		}
		reqs = append(reqs, b.fromRule(rule, corpus, trigger))
	}
	if len(reqs) == 0 {
		reqs = append(reqs, b.genericRequirement(sol.Title, corpus, findings))
	}
	for i := range reqs {
		reqs[i].ID = fmt.Sprintf("%s-%d", sol.ID, i+1)
	}
	return reqs
}

func (b *RequirementBuilder) fromRule(rule CategoryRule, corpus, trigger string) models.Requirement {
	c := rule.Category

	specs := make(map[string]string, len(c.Specifications))
	for k, v := range c.Specifications {
		specs[k] = v
	}
	for k, v := range rule.Extract(corpus) {
		specs[k] = v
	}

	name := firstGroup(corpus, rule.namePatterns...)
	if name == "" || len(name) > maxNameLength {
		name = c.Requirement
	}
	if name == "" {
		name = c.Name
	}

	quantity, ok := extractQuantity(corpus, rule.quantityPatterns)
	if !ok {
		quantity = c.DefaultQuantity
	}

	priority := models.Priority(c.Priority)
	if priority == "" {
		priority = b.classifier.Priority(corpus, trigger)
	}

	anchor := trigger
	if c.Anchor != "" && strings.Contains(strings.ToLower(corpus), strings.ToLower(c.Anchor)) {
		anchor = c.Anchor
	}
	keywords := append(append([]string(nil), c.Keywords...), contextTerms(corpus, anchor)...)
	keywords = deduplicateStrings(keywords)
	if len(keywords) > maxRequirementKeywords {
		keywords = keywords[:maxRequirementKeywords]
	}

	description := describe(corpus, anchor)
	if description == "" {
		description = c.Description
	}

	return models.Requirement{
		Name:           name,
		Description:    description,
		Category:       c.Name,
		Specifications: specs,
		Quantity:       quantity,
		UnitType:       c.UnitType,
		Keywords:       keywords,
		Priority:       priority,
	}
}

func (b *RequirementBuilder) genericRequirement(title, corpus string, findings models.Findings) models.Requirement {
	keywords := deduplicateStrings(append(significantTokens(title), findings.CriticalKeywords...))
	if len(keywords) > maxGenericKeywords {
		keywords = keywords[:maxGenericKeywords]
	}

	category := b.generic.Name
	for _, g := range b.genericCat {
		if _, ok := g.detect(corpus); ok {
			category = g.name
			break
		}
	}

	name := strings.TrimSpace(title)
	if name == "" {
		name = b.generic.Name
	}
	if len([]rune(name)) > 50 {
		name = truncate(name, 50)
	}

	specs := make(map[string]string, len(b.generic.Specifications))
	for k, v := range b.generic.Specifications {
		specs[k] = v
	}

	unit := b.generic.UnitType
	if unit == "" {
		unit = "lot"
	}

	return models.Requirement{
		Name:           name,
		Description:    "Products and services required for: " + strings.TrimSpace(title),
		Category:       category,
		Specifications: specs,
		Quantity:       1,
		UnitType:       unit,
		Keywords:       keywords,
		Priority:       models.PriorityMedium,
	}
}

// quantityPatterns compiles the explicit forms first ("exactly 5 servers",
// "quantity: 5 servers") and the bare "<n> <unit>" form last.
func quantityPatterns(units []string) []*regexp.Regexp {
	var explicit, bare []*regexp.Regexp
	for _, unit := range units {
		words := strings.Fields(unit)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		u := strings.Join(words, `\s+`) + `(?:e?s)?\b`
		explicit = append(explicit,
			regexp.MustCompile(`(?i)\b(?:exactly|precisely)\s+(\d[\d,]*)\s+`+u),
			regexp.MustCompile(`(?i)\bquantity[:\s]+(\d[\d,]*)\s+`+u),
			regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+`+u+`\s+(?:required|needed|shall|must)\b`),
		)
		bare = append(bare, regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+`+u))
	}
	return append(explicit, bare...)
}

func extractQuantity(corpus string, patterns []*regexp.Regexp) (int, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(corpus)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err == nil && n > 0 && n < maxQuantity {
			return n, true
		}
	}
	return 0, false
}

// contextTerms returns up to eight significant words around the first word containing anchor.
func contextTerms(corpus, anchor string) []string {
	anchor = strings.ToLower(anchor)
	words := strings.Fields(strings.ToLower(corpus))
	index := -1
	for i, w := range words {
		if strings.Contains(w, anchor) {
			index = i
			break
		}
	}
	if index == -1 {
		return nil
	}
	start, end := index-5, index+5
	if start < 0 {
		start = 0
	}
	if end > len(words) {
		end = len(words)
	}

	var terms []string
	for _, w := range words[start:end] {
		w = strings.TrimSpace(nonWordPattern.ReplaceAllString(w, ""))
		if len(w) > 3 && !stopWords[w] {
			terms = append(terms, w)
		}
		if len(terms) == maxGenericKeywords {
			break
		}
	}
	return terms
}

// describe joins up to three sentences that mention anchor.
func describe(corpus, anchor string) string {
	anchor = strings.ToLower(anchor)
	var picked []string
	for _, s := range splitSentences(corpus) {
		if strings.Contains(strings.ToLower(s), anchor) {
			picked = append(picked, s)
			if len(picked) == 3 {
				break
			}
		}
	}
	if len(picked) == 0 {
		return ""
	}
	return truncate(strings.Join(picked, ". ")+".", maxDescriptionLength)
}
