package analysis

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	spacePattern      = regexp.MustCompile(`[ \t]{2,}`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
)

var curlyQuotes = strings.NewReplacer("\u201c", `"`, "\u201d", `"`, "\u2018", "'", "\u2019", "'", "\u00a0", " ")

// stopWords are dropped from keyword lists. Mandatory-language markers are
// included so they never become keywords themselves.
var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	"shall": true, "must": true, "required": true, "mandatory": true,
	"this": true, "that": true, "will": true, "from": true, "have": true,
	"been": true, "each": true, "which": true, "these": true, "their": true,
	"such": true, "into": true, "under": true, "also": true, "other": true,
}

// NormalizeText strips HTML tags, decodes entities, unifies line endings and
// collapses runs of spaces and blank lines.
func NormalizeText(raw string) string {
	normalized := htmlTagPattern.ReplaceAllString(raw, " ")
	normalized = html.UnescapeString(normalized)
	normalized = curlyQuotes.Replace(normalized)

	// Replace \r\n first so Windows line endings do not become blank lines
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacePattern.ReplaceAllString(line, " "))
	}
	normalized = strings.Join(lines, "\n")
	normalized = blankLinesPattern.ReplaceAllString(normalized, "\n\n")
	return strings.TrimSpace(normalized)
}

// tokenize lower-cases text, replaces punctuation with spaces and splits on whitespace.
func tokenize(text string) []string {
	return strings.Fields(nonWordPattern.ReplaceAllString(strings.ToLower(text), " "))
}

// significantTokens returns tokens longer than three characters that are not stop words.
func significantTokens(text string) []string {
	var out []string
	for _, tok := range tokenize(text) {
		if len(tok) > 3 && !stopWords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// deduplicateStrings removes duplicates while preserving order
func deduplicateStrings(slice []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, s := range slice {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

// contextAround returns up to chars bytes on each side of the first
// case-insensitive occurrence of keyword, or "" when it does not occur.
// Both ends are widened to rune boundaries.
func contextAround(text, keyword string, chars int) string {
	if keyword == "" {
		return ""
	}
	loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword)).FindStringIndex(text)
	if loc == nil {
		return ""
	}
	start := max(loc[0]-chars, 0)
	end := min(loc[1]+chars, len(text))
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return text[start:end]
}

// truncate shortens s to max runes, ending with "..." when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// phrasePattern builds a case-insensitive whole-word pattern for a phrase,
// tolerating any whitespace between its words.
func phrasePattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return `(?i)\b` + strings.Join(words, `\s+`) + `\b`
}
