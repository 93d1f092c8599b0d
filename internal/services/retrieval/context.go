package retrieval

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-medrag/internal/services/labs"
)

// TruncateText safely truncates a UTF-8 string to maxLen runes.
func TruncateText(input string, maxLen int) string {
	if input == "" || maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= maxLen {
		return input
	}

	var b strings.Builder
	count := 0
	for _, r := range input {
		if count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// SanitizeForPrompt strips NUL bytes, normalizes line endings and limits blank lines.
func SanitizeForPrompt(input string) string {
	sanitized := strings.ReplaceAll(input, "\x00", "")
	sanitized = strings.ReplaceAll(sanitized, "\r\n", "\n")
	sanitized = strings.ReplaceAll(sanitized, "\r", "\n")
	for strings.Contains(sanitized, "\n\n\n") {
		sanitized = strings.ReplaceAll(sanitized, "\n\n\n", "\n\n")
	}
	return sanitized
}

// FormatPromptSection renders a titled block, or nothing when content is empty.
func FormatPromptSection(title, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return fmt.Sprintf("\n%s:\n%s\n", title, content)
}

// testKeywords are the query words that select one test's result.
var testKeywords = map[labs.TestKey][]string{
	labs.HsCRP:         {"hscrp", "hs-crp", "c-reactive", "crp", "inflammation"},
	labs.HbA1c:         {"hba1c", "a1c", "hemoglobin", "blood sugar", "diabetes"},
	labs.Triglycerides: {"triglycerides", "tg", "lipids"},
	labs.Cholesterol:   {"cholesterol", "lipids"},
	labs.HDL:           {"hdl", "good cholesterol", "high-density"},
	labs.LDL:           {"ldl", "bad cholesterol", "low-density"},
}

// generalLabWords make a query select every result.
var generalLabWords = []string{"test", "result", "lab", "value"}

var (
	testKeywordPatterns = compileKeywords(testKeywords)
	generalLabPatterns  = wordPatterns(generalLabWords)
)

func compileKeywords(keywords map[labs.TestKey][]string) map[labs.TestKey][]*regexp.Regexp {
	out := make(map[labs.TestKey][]*regexp.Regexp, len(keywords))
	for test, words := range keywords {
		out[test] = wordPatterns(words)
	}
	return out
}

// wordPatterns matches each word or phrase as whole words, allowing a plural "s".
func wordPatterns(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`s?\b`))
	}
	return out
}

// TestResultsBlock lists the results a query asks about: all of them for a general
// lab question, otherwise those whose keywords appear in the query.
func TestResultsBlock(query string, targets []Target) string {
	q := strings.ToLower(query)
	general := mentionsAny(q, generalLabPatterns)

	var b strings.Builder
	for _, t := range targets {
		for _, test := range labs.AllTests {
			res, ok := t.Results[test]
			if !ok {
				continue
			}
			if !general && !mentionsAny(q, testKeywordPatterns[test]) {
				continue
			}
			fmt.Fprintf(&b, "%s: %s %s (Normal range: %s, Status: %s)\n",
				res.Name, formatValue(res.Value), res.Unit, res.NormalRange, res.Status)
		}
	}
	return b.String()
}

// EntitiesBlock renders the entities the query names as indented JSON.
func EntitiesBlock(query string, targets []Target) string {
	merged := map[string][]string{}
	for _, t := range targets {
		for category, items := range t.Entities.Mentions(query) {
			merged[category] = append(merged[category], items...)
		}
	}
	if len(merged) == 0 {
		return ""
	}
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}

func mentionsAny(lowerQuery string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(lowerQuery) {
			return true
		}
	}
	return false
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

// roundScore rounds to two decimals.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
