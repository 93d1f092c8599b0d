package labs

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

// Phase orders the rule families. Earlier phases win; later phases only fill tests
// that are still empty.
type Phase string

const (
	PhasePrimary Phase = "primary"
	PhaseChart   Phase = "chart"
	PhaseArrow   Phase = "arrow"
)

const (
	number      = `([0-9]+(?:\.[0-9]+)?)`
	proseNumber = `([0-9]*\.?[0-9]+)` // also reads a bare leading decimal (".8")
	indicator   = `(?:box|square|bracket|chart|arrow|→|↓|↑|▼|▲|►)`
	arrowGlyph  = `(?:▼|▲|►|↓|↑|→)`
	lead        = `(?:level|value|result)?s?(?:\s*(?:is|was|of|:))?\s*`

	arrowWindow = 50
)

// vocabulary describes how one test is named in report text.
type vocabulary struct {
	test TestKey
	// names is the prose alternation used by the primary rule.
	names string
	// label is the short chart label.
	label     string
	unitParen string
}

var vocabularies = []vocabulary{
	{HsCRP, `hs-?CRP`, `hs-?CRP`, `\(mg/[lL]\)`},
	{HbA1c, `Hemoglobin\s*A1c|HbA1c|A1c`, `HbA1c`, `\(%\)`},
	{Triglycerides, `triglycerides|TG`, `Triglycerides`, `\(mg/d[lL]\)`},
	{Cholesterol, `total\s*cholesterol|cholesterol`, `Cholesterol`, `\(mg/d[lL]\)`},
	{HDL, `high-density\s*lipoprotein|HDL-C|HDL`, `HDL`, `\(mg/d[lL]\)`},
	{LDL, `low-density\s*lipoprotein|LDL-C|LDL`, `LDL`, `\(mg/d[lL]\)`},
}

// Rule is one ordered extraction pattern. The first capture group is the value.
type Rule struct {
	Name    string
	Test    TestKey
	Phase   Phase
	Pattern *regexp.Regexp
}

func rule(name string, test TestKey, phase Phase, expr string) Rule {
	return Rule{Name: name, Test: test, Phase: phase, Pattern: regexp.MustCompile(`(?i)` + expr)}
}

// DefaultRules returns the primary rules for every test followed by the chart rules
// in resolution order.
func DefaultRules() []Rule {
	var rules []Rule
	for _, v := range vocabularies {
		rules = append(rules, rule(string(v.test)+".prose", v.test, PhasePrimary,
			`\b(?:`+v.names+`)\s*(?:`+v.unitParen+`)?\s*`+lead+proseNumber))
	}
	for _, v := range vocabularies {
		rules = append(rules,
			rule(string(v.test)+".chart-indicator", v.test, PhaseChart,
				`\b`+v.label+`\s*`+v.unitParen+`[\s\S]{0,100}?`+indicator+`[\s\S]{0,30}?\b`+number),
			rule(string(v.test)+".chart-trailing-indicator", v.test, PhaseChart,
				`\b`+v.label+`[\s\S]{0,50}?\b`+number+`[\s\S]{0,20}?`+indicator),
			rule(string(v.test)+".chart-arrow", v.test, PhaseChart,
				`\b`+v.label+`\s*`+v.unitParen+`[\s\S]{0,200}?(?:`+arrowGlyph+`|arrow)[\s\S]{0,50}?\b`+number),
		)
	}
	rules = append(rules,
		rule("hsCRP.bracketed", HsCRP, PhaseChart, `\bhs-?CRP[\s\S]{0,100}?\[`+number+`\]`),
		rule("hsCRP.parenthesized", HsCRP, PhaseChart, `\bhs-?CRP[\s\S]{0,100}?\(`+number+`\)`),
		rule("hsCRP.boxed", HsCRP, PhaseChart, `\bhs-?CRP[\s\S]{0,100}?(?:box|square|bracket|chart)[\s\S]{0,30}?\b`+number),
		rule("hsCRP.unit-before-label", HsCRP, PhaseChart, `\b`+number+`\s*mg/[lL][\s\S]{0,50}?hs-?CRP`),
		rule("hbA1c.unit-before-label", HbA1c, PhaseChart, `\b`+number+`\s*%[\s\S]{0,50}?HbA1c`),
	)
	return rules
}

// Extraction is the raw output of the extractor.
type Extraction struct {
	Values map[TestKey]float64
	Ranges map[TestKey]Range
	// Sources names the rule that produced each value.
	Sources map[TestKey]string
}

func newExtraction() *Extraction {
	return &Extraction{
		Values:  make(map[TestKey]float64),
		Ranges:  make(map[TestKey]Range),
		Sources: make(map[TestKey]string),
	}
}

func (e *Extraction) Has(test TestKey) bool {
	_, ok := e.Values[test]
	return ok
}

// setIfAbsent records v for test unless an earlier rule already did.
func (e *Extraction) setIfAbsent(test TestKey, v float64, source string) bool {
	if e.Has(test) {
		return false
	}
	e.Values[test] = v
	e.Sources[test] = source
	return true
}

// Extractor runs ordered rules over normalized report text.
type Extractor struct {
	rules      []Rule
	rangeRules []RangeRule
	labels     []labelMatcher
	arrows     *regexp.Regexp
}

type labelMatcher struct {
	test    TestKey
	pattern *regexp.Regexp
}

func NewExtractor() *Extractor {
	labels := make([]labelMatcher, 0, len(vocabularies))
	for _, v := range vocabularies {
		labels = append(labels, labelMatcher{v.test, regexp.MustCompile(`(?i)` + v.label)})
	}
	return &Extractor{
		rules:      DefaultRules(),
		rangeRules: DefaultRangeRules(),
		labels:     labels,
		arrows:     regexp.MustCompile(`\b` + number + `\s*` + arrowGlyph),
	}
}

// Extract resolves a value per test (primary, then chart, then arrow adjacency) and a
// normal range per test (explicit text, else the test's fallback range).
func (x *Extractor) Extract(text string) *Extraction {
	ext := newExtraction()

	for _, r := range x.rules {
		if ext.Has(r.Test) {
			continue
		}
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			ext.setIfAbsent(r.Test, v, r.Name)
		}
	}

	x.scanArrows(text, ext)
	x.extractRanges(text, ext)
	return ext
}

// scanArrows attributes every "<number><arrow>" occurrence to the first still-empty
// test whose label appears within the surrounding window.
func (x *Extractor) scanArrows(text string, ext *Extraction) {
	for _, m := range x.arrows.FindAllStringSubmatchIndex(text, -1) {
		v, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		window := runeWindow(text, m[0], arrowWindow)
		for _, l := range x.labels {
			if !ext.Has(l.test) && l.pattern.MatchString(window) {
				ext.setIfAbsent(l.test, v, string(l.test)+".arrow-adjacent")
				break
			}
		}
	}
}

// runeWindow returns up to n runes either side of byte offset at.
func runeWindow(text string, at, n int) string {
	start := at
	for i := 0; i < n && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := at
	for i := 0; i < n && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
