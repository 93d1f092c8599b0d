package labs

import (
	"regexp"
	"strconv"
)

// RangeKind tells how a range rule's captures map onto a Range.
type RangeKind int

const (
	// RangeBetween captures min and max.
	RangeBetween RangeKind = iota
	// RangeFromZero captures the max of a range starting at zero.
	RangeFromZero
	// RangeUpper captures an upper threshold.
	RangeUpper
	// RangeLower captures a lower threshold.
	RangeLower
)

// RangeRule extracts an explicit normal range for one test.
type RangeRule struct {
	Test    TestKey
	Kind    RangeKind
	Pattern *regexp.Regexp
}

func rangeRule(test TestKey, kind RangeKind, expr string) RangeRule {
	return RangeRule{Test: test, Kind: kind, Pattern: regexp.MustCompile(`(?i)` + expr)}
}

const (
	below = `(?:<|less than|under)\s*`
	above = `(?:≥|>=|>|greater than|above)\s*`
)

// DefaultRangeRules lists range rules per test, most specific first.
func DefaultRangeRules() []RangeRule {
	rules := []RangeRule{
		rangeRule(HsCRP, RangeUpper, `hs-?CRP[\s\S]{0,100}?normal\s*range[\s\S]{0,30}?`+below+number),
		rangeRule(HsCRP, RangeFromZero, `hs-?CRP[\s\S]{0,100}?\b(?:0\.0|0)\s*-\s*`+number),
		rangeRule(HsCRP, RangeFromZero, `normal[\s\S]{0,50}?\b(?:0\.0|0)\s*-\s*`+number+`[\s\S]{0,50}?hs-?CRP`),

		rangeRule(HbA1c, RangeUpper, `HbA1c[\s\S]{0,100}?normal\s*range[\s\S]{0,30}?`+below+number),
		rangeRule(HbA1c, RangeBetween, `HbA1c[\s\S]{0,100}?\b`+number+`\s*-\s*`+number),
		rangeRule(HbA1c, RangeBetween, `normal[\s\S]{0,50}?\b`+number+`\s*-\s*`+number+`[\s\S]{0,50}?HbA1c`),

		rangeRule(HDL, RangeLower, `HDL[\s\S]{0,100}?normal\s*range[\s\S]{0,30}?`+above+number),
		rangeRule(HDL, RangeLower, `HDL[\s\S]{0,100}?`+above+number),
		rangeRule(HDL, RangeLower, `normal[\s\S]{0,50}?`+above+number+`[\s\S]{0,50}?HDL`),
	}
	for _, label := range []struct {
		test TestKey
		name string
	}{{Triglycerides, "triglycerides"}, {Cholesterol, "cholesterol"}, {LDL, "LDL"}} {
		rules = append(rules,
			rangeRule(label.test, RangeUpper, label.name+`[\s\S]{0,100}?normal\s*range[\s\S]{0,30}?`+below+number),
			rangeRule(label.test, RangeUpper, label.name+`[\s\S]{0,100}?`+below+number),
			rangeRule(label.test, RangeUpper, `normal[\s\S]{0,50}?`+below+number+`[\s\S]{0,50}?`+label.name),
		)
	}
	return rules
}

func (r RangeRule) apply(text string) (Range, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false
	}
	first, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Range{}, false
	}
	switch r.Kind {
	case RangeBetween:
		second, err := strconv.ParseFloat(m[2], 64)
		if err != nil || second < first {
			return Range{}, false
		}
		return Between(first, second), true
	case RangeFromZero:
		return Between(0, first), true
	case RangeUpper:
		return AtMost(first), true
	case RangeLower:
		return AtLeast(first), true
	}
	return Range{}, false
}

func (x *Extractor) extractRanges(text string, ext *Extraction) {
	for _, r := range x.rangeRules {
		if _, done := ext.Ranges[r.Test]; done {
			continue
		}
		if rng, ok := r.apply(text); ok {
			ext.Ranges[r.Test] = rng
		}
	}
	for _, test := range AllTests {
		if _, ok := ext.Ranges[test]; !ok {
			def, _ := Lookup(test)
			ext.Ranges[test] = def.Fallback
		}
	}
}
