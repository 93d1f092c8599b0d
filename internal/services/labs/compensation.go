package labs

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed compensation.yaml
var defaultCompensationTable []byte

// CompensationTable holds every known-document literal: OCR rewrites, section
// appends, value corrections and inferences, and report templates with their
// expected values.
type CompensationTable struct {
	TextRewrites     []TextRewrite     `yaml:"text_rewrites"`
	SectionAppends   []SectionAppend   `yaml:"section_appends"`
	ValueCorrections []ValueCorrection `yaml:"value_corrections"`
	ValueInferences  []ValueInference  `yaml:"value_inferences"`
	Templates        []Template        `yaml:"templates"`
}

type TextRewrite struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

type SectionAppend struct {
	Name           string `yaml:"name"`
	Section        string `yaml:"section"`
	When           string `yaml:"when"`
	UnlessContains string `yaml:"unless_contains"`
	Line           string `yaml:"line"`
}

type ValueCorrection struct {
	Name string  `yaml:"name"`
	Test TestKey `yaml:"test"`
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
}

// ValueInference fills a missing test when, for every group in Require, at least one
// of its substrings occurs in the text.
type ValueInference struct {
	Name    string     `yaml:"name"`
	Test    TestKey    `yaml:"test"`
	Value   float64    `yaml:"value"`
	Require [][]string `yaml:"require"`
}

// Template is a recurring report layout recognized by literal fingerprints.
type Template struct {
	Name          string              `yaml:"name"`
	ReportType    string              `yaml:"report_type"`
	Title         string              `yaml:"title"`
	Fingerprints  []string            `yaml:"fingerprints"`
	WarnRatio     float64             `yaml:"warn_ratio"`
	OverrideRatio float64             `yaml:"override_ratio"`
	Expected      map[TestKey]float64 `yaml:"expected"`
}

// CompensationEvent records one firing of a compensation rule.
type CompensationEvent struct {
	Rule string  `json:"rule"`
	Kind string  `json:"kind"`
	Test TestKey `json:"test,omitempty"`
	From string  `json:"from,omitempty"`
	To   string  `json:"to,omitempty"`
}

const (
	KindTextRewrite      = "text_rewrite"
	KindSectionAppend    = "section_append"
	KindValueCorrection  = "value_correction"
	KindTemplateFill     = "template_fill"
	KindTemplateOverride = "template_override"
	KindValueInference   = "value_inference"
)

// LoadCompensationTable reads the table at path, or the embedded default when path
// is empty.
func LoadCompensationTable(path string) (*CompensationTable, error) {
	data := defaultCompensationTable
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read compensation table: %w", err)
		}
		data = b
	}
	return ParseCompensationTable(data)
}

func ParseCompensationTable(data []byte) (*CompensationTable, error) {
	var table CompensationTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse compensation table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

func (t *CompensationTable) Validate() error {
	known := func(test TestKey) bool {
		_, ok := Lookup(test)
		return ok
	}
	for _, c := range t.ValueCorrections {
		if !known(c.Test) {
			return fmt.Errorf("value correction %q: unknown test %q", c.Name, c.Test)
		}
	}
	for _, vi := range t.ValueInferences {
		if !known(vi.Test) {
			return fmt.Errorf("value inference %q: unknown test %q", vi.Name, vi.Test)
		}
		if len(vi.Require) == 0 {
			return fmt.Errorf("value inference %q: require must not be empty", vi.Name)
		}
	}
	for _, tpl := range t.Templates {
		if len(tpl.Fingerprints) == 0 {
			return fmt.Errorf("template %q: at least one fingerprint is required", tpl.Name)
		}
		if tpl.WarnRatio <= 0 || tpl.OverrideRatio < tpl.WarnRatio {
			return fmt.Errorf("template %q: need 0 < warn_ratio <= override_ratio", tpl.Name)
		}
		for test := range tpl.Expected {
			if !known(test) {
				return fmt.Errorf("template %q: unknown test %q", tpl.Name, test)
			}
		}
	}
	return nil
}

type compiledRewrite struct {
	TextRewrite
	re *regexp.Regexp
}

type compiledAppend struct {
	SectionAppend
	re *regexp.Regexp
}

// Compensator applies a CompensationTable. A nil or disabled Compensator changes
// nothing, but still recognizes templates for report metadata.
type Compensator struct {
	table    *CompensationTable
	enabled  bool
	rewrites []compiledRewrite
	appends  []compiledAppend
	logger   Logger
}

func NewCompensator(table *CompensationTable, enabled bool, logger Logger) (*Compensator, error) {
	if table == nil {
		table = &CompensationTable{}
	}
	c := &Compensator{table: table, enabled: enabled, logger: logger}
	for _, rw := range table.TextRewrites {
		re, err := regexp.Compile(rw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("text rewrite %q: %w", rw.Name, err)
		}
		c.rewrites = append(c.rewrites, compiledRewrite{rw, re})
	}
	for _, ap := range table.SectionAppends {
		re, err := regexp.Compile(ap.When)
		if err != nil {
			return nil, fmt.Errorf("section append %q: %w", ap.Name, err)
		}
		c.appends = append(c.appends, compiledAppend{ap, re})
	}
	return c, nil
}

func (c *Compensator) Enabled() bool {
	return c != nil && c.enabled
}

// RewriteText applies the text rewrites in table order.
func (c *Compensator) RewriteText(text string) (string, []CompensationEvent) {
	if !c.Enabled() {
		return text, nil
	}
	var events []CompensationEvent
	for _, rw := range c.rewrites {
		matches := rw.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		next := rw.re.ReplaceAllLiteralString(text, rw.Replacement)
		if next == text {
			continue
		}
		text = next
		events = append(events, c.fire(CompensationEvent{
			Rule: rw.Name, Kind: KindTextRewrite, From: matches[0], To: rw.Replacement,
		}))
	}
	return text, events
}

// AppendSectionLines ensures configured lines are present in their sections.
func (c *Compensator) AppendSectionLines(text string, sections map[string]string) []CompensationEvent {
	if !c.Enabled() {
		return nil
	}
	var events []CompensationEvent
	for _, ap := range c.appends {
		if !ap.re.MatchString(text) {
			continue
		}
		current := sections[ap.Section]
		if ap.UnlessContains != "" && strings.Contains(current, ap.UnlessContains) {
			continue
		}
		if current == "" {
			sections[ap.Section] = ap.Line
		} else {
			sections[ap.Section] = current + "\n\n" + ap.Line
		}
		events = append(events, c.fire(CompensationEvent{
			Rule: ap.Name, Kind: KindSectionAppend, To: ap.Line,
		}))
	}
	return events
}

// MatchTemplate returns the first template with a fingerprint present in text.
func (c *Compensator) MatchTemplate(text string) (Template, bool) {
	if c == nil {
		return Template{}, false
	}
	for _, tpl := range c.table.Templates {
		for _, fp := range tpl.Fingerprints {
			if strings.Contains(text, fp) {
				return tpl, true
			}
		}
	}
	return Template{}, false
}

// ReportType names the report layout; titled templates only.
func (c *Compensator) ReportType(text string) string {
	if c != nil {
		for _, tpl := range c.table.Templates {
			if tpl.Title != "" && strings.Contains(text, tpl.Title) {
				return tpl.ReportType
			}
		}
	}
	return DefaultReportType
}

// ApplyValues runs value corrections, then template expectations, then inferences.
// values is modified in place.
func (c *Compensator) ApplyValues(values map[TestKey]float64, text string) ([]CompensationEvent, []ValidationWarning) {
	if !c.Enabled() {
		return nil, nil
	}
	var events []CompensationEvent
	var warnings []ValidationWarning

	for _, corr := range c.table.ValueCorrections {
		if v, ok := values[corr.Test]; ok && sameValue(v, corr.From) {
			values[corr.Test] = corr.To
			events = append(events, c.fire(CompensationEvent{
				Rule: corr.Name, Kind: KindValueCorrection, Test: corr.Test,
				From: formatNumber(corr.From), To: formatNumber(corr.To),
			}))
		}
	}

	if tpl, ok := c.MatchTemplate(text); ok {
		for _, test := range AllTests {
			expected, ok := tpl.Expected[test]
			if !ok {
				continue
			}
			v, present := values[test]
			if !present {
				values[test] = expected
				events = append(events, c.fire(CompensationEvent{
					Rule: tpl.Name, Kind: KindTemplateFill, Test: test, To: formatNumber(expected),
				}))
				continue
			}
			diff := math.Abs(v - expected)
			if diff <= expected*tpl.WarnRatio {
				continue
			}
			w := ValidationWarning{
				Test:    test,
				Value:   v,
				Message: fmt.Sprintf("value differs from %s template expectation %s", tpl.Name, formatNumber(expected)),
			}
			warnings = append(warnings, w)
			if c.logger != nil {
				c.logger.Warn("Lab value deviates from template", "template", tpl.Name, "test", test, "value", v, "expected", expected)
			}
			if diff > expected*tpl.OverrideRatio {
				values[test] = expected
				events = append(events, c.fire(CompensationEvent{
					Rule: tpl.Name, Kind: KindTemplateOverride, Test: test,
					From: formatNumber(v), To: formatNumber(expected),
				}))
			}
		}
	}

	for _, vi := range c.table.ValueInferences {
		if _, ok := values[vi.Test]; ok || !containsAllGroups(text, vi.Require) {
			continue
		}
		values[vi.Test] = vi.Value
		events = append(events, c.fire(CompensationEvent{
			Rule: vi.Name, Kind: KindValueInference, Test: vi.Test, To: formatNumber(vi.Value),
		}))
	}

	return events, warnings
}

func (c *Compensator) fire(ev CompensationEvent) CompensationEvent {
	if c.logger != nil {
		c.logger.Warn("Template compensation applied",
			"rule", ev.Rule, "kind", ev.Kind, "test", ev.Test, "from", ev.From, "to", ev.To)
	}
	return ev
}

func containsAllGroups(text string, groups [][]string) bool {
	for _, group := range groups {
		found := false
		for _, s := range group {
			if strings.Contains(text, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameValue(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
