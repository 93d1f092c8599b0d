package labs

import (
	"regexp"
	"strings"
)

// DefaultReportType is used when no titled template matches.
const DefaultReportType = "Medical Test Report"

var visualMarkers = regexp.MustCompile(`(?i)(?:→|↓|↑|▼|▲|►|arrow)`)

// ReportInfo summarizes the parsed report.
type ReportInfo struct {
	Type              string    `json:"type"`
	HasVisualElements bool      `json:"hasVisualElements"`
	DetectedTests     []TestKey `json:"detectedTests"`
}

// Report is the parse output stored with a document.
type Report struct {
	Results       map[TestKey]TestResult `json:"results"`
	Info          ReportInfo             `json:"reportInfo"`
	Warnings      []ValidationWarning    `json:"warnings,omitempty"`
	Compensations []CompensationEvent    `json:"compensations,omitempty"`
}

// Parser runs extraction, validation and formatting.
type Parser struct {
	extractor *Extractor
	validator *Validator
	comp      *Compensator
}

func NewParser(comp *Compensator, logger Logger) *Parser {
	return &Parser{
		extractor: NewExtractor(),
		validator: NewValidator(comp, logger),
		comp:      comp,
	}
}

func (p *Parser) Parse(text string) *Report {
	ext := p.extractor.Extract(text)
	validated := p.validator.Validate(ext, text)
	results := FormatResults(validated.Values, validated.Ranges)

	detected := make([]TestKey, 0, len(results))
	for _, test := range AllTests {
		if _, ok := results[test]; ok {
			detected = append(detected, test)
		}
	}

	return &Report{
		Results: results,
		Info: ReportInfo{
			Type:              p.comp.ReportType(text),
			HasVisualElements: visualMarkers.MatchString(text) || strings.Contains(text, chartHeading),
			DetectedTests:     detected,
		},
		Warnings:      validated.Warnings,
		Compensations: validated.Compensations,
	}
}

const chartHeading = "YOUR TEST RESULTS"

// Ordered returns the results in display order.
func (r *Report) Ordered() []TestResult {
	out := make([]TestResult, 0, len(r.Results))
	for _, test := range AllTests {
		if res, ok := r.Results[test]; ok {
			out = append(out, res)
		}
	}
	return out
}
