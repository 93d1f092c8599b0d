package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Section names produced by the segmenter.
const (
	SectionPatientInfo    = "patient_info"
	SectionMedicalHistory = "medical_history"
	SectionMedications    = "medications"
	SectionAllergies      = "allergies"
	SectionVitalSigns     = "vital_signs"
	SectionLabResults     = "lab_results"
	SectionAssessment     = "assessment"
	SectionPlan           = "plan"
)

// SectionRule pairs a section name with the heading that opens it.
type SectionRule struct {
	Name    string
	Heading *regexp.Regexp
}

func heading(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + alternatives + `)(?:[ \t]*:|[ \t]*\n)`)
}

// DefaultSectionRules is the ordered heading list used by NewSegmenter.
func DefaultSectionRules() []SectionRule {
	return []SectionRule{
		{SectionPatientInfo, heading(`patient\s+information|patient\s+data|demographics`)},
		{SectionMedicalHistory, heading(`past\s+medical\s+history|medical\s+history|pmh`)},
		{SectionMedications, heading(`current\s+medications|medications|meds`)},
		{SectionAllergies, heading(`drug\s+allergies|allergies`)},
		{SectionVitalSigns, heading(`vital\s+signs|vitals`)},
		{SectionLabResults, heading(`laboratory\s+results|lab\s+results|labs|your\s+test\s+results|test\s+results`)},
		{SectionAssessment, heading(`assessment|impression|diagnosis`)},
		{SectionPlan, heading(`treatment\s+plan|plan|recommendations`)},
	}
}

// defaultLabHints recover a lab-results span from chart-style reports that carry no
// explicit heading.
var defaultLabHints = []*regexp.Regexp{
	regexp.MustCompile(`(?i)YOUR\s+TEST\s+RESULTS`),
	regexp.MustCompile(`(?i)Normal\s+Range.*Borderline.*(?:Low|High)`),
	regexp.MustCompile(`(?i)hs-?CRP\s*\(mg/L\).*HbA1c\s*\(%\)`),
	regexp.MustCompile(`(?i)Triglycerides\s*\(mg/dL\).*Cholesterol\s*\(mg/dL\)`),
}

const (
	labHintLead  = 100
	labHintTrail = 500
)

// Segmenter splits normalized text into named sections by heading matches.
type Segmenter struct {
	rules    []SectionRule
	labHints []*regexp.Regexp
}

func NewSegmenter() *Segmenter {
	return &Segmenter{rules: DefaultSectionRules(), labHints: defaultLabHints}
}

// Segment returns section name to content. A section runs from the end of its heading
// to the nearest later heading of any other section, or to the end of the text.
func (s *Segmenter) Segment(text string) map[string]string {
	sections := make(map[string]string)
	if text == "" {
		return sections
	}

	for i, rule := range s.rules {
		loc := rule.Heading.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start := loc[1]
		end := len(text)
		rest := text[start:]
		for j, other := range s.rules {
			if i == j {
				continue
			}
			if next := other.Heading.FindStringIndex(rest); next != nil && start+next[0] < end {
				end = start + next[0]
			}
		}
		sections[rule.Name] = strings.TrimSpace(text[start:end])
	}

	if _, ok := sections[SectionLabResults]; !ok {
		if span, found := s.recoverLabResults(text); found {
			sections[SectionLabResults] = span
		}
	}
	return sections
}

func (s *Segmenter) recoverLabResults(text string) (string, bool) {
	for _, hint := range s.labHints {
		loc := hint.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start := runeFloor(text, max(0, loc[0]-labHintLead))
		end := runeFloor(text, min(len(text), loc[1]+labHintTrail))
		return strings.TrimSpace(text[start:end]), true
	}
	return "", false
}

// runeFloor moves a byte offset back onto the start of a UTF-8 sequence.
func runeFloor(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
