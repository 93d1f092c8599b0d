package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_HeadingsBoundSections(t *testing.T) {
	text := "Patient Information: Jane Doe, 54\n" +
		"Medical History: hypertension\n" +
		"Medications:\nLisinopril 10 mg\n" +
		"Lab Results: Cholesterol 210 mg/dL\n" +
		"Assessment: borderline lipids\n" +
		"Plan: diet review"

	sections := NewSegmenter().Segment(text)

	assert.Equal(t, "Jane Doe, 54", sections[SectionPatientInfo])
	assert.Equal(t, "hypertension", sections[SectionMedicalHistory])
	assert.Equal(t, "Lisinopril 10 mg", sections[SectionMedications])
	assert.Equal(t, "Cholesterol 210 mg/dL", sections[SectionLabResults])
	assert.Equal(t, "borderline lipids", sections[SectionAssessment])
	assert.Equal(t, "diet review", sections[SectionPlan])
	assert.NotContains(t, sections, SectionAllergies)
}

func TestSegment_EndsAtNearestLaterHeading(t *testing.T) {
	// Plan appears before Medications in the text; medications ends at the end.
	text := "Plan: follow up in 3 months\nMedications: metformin"
	sections := NewSegmenter().Segment(text)

	assert.Equal(t, "follow up in 3 months", sections[SectionPlan])
	assert.Equal(t, "metformin", sections[SectionMedications])
}

func TestSegment_RecoversChartLabResults(t *testing.T) {
	text := "CARDIO HEALTH TEST REPORT\nhs-CRP (mg/L) 1.2 → HbA1c (%) 5.0 ▼"
	sections := NewSegmenter().Segment(text)

	require.Contains(t, sections, SectionLabResults)
	assert.Contains(t, sections[SectionLabResults], "hs-CRP (mg/L) 1.2")
	assert.Contains(t, sections[SectionLabResults], "CARDIO HEALTH")
}

func TestSegment_NoHeadings(t *testing.T) {
	assert.Empty(t, NewSegmenter().Segment("just some prose without structure"))
	assert.Empty(t, NewSegmenter().Segment(""))
}
