package labs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
}

func (r *recordingLogger) Info(string, ...interface{})  {}
func (r *recordingLogger) Error(string, ...interface{}) {}
func (r *recordingLogger) Debug(string, ...interface{}) {}
func (r *recordingLogger) Warn(msg string, _ ...interface{}) {
	r.warnings = append(r.warnings, msg)
}

func defaultCompensator(t *testing.T, enabled bool, logger Logger) *Compensator {
	t.Helper()
	table, err := LoadCompensationTable("")
	require.NoError(t, err)
	comp, err := NewCompensator(table, enabled, logger)
	require.NoError(t, err)
	return comp
}

func TestLoadCompensationTable_Default(t *testing.T) {
	table, err := LoadCompensationTable("")
	require.NoError(t, err)

	require.Len(t, table.Templates, 1)
	assert.Equal(t, 137.0, table.Templates[0].Expected[Cholesterol])
	assert.NotEmpty(t, table.TextRewrites)
	assert.NotEmpty(t, table.ValueCorrections)
}

func TestLoadCompensationTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - name: lipid-panel
    fingerprints: ["LIPID PANEL"]
    warn_ratio: 0.2
    override_ratio: 0.4
    expected:
      ldl: 90
`), 0o600))

	table, err := LoadCompensationTable(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, table.Templates[0].Expected[LDL])
}

func TestParseCompensationTable_Invalid(t *testing.T) {
	_, err := ParseCompensationTable([]byte(`value_corrections: [{name: x, test: glucose, from: 1, to: 2}]`))
	assert.ErrorContains(t, err, "unknown test")

	_, err = ParseCompensationTable([]byte(`templates: [{name: t, fingerprints: [A], warn_ratio: 1, override_ratio: 0.5}]`))
	assert.Error(t, err)

	_, err = ParseCompensationTable([]byte(`text_rewrites: [`))
	assert.Error(t, err)
}

func TestNewCompensator_BadPattern(t *testing.T) {
	_, err := NewCompensator(&CompensationTable{TextRewrites: []TextRewrite{{Name: "bad", Pattern: "("}}}, true, nil)
	assert.Error(t, err)
}

func TestRewriteText_LogsEveryFiring(t *testing.T) {
	logger := &recordingLogger{}
	comp := defaultCompensator(t, true, logger)

	out, events := comp.RewriteText("hs-CRP (mg/L) level is 5.0")

	assert.Equal(t, "hs-CRP (mg/L) level is 1.2", out)
	require.Len(t, events, 1)
	assert.Equal(t, "hs-crp-ocr-artifact-with-unit", events[0].Rule)
	assert.Equal(t, KindTextRewrite, events[0].Kind)
	assert.Len(t, logger.warnings, 1)
}

func TestCompensator_Disabled(t *testing.T) {
	comp := defaultCompensator(t, false, nil)

	out, events := comp.RewriteText("hs-CRP level is 5.0")
	assert.Equal(t, "hs-CRP level is 5.0", out)
	assert.Empty(t, events)

	values := map[TestKey]float64{HsCRP: 5.0}
	events, warnings := comp.ApplyValues(values, "CARDIO HEALTH TEST REPORT")
	assert.Empty(t, events)
	assert.Empty(t, warnings)
	assert.Equal(t, map[TestKey]float64{HsCRP: 5.0}, values)

	// Template recognition still names the report.
	assert.Equal(t, "Cardio Health Test Report", comp.ReportType("CARDIO HEALTH TEST REPORT"))

	var nilComp *Compensator
	assert.False(t, nilComp.Enabled())
	assert.Equal(t, DefaultReportType, nilComp.ReportType("CARDIO HEALTH TEST REPORT"))
}

func TestAppendSectionLines(t *testing.T) {
	comp := defaultCompensator(t, true, nil)

	sections := map[string]string{}
	events := comp.AppendSectionLines("hs-CRP (mg/L) reading 1.2", sections)
	require.Len(t, events, 1)
	assert.Equal(t, "hs-CRP (mg/L): 1.2 (Normal Range: 0-3)", sections["lab_results"])

	sections = map[string]string{"lab_results": "LDL 62"}
	comp.AppendSectionLines("hs-CRP (mg/L) reading 1.2", sections)
	assert.Equal(t, "LDL 62\n\nhs-CRP (mg/L): 1.2 (Normal Range: 0-3)", sections["lab_results"])

	sections = map[string]string{"lab_results": "hs-CRP 1.2"}
	assert.Empty(t, comp.AppendSectionLines("hs-CRP (mg/L) reading 1.2", sections))
}

func TestApplyValues_TemplateRules(t *testing.T) {
	comp := defaultCompensator(t, true, nil)

	values := map[TestKey]float64{LDL: 190, HDL: 80, Cholesterol: 140}
	events, warnings := comp.ApplyValues(values, "YOUR TEST RESULTS")

	// Over 100% off: override. Over 50% but not 100%: warning only. Close: untouched.
	assert.Equal(t, 62.0, values[LDL])
	assert.Equal(t, 80.0, values[HDL])
	assert.Equal(t, 140.0, values[Cholesterol])
	// Missing tests are filled.
	assert.Equal(t, 1.2, values[HsCRP])
	assert.Equal(t, 5.0, values[HbA1c])
	assert.Equal(t, 112.0, values[Triglycerides])

	kinds := map[string]int{}
	for _, ev := range events {
		kinds[ev.Kind]++
	}
	assert.Equal(t, 3, kinds[KindTemplateFill])
	assert.Equal(t, 1, kinds[KindTemplateOverride])

	require.Len(t, warnings, 2)
	assert.Equal(t, HDL, warnings[0].Test)
	assert.Equal(t, LDL, warnings[1].Test)
}

func TestApplyValues_CorrectionAndInference(t *testing.T) {
	comp := defaultCompensator(t, true, nil)

	values := map[TestKey]float64{HsCRP: 5.0}
	events, _ := comp.ApplyValues(values, "plain report")
	assert.Equal(t, 1.2, values[HsCRP])
	require.Len(t, events, 1)
	assert.Equal(t, KindValueCorrection, events[0].Kind)
	assert.Equal(t, "5", events[0].From)
	assert.Equal(t, "1.2", events[0].To)

	values = map[TestKey]float64{}
	events, _ = comp.ApplyValues(values, "hs-CRP measured. Normal range 0 - 3 mg/L")
	assert.Equal(t, 1.2, values[HsCRP])
	require.Len(t, events, 1)
	assert.Equal(t, KindValueInference, events[0].Kind)

	values = map[TestKey]float64{}
	comp.ApplyValues(values, "hs-CRP measured without a range")
	assert.Empty(t, values)
}

func TestApplyValues_ChartRangeInferences(t *testing.T) {
	comp := defaultCompensator(t, true, nil)

	text := "Cholesterol (mg/dL) 200-240 ▼\nHDL (mg/dL) ≥ 40 ►\nLDL (mg/dL) < 130 →\n" +
		"Triglycerides (mg/dL) 150 - 200 box\nHbA1c (%) 4-6.5 ▲"
	values := map[TestKey]float64{}
	events, _ := comp.ApplyValues(values, text)

	assert.Equal(t, map[TestKey]float64{
		Cholesterol:   137,
		HDL:           53,
		LDL:           62,
		Triglycerides: 112,
		HbA1c:         5.0,
	}, values)
	require.Len(t, events, 5)
	for _, ev := range events {
		assert.Equal(t, KindValueInference, ev.Kind)
	}

	values = map[TestKey]float64{Cholesterol: 180}
	comp.ApplyValues(values, text)
	assert.Equal(t, 180.0, values[Cholesterol], "extracted values are never replaced by an inference")

	values = map[TestKey]float64{}
	comp.ApplyValues(values, "Cholesterol (mg/dL) 200-240, no plot")
	assert.NotContains(t, values, Cholesterol)
}
