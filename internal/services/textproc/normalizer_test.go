package textproc

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"collapses spaces", "Cholesterol    210   mg/dL", "Cholesterol 210 mg/dL"},
		{"collapses blank lines", "Medications:\n\n\n  Aspirin\r\n\r\nPlan:", "Medications:\nAspirin\nPlan:"},
		{"strips control chars", "HbA1c\x00 5.4\x07%", "HbA1c 5.4%"},
		{"punctuation spacing", "Patient stable .Continue meds ,review", "Patient stable. Continue meds, review"},
		{"decimals untouched", "hs-CRP (mg/L) level is 5.0", "hs-CRP (mg/L) level is 5.0"},
		{"OCR l in digits", "LDL 1l0 mg/dL", "LDL 110 mg/dL"},
		{"OCR O in digits", "Triglycerides 1O5", "Triglycerides 105"},
		{"overlapping OCR fixes", "1l1l1", "11111"},
		{"decimal comma", "HbA1c 5,4 %", "HbA1c 5.4 %"},
		{"thousands comma kept", "Platelets 250,000 /uL", "Platelets 250,000 /uL"},
		{"leading decimal", "hs-CRP level is .8 mg/L", "hs-CRP level is .8 mg/L"},
		{"leading decimal after colon", "hs-CRP: .8", "hs-CRP: .8"},
		{"split decimal rejoined", "HbA1c 5 .7 %", "HbA1c 5.7 %"},
		{"letters untouched", "Oral Olive lol", "Oral Olive lol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "YOUR TEST RESULTS\n\nhs-CRP (mg/L) 1.2 →  HbA1c (%) 5,0 .Normal Range: 0-3"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}

func TestNormalize_PreservesNumbers(t *testing.T) {
	tests := []struct {
		in      string
		numbers []string
	}{
		{"hs-CRP level is .8 mg/L", []string{".8"}},
		{"hs-CRP: .8", []string{".8"}},
		{"HbA1c 5 .7 %", []string{"5.7"}},
		{"hs-CRP (mg/L) 1.2 , Normal Range: 0-3", []string{"1.2", "0-3"}},
		{"LDL <100 mg/dL .Triglycerides >=150", []string{"<100", ">=150"}},
		{"Platelets 250,000 /uL and WBC 1,250.5", []string{"250,000", "1,250.5"}},
		{"Cholesterol 210.HDL 53 ,LDL 62", []string{"210", "53", "62"}},
		{"Drawn at 10:30 ; fasting 12 h", []string{"10:30", "12"}},
		{"Glucose 0.95\nHbA1c 5.40 %", []string{"0.95", "5.40"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out := Normalize(tt.in)
			for _, n := range tt.numbers {
				token := regexp.MustCompile(`(^|[^0-9.,])` + regexp.QuoteMeta(n) + `($|[^0-9])`)
				assert.Regexp(t, token, out, "number %q changed in %q", n, out)
			}
		})
	}
}
