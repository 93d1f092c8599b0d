// Package labs extracts lab values from normalized report text, validates them
// against plausibility bands and formats them into explainable results.
package labs

import "math"

// TestKey identifies a supported lab test.
type TestKey string

const (
	HsCRP         TestKey = "hsCRP"
	HbA1c         TestKey = "hbA1c"
	Triglycerides TestKey = "triglycerides"
	Cholesterol   TestKey = "cholesterol"
	HDL           TestKey = "hdl"
	LDL           TestKey = "ldl"
)

// AllTests lists the supported tests in extraction and display order.
var AllTests = []TestKey{HsCRP, HbA1c, Triglycerides, Cholesterol, HDL, LDL}

// Status is the classification bucket of a value.
type Status string

const (
	StatusNormal      Status = "normal"
	StatusBorderline  Status = "borderline"
	StatusHigh        Status = "high"
	StatusVeryHigh    Status = "very high"
	StatusLow         Status = "low"
	StatusOptimal     Status = "optimal"
	StatusNearOptimal Status = "near optimal"
)

// Bucket is one status band. A value belongs to the first bucket whose Below bound
// exceeds it.
type Bucket struct {
	Below          float64
	Status         Status
	Interpretation string
}

// Definition holds the static facts about one test.
type Definition struct {
	Key         TestKey
	Name        string
	Unit        string
	Description string
	VisualRange string
	// Fallback is used when the text carries no explicit normal range.
	Fallback Range
	// Typical is the plausibility band; values outside it raise a warning.
	Typical Range
	Buckets []Bucket
}

var inf = math.Inf(1)

var definitions = map[TestKey]Definition{
	HsCRP: {
		Key:         HsCRP,
		Name:        "hs-CRP (High-sensitivity C-reactive protein)",
		Unit:        "mg/L",
		Description: "Measures inflammation in the body. Elevated levels may indicate inflammation from conditions like heart disease, infections, or autoimmune disorders.",
		VisualRange: "0-3 mg/L",
		Fallback:    Between(0, 3),
		Typical:     Between(0, 10),
		Buckets: []Bucket{
			{1, StatusNormal, "Low risk of cardiovascular disease"},
			{3, StatusBorderline, "Moderate risk of cardiovascular disease"},
			{inf, StatusHigh, "High risk of cardiovascular disease"},
		},
	},
	HbA1c: {
		Key:         HbA1c,
		Name:        "HbA1c (Hemoglobin A1c)",
		Unit:        "%",
		Description: "Reflects average blood glucose levels over the past 2-3 months. Used to diagnose and monitor diabetes.",
		VisualRange: "4-6.5%",
		Fallback:    Between(4, 6.5),
		Typical:     Between(4, 15),
		Buckets: []Bucket{
			{5.7, StatusNormal, "Normal blood glucose levels"},
			{6.5, StatusBorderline, "Prediabetic range"},
			{inf, StatusHigh, "Diabetic range"},
		},
	},
	Triglycerides: {
		Key:         Triglycerides,
		Name:        "Triglycerides",
		Unit:        "mg/dL",
		Description: "A type of fat in the blood. High levels may increase risk of heart disease.",
		VisualRange: "<150 mg/dL",
		Fallback:    Between(0, 150),
		Typical:     Between(40, 500),
		Buckets: []Bucket{
			{150, StatusNormal, "Normal triglyceride levels"},
			{200, StatusBorderline, "Borderline high triglyceride levels"},
			{500, StatusHigh, "High triglyceride levels"},
			{inf, StatusVeryHigh, "Very high triglyceride levels"},
		},
	},
	Cholesterol: {
		Key:         Cholesterol,
		Name:        "Total Cholesterol",
		Unit:        "mg/dL",
		Description: "Measures all cholesterol in the blood. High levels may increase risk of heart disease.",
		VisualRange: "<200 mg/dL",
		Fallback:    Between(0, 200),
		Typical:     Between(100, 300),
		Buckets: []Bucket{
			{200, StatusNormal, "Normal cholesterol levels"},
			{240, StatusBorderline, "Borderline high cholesterol levels"},
			{inf, StatusHigh, "High cholesterol levels"},
		},
	},
	HDL: {
		Key:         HDL,
		Name:        "HDL (High-density lipoprotein)",
		Unit:        "mg/dL",
		Description: "\"Good\" cholesterol that helps remove other forms of cholesterol from the bloodstream.",
		VisualRange: "≥40 mg/dL",
		Fallback:    AtLeast(40),
		Typical:     Between(20, 100),
		Buckets: []Bucket{
			{40, StatusLow, "Low HDL levels (increased cardiovascular risk)"},
			{60, StatusNormal, "Normal HDL levels"},
			{inf, StatusOptimal, "Optimal HDL levels (protective against heart disease)"},
		},
	},
	LDL: {
		Key:         LDL,
		Name:        "LDL (Low-density lipoprotein)",
		Unit:        "mg/dL",
		Description: "\"Bad\" cholesterol that can build up in artery walls and increase risk of heart disease.",
		VisualRange: "<130 mg/dL",
		Fallback:    Between(0, 130),
		Typical:     Between(40, 200),
		Buckets: []Bucket{
			{100, StatusOptimal, "Optimal LDL levels"},
			{130, StatusNearOptimal, "Near optimal LDL levels"},
			{160, StatusBorderline, "Borderline high LDL levels"},
			{190, StatusHigh, "High LDL levels"},
			{inf, StatusVeryHigh, "Very high LDL levels"},
		},
	},
}

// Lookup returns the definition of key.
func Lookup(key TestKey) (Definition, bool) {
	d, ok := definitions[key]
	return d, ok
}

// Classify returns the status bucket for value.
func (d Definition) Classify(value float64) Bucket {
	for _, b := range d.Buckets {
		if value < b.Below {
			return b
		}
	}
	return d.Buckets[len(d.Buckets)-1]
}
