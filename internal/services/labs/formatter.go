package labs

// TestResult is the explainable record for one test.
type TestResult struct {
	Key            TestKey `json:"key"`
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	NormalRange    string  `json:"normalRange"`
	Status         Status  `json:"status"`
	Interpretation string  `json:"interpretation"`
	Description    string  `json:"description"`
}

// FormatResult builds the record for one value. Status comes from the test's own
// breakpoints, never from rng.
func FormatResult(test TestKey, value float64, rng Range) (TestResult, bool) {
	def, ok := Lookup(test)
	if !ok {
		return TestResult{}, false
	}
	bucket := def.Classify(value)
	normal := rng.Display(def.Unit)
	if normal == "" {
		normal = def.VisualRange
	}
	return TestResult{
		Key:            test,
		Name:           def.Name,
		Value:          value,
		Unit:           def.Unit,
		NormalRange:    normal,
		Status:         bucket.Status,
		Interpretation: bucket.Interpretation,
		Description:    def.Description,
	}, true
}

// FormatResults formats every known test present in values.
func FormatResults(values map[TestKey]float64, ranges map[TestKey]Range) map[TestKey]TestResult {
	out := make(map[TestKey]TestResult, len(values))
	for test, v := range values {
		if r, ok := FormatResult(test, v, ranges[test]); ok {
			out[test] = r
		}
	}
	return out
}
