package labs

import "fmt"

// Logger is the logging surface the labs package needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ValidationWarning is a non-fatal finding about an extracted value.
type ValidationWarning struct {
	Test    TestKey `json:"test"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

func (w ValidationWarning) String() string {
	return fmt.Sprintf("%s=%s: %s", w.Test, formatNumber(w.Value), w.Message)
}

// Validation is the validator output.
type Validation struct {
	Values        map[TestKey]float64
	Ranges        map[TestKey]Range
	Warnings      []ValidationWarning
	Compensations []CompensationEvent
}

// Validator checks values against plausibility bands and hands them to the
// compensation layer.
type Validator struct {
	comp   *Compensator
	logger Logger
}

func NewValidator(comp *Compensator, logger Logger) *Validator {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Validator{comp: comp, logger: logger}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Validate never mutates ext.
func (v *Validator) Validate(ext *Extraction, text string) *Validation {
	out := &Validation{
		Values: make(map[TestKey]float64, len(ext.Values)),
		Ranges: make(map[TestKey]Range, len(ext.Ranges)),
	}
	for k, val := range ext.Values {
		out.Values[k] = val
	}
	for k, r := range ext.Ranges {
		out.Ranges[k] = r
	}

	for _, test := range AllTests {
		val, ok := out.Values[test]
		if !ok {
			continue
		}
		def, _ := Lookup(test)
		if def.Typical.Contains(val) {
			continue
		}
		w := ValidationWarning{
			Test:    test,
			Value:   val,
			Message: "outside typical range " + def.Typical.Display(def.Unit),
		}
		out.Warnings = append(out.Warnings, w)
		v.logger.Warn("Lab value outside typical range", "test", test, "value", val, "typical", def.Typical.Display(def.Unit))
	}

	events, warnings := v.comp.ApplyValues(out.Values, text)
	out.Compensations = events
	out.Warnings = append(out.Warnings, warnings...)
	return out
}
