package labs

import (
	"fmt"
	"strconv"
)

// Range is a normal or plausibility range. Either bound may be open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func Between(lo, hi float64) Range { return Range{Min: &lo, Max: &hi} }
func AtLeast(lo float64) Range     { return Range{Min: &lo} }
func AtMost(hi float64) Range      { return Range{Max: &hi} }

func (r Range) IsZero() bool { return r.Min == nil && r.Max == nil }

// Contains reports whether v lies within the closed range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Display renders the range with unit, e.g. "0-3 mg/L", "≥ 40 mg/dL", "≤ 150 mg/dL".
func (r Range) Display(unit string) string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%s-%s %s", formatNumber(*r.Min), formatNumber(*r.Max), unit)
	case r.Min != nil:
		return fmt.Sprintf("≥ %s %s", formatNumber(*r.Min), unit)
	case r.Max != nil:
		return fmt.Sprintf("≤ %s %s", formatNumber(*r.Max), unit)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
