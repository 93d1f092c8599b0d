// Package entities categorizes medical named entities found in report text and links
// them into a small knowledge graph.
package entities

import (
	"context"
	"sort"
	"strings"
)

// Logger defines the logging interface used by the entity extractors
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Categories produced by the generative extractor.
const (
	CategoryDiseases    = "diseases"
	CategoryMedications = "medications"
	CategoryProcedures  = "procedures"
	CategoryLabTests    = "lab_tests"
	CategoryVitalSigns  = "vital_signs"
	CategoryAnatomy     = "anatomy"
	CategoryOther       = "other_medical_terms"
)

// Sources of a Result.
const (
	SourceLocal      = "local"
	SourceGenerative = "generative"
)

// Extractor produces categorized entities from text.
type Extractor interface {
	Extract(ctx context.Context, text string) (Result, error)
}

// Result maps a category to the distinct entity strings found for it. A non-empty Error
// marks a failed extraction; Categories is then empty.
type Result struct {
	Categories map[string][]string `json:"categories"`
	Source     string              `json:"source,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Populated returns the number of categories holding at least one entity.
func (r Result) Populated() int {
	n := 0
	for _, items := range r.Categories {
		if len(items) > 0 {
			n++
		}
	}
	return n
}

func (r Result) Failed() bool {
	return r.Error != ""
}

// Names returns the sorted category names.
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mentions returns, per category, the entities the query names (case-insensitive).
func (r Result) Mentions(query string) map[string][]string {
	q := strings.ToLower(query)
	out := map[string][]string{}
	for category, items := range r.Categories {
		for _, item := range items {
			if item != "" && strings.Contains(q, strings.ToLower(item)) {
				out[category] = append(out[category], item)
			}
		}
	}
	return out
}

// groupBuilder collects distinct strings per category in first-seen order.
type groupBuilder struct {
	groups map[string][]string
	seen   map[string]map[string]bool
}

func newGroupBuilder() *groupBuilder {
	return &groupBuilder{groups: map[string][]string{}, seen: map[string]map[string]bool{}}
}

func (g *groupBuilder) add(category, item string) {
	if category == "" || item == "" {
		return
	}
	if g.seen[category] == nil {
		g.seen[category] = map[string]bool{}
	}
	if g.seen[category][item] {
		return
	}
	g.seen[category][item] = true
	g.groups[category] = append(g.groups[category], item)
}
