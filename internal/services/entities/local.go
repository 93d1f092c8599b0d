package entities

import (
	"context"
	"strings"
)

// DefaultWindow is the number of characters sent to the classifier per call.
const DefaultWindow = 512

// genericGroups maps generic NER labels onto the categories stored for a report.
var genericGroups = map[string]string{
	"PER":  "person",
	"ORG":  "organization",
	"LOC":  "location",
	"MISC": "medical_term",
}

// LocalExtractor groups the output of a token classifier by category.
type LocalExtractor struct {
	handle *ModelHandle
	window int
}

func NewLocalExtractor(handle *ModelHandle) *LocalExtractor {
	return &LocalExtractor{handle: handle, window: DefaultWindow}
}

func (l *LocalExtractor) Extract(ctx context.Context, text string) (Result, error) {
	model, err := l.handle.Get(ctx)
	if err != nil {
		return Result{}, err
	}

	groups := newGroupBuilder()
	for _, window := range splitWindows(text, l.window) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		tokens, err := model.Classify(ctx, window)
		if err != nil {
			return Result{}, err
		}
		for _, tok := range tokens {
			groups.add(categoryFor(tok.Group), strings.TrimSpace(tok.Word))
		}
	}
	return Result{Categories: groups.groups, Source: SourceLocal}, nil
}

func categoryFor(group string) string {
	if c, ok := genericGroups[group]; ok {
		return c
	}
	return strings.ToLower(group)
}

// splitWindows cuts text into consecutive pieces of at most size runes.
func splitWindows(text string, size int) []string {
	r := []rune(text)
	var out []string
	for i := 0; i < len(r); i += size {
		end := min(i+size, len(r))
		out = append(out, string(r[i:end]))
	}
	return out
}
