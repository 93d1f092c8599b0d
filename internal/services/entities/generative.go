package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MaxGenerativeInput is the number of characters of report text sent to the model.
const MaxGenerativeInput = 30000

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// Completer is the generative-model capability.
type Completer interface {
	GetCompletion(ctx context.Context, model, prompt string) (string, error)
}

// GenerativeExtractor asks a language model for a JSON object of categorized entities.
type GenerativeExtractor struct {
	completer Completer
	model     string
	logger    Logger
}

func NewGenerativeExtractor(completer Completer, model string, logger Logger) *GenerativeExtractor {
	if logger == nil {
		logger = nopLogger{}
	}
	return &GenerativeExtractor{completer: completer, model: model, logger: logger}
}

func (g *GenerativeExtractor) Extract(ctx context.Context, text string) (Result, error) {
	reply, err := g.completer.GetCompletion(ctx, g.model, buildEntityPrompt(truncate(text, MaxGenerativeInput)))
	if err != nil {
		return Result{}, err
	}

	raw := jsonObject.FindString(reply)
	if raw == "" {
		return Result{}, &ParseError{Message: MarkerNoEntities}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		g.logger.Warn("entity JSON could not be parsed", "error", err)
		return Result{}, &ParseError{Message: MarkerParseFailed, Cause: err}
	}

	groups := newGroupBuilder()
	for category, value := range decoded {
		items, ok := value.([]interface{})
		if !ok {
			continue
		}
		for _, item := range items {
			if s, ok := item.(string); ok {
				groups.add(category, strings.TrimSpace(s))
			}
		}
	}
	return Result{Categories: groups.groups, Source: SourceGenerative}, nil
}

func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

func buildEntityPrompt(text string) string {
	return fmt.Sprintf(`Extract all medical entities from the following text. Return a JSON object with categories like "diseases", "medications", "procedures", "lab_tests", etc. Each category should contain an array of entities found in the text.

Text: %s

Output format:
{
  "%s": ["disease1", "disease2", ...],
  "%s": ["medication1", "medication2", ...],
  "%s": ["procedure1", "procedure2", ...],
  "%s": ["test1", "test2", ...],
  "%s": ["vital1", "vital2", ...],
  "%s": ["anatomy1", "anatomy2", ...],
  "%s": ["term1", "term2", ...]
}`, text, CategoryDiseases, CategoryMedications, CategoryProcedures, CategoryLabTests,
		CategoryVitalSigns, CategoryAnatomy, CategoryOther)
}
