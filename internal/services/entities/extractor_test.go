package entities

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticClassifier tags "Aspirin" as MISC and "Mayo" as ORG wherever they occur.
type staticClassifier struct{}

func (staticClassifier) Classify(_ context.Context, text string) ([]Token, error) {
	var out []Token
	if strings.Contains(text, "Aspirin") {
		out = append(out, Token{Group: "MISC", Word: "Aspirin"})
	}
	if strings.Contains(text, "Mayo") {
		out = append(out, Token{Group: "ORG", Word: "Mayo"})
	}
	if strings.Contains(text, "Dr Smith") {
		out = append(out, Token{Group: "PER", Word: " Dr Smith "})
	}
	return out, nil
}

type countingClassifier struct{ calls []int }

func (c *countingClassifier) Classify(_ context.Context, text string) ([]Token, error) {
	c.calls = append(c.calls, len([]rune(text)))
	return nil, nil
}

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) GetCompletion(_ context.Context, _ string, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

type fixedExtractor struct {
	res Result
	err error
}

func (f fixedExtractor) Extract(context.Context, string) (Result, error) { return f.res, f.err }

func staticHandle() *ModelHandle {
	return NewModelHandle(func(context.Context) (TokenClassifier, error) { return staticClassifier{}, nil }, nil)
}

func TestLocalExtractor_GroupsAndMaps(t *testing.T) {
	res, err := NewLocalExtractor(staticHandle()).Extract(context.Background(), "Aspirin daily. Seen at Mayo by Dr Smith. Aspirin again.")
	require.NoError(t, err)

	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, []string{"Aspirin"}, res.Categories["medical_term"])
	assert.Equal(t, []string{"Mayo"}, res.Categories["organization"])
	assert.Equal(t, []string{"Dr Smith"}, res.Categories["person"])
	assert.Equal(t, 3, res.Populated())
}

func TestLocalExtractor_Windows(t *testing.T) {
	c := &countingClassifier{}
	handle := NewModelHandle(func(context.Context) (TokenClassifier, error) { return c, nil }, nil)

	_, err := NewLocalExtractor(handle).Extract(context.Background(), strings.Repeat("é", 1100))
	require.NoError(t, err)
	assert.Equal(t, []int{512, 512, 76}, c.calls)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "person", categoryFor("PER"))
	assert.Equal(t, "medical_term", categoryFor("MISC"))
	assert.Equal(t, "disease", categoryFor("DISEASE"))
}

func TestGenerativeExtractor_ParsesEmbeddedJSON(t *testing.T) {
	comp := &fakeCompleter{reply: "Here you go:\n```json\n{\"diseases\": [\"Hypertension\", \"Hypertension\"], \"medications\": [\"Lisinopril\"], \"notes\": \"n/a\"}\n```"}
	res, err := NewGenerativeExtractor(comp, "m", nil).Extract(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, SourceGenerative, res.Source)
	assert.Equal(t, []string{"Hypertension"}, res.Categories[CategoryDiseases])
	assert.Equal(t, []string{"Lisinopril"}, res.Categories[CategoryMedications])
	assert.NotContains(t, res.Categories, "notes")
	assert.Contains(t, comp.prompt, `"lab_tests"`)
}

func TestGenerativeExtractor_ParseFailures(t *testing.T) {
	_, err := NewGenerativeExtractor(&fakeCompleter{reply: "no structured output"}, "m", nil).Extract(context.Background(), "t")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, MarkerNoEntities, pe.Message)

	_, err = NewGenerativeExtractor(&fakeCompleter{reply: "{diseases: [oops}"}, "m", nil).Extract(context.Background(), "t")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, MarkerParseFailed, pe.Message)
}

func TestGenerativeExtractor_Truncates(t *testing.T) {
	comp := &fakeCompleter{reply: "{}"}
	_, err := NewGenerativeExtractor(comp, "m", nil).Extract(context.Background(), strings.Repeat("a", MaxGenerativeInput+10))
	require.NoError(t, err)
	assert.Contains(t, comp.prompt, strings.Repeat("a", MaxGenerativeInput)+"...")
	assert.NotContains(t, comp.prompt, strings.Repeat("a", MaxGenerativeInput+1))
}

func TestService_FallbackTiers(t *testing.T) {
	rich := Result{Source: SourceLocal, Categories: map[string][]string{"person": {"A"}, "location": {"B"}}}
	sparse := Result{Source: SourceLocal, Categories: map[string][]string{"person": {"A"}}}
	gen := Result{Source: SourceGenerative, Categories: map[string][]string{CategoryDiseases: {"Diabetes"}}}

	tests := []struct {
		name   string
		local  Extractor
		gen    Extractor
		source string
		marker string
	}{
		{"local sufficient", fixedExtractor{res: rich}, fixedExtractor{res: gen}, SourceLocal, ""},
		{"local sparse", fixedExtractor{res: sparse}, fixedExtractor{res: gen}, SourceGenerative, ""},
		{"local unavailable", fixedExtractor{err: errors.New("load failed")}, fixedExtractor{res: gen}, SourceGenerative, ""},
		{"generative parse error", nil, fixedExtractor{err: &ParseError{Message: MarkerParseFailed}}, SourceGenerative, MarkerParseFailed},
		{"generative call error", nil, fixedExtractor{err: errors.New("timeout")}, SourceGenerative, MarkerExtractFailed},
		{"nothing configured", nil, nil, "", MarkerExtractFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewService(tt.local, tt.gen, nil).Extract(context.Background(), "Patient text")
			assert.Equal(t, tt.source, res.Source)
			assert.Equal(t, tt.marker, res.Error)
			if tt.marker != "" {
				assert.True(t, res.Failed())
				assert.Empty(t, res.Categories)
			}
		})
	}
}

func TestService_EmptyText(t *testing.T) {
	res := NewService(nil, nil, nil).Extract(context.Background(), "  ")
	assert.False(t, res.Failed())
	assert.Zero(t, res.Populated())
}

func TestResult_Mentions(t *testing.T) {
	r := Result{Categories: map[string][]string{
		CategoryDiseases:    {"Hypertension", "Asthma"},
		CategoryMedications: {"Lisinopril"},
	}}
	got := r.Mentions("Is my HYPERTENSION treated by lisinopril?")
	assert.Equal(t, map[string][]string{
		CategoryDiseases:    {"Hypertension"},
		CategoryMedications: {"Lisinopril"},
	}, got)
}
