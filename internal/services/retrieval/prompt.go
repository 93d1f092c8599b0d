package retrieval

import (
	"fmt"
	"strings"
	"time"
)

// BuildPrompt assembles the synthesis prompt from the selected chunks, the auxiliary
// test-result and entity blocks and the document metadata.
func BuildPrompt(query string, candidates []Candidate, targets []Target) string {
	contents := make([]string, 0, len(candidates))
	for _, c := range candidates {
		contents = append(contents, c.Content)
	}

	var meta strings.Builder
	for _, t := range targets {
		fmt.Fprintf(&meta, "- Document name: %s\n- Upload date: %s\n", t.FileName, t.UploadedAt.Format(time.RFC1123))
	}

	var b strings.Builder
	b.WriteString("You are a medical assistant helping a patient understand their medical documents. ")
	b.WriteString("Your goal is to provide helpful, accurate information based on the medical document content.\n")
	b.WriteString(FormatPromptSection("Context from the medical document", SanitizeForPrompt(strings.Join(contents, "\n\n"))))
	b.WriteString(FormatPromptSection("Extracted Test Results", TestResultsBlock(query, targets)))
	b.WriteString(FormatPromptSection("Relevant medical entities", EntitiesBlock(query, targets)))
	b.WriteString(FormatPromptSection("Document metadata", meta.String()))
	fmt.Fprintf(&b, "\nUser question: %s\n", SanitizeForPrompt(query))
	b.WriteString(promptInstructions)
	return b.String()
}

const promptInstructions = `
Instructions for formatting your response:
- Use Markdown with headings, bullet points and numbered lists where they help.
- Present test results in a table with the columns Test, Result, Normal Range and Status.
- Use bold text for important values and terms.

Instructions for content:
- Answer STRICTLY from the context above and never invent test values.
- Quote the EXACT values from the document when mentioning test results, with the normal range and whether the result is normal, low or high.
- If the answer is not in the context, say "I don't have enough information about [topic] in the document."
- Explain medical terms in simple language and keep a clear, reassuring tone.
- Suggest follow-up questions the user might want to ask when appropriate.
`
