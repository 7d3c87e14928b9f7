// Package prompts provides the prompt templates of the answering pipeline.
package prompts

import (
	"regexp"
	"strings"
)

// Disclaimer is the fixed sentence appended to every successful answer and
// embedded in the query template as a trailing instruction.
const Disclaimer = "Disclaimer: Not medical advice. Consult a healthcare professional."

// DefaultQueryTemplate restricts the model to the supplied context,
// forbids dosage recommendations and fabrication, and mandates the
// Summary/Warnings/Source answer shape. The shape is a hint to the model,
// not a machine-parseable contract.
const DefaultQueryTemplate = `You are an FDA drug information assistant. Answer using ONLY the context provided.

Rules:
- If not in context, say "insufficient information"
- Never prescribe or recommend dosage changes
- Never fabricate information
- Keep answers factual and concise

Context:
{context}

Question: {question}

Answer format:
Summary: [2-3 key points from context]
Warnings: [if mentioned in context]
Source: [document name, page]

` + Disclaimer

// templateVarRegex matches {variable} placeholders in templates.
var templateVarRegex = regexp.MustCompile(`\{(\w+)\}`)

// GetTemplateVars extracts variable names from a template string.
func GetTemplateVars(template string) []string {
	matches := templateVarRegex.FindAllStringSubmatch(template, -1)
	vars := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for _, match := range matches {
		if len(match) > 1 && !seen[match[1]] {
			vars = append(vars, match[1])
			seen[match[1]] = true
		}
	}
	return vars
}

// FormatString formats a template string with the given variables.
func FormatString(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// Template is a string-based prompt template with {variable} placeholders.
type Template struct {
	// Template is the raw template string.
	Template string
	// TemplateVars are the variable names extracted from the template.
	TemplateVars []string
}

// NewTemplate creates a new Template.
func NewTemplate(template string) *Template {
	return &Template{
		Template:     template,
		TemplateVars: GetTemplateVars(template),
	}
}

// Format substitutes the given variables into the template. Variable
// values are passed through as-is; context sanitization happens upstream
// and question text must be treated as untrusted free text by the
// inference endpoint.
func (t *Template) Format(vars map[string]string) string {
	return FormatString(t.Template, vars)
}

// BuildQueryPrompt renders the default query template with the given
// context and question. Both appear in the output as literal substrings.
func BuildQueryPrompt(context, question string) string {
	return NewTemplate(DefaultQueryTemplate).Format(map[string]string{
		"context":  context,
		"question": question,
	})
}
