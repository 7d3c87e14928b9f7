package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTemplateVars(t *testing.T) {
	vars := GetTemplateVars("Hello {name}, you asked {question} about {name}")
	assert.Equal(t, []string{"name", "question"}, vars)
}

func TestDefaultQueryTemplateVars(t *testing.T) {
	vars := GetTemplateVars(DefaultQueryTemplate)
	assert.ElementsMatch(t, []string{"context", "question"}, vars)
}

func TestFormatString(t *testing.T) {
	out := FormatString("Q: {question} C: {context}", map[string]string{
		"question": "what?",
		"context":  "nothing",
	})
	assert.Equal(t, "Q: what? C: nothing", out)
}

func TestFormatLeavesUnknownPlaceholders(t *testing.T) {
	out := FormatString("{known} and {unknown}", map[string]string{"known": "x"})
	assert.Equal(t, "x and {unknown}", out)
}

func TestBuildQueryPromptLiteralSubstrings(t *testing.T) {
	prompt := BuildQueryPrompt("[a.pdf, p.1]\nsome context", "What is the dose?")

	assert.Contains(t, prompt, "[a.pdf, p.1]\nsome context")
	assert.Contains(t, prompt, "Question: What is the dose?")
	assert.Contains(t, prompt, "Answer using ONLY the context provided")
	assert.Contains(t, prompt, "Never prescribe or recommend dosage changes")
	assert.Contains(t, prompt, Disclaimer)
}

func TestTemplateFormat(t *testing.T) {
	tmpl := NewTemplate("Context: {context}")
	assert.Equal(t, []string{"context"}, tmpl.TemplateVars)

	out := tmpl.Format(map[string]string{"context": "abc"})
	assert.Equal(t, "Context: abc", out)
}

func TestDisclaimerText(t *testing.T) {
	assert.Equal(t, "Disclaimer: Not medical advice. Consult a healthcare professional.", Disclaimer)
}
