package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/qri-io/jsonschema"
)

// answerSchema constrains the structured object the model must return. A
// response that fails validation is treated as a generation failure.
const answerSchema = `{
	"type": "object",
	"required": ["answer"],
	"properties": {
		"answer": {"type": "string", "minLength": 1}
	}
}`

// promptTemplate renders the user-facing part of the completion request; the
// personalization instruction travels separately as the system directive.
const promptTemplate = `Answer the question using only the numbered passages below.

{{range $i, $p := .Passages}}[{{$i}}] ({{$p.Chapter}} / {{$p.Section}})
{{$p.Text}}

{{end}}Question: {{.Question}}

Respond with a single JSON object: {"answer": "<your answer>"}`

type structuredAnswer struct {
	Answer string `json:"answer"`
}

func newAnswerValidator() (*jsonschema.Schema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(answerSchema), rs); err != nil {
		return nil, fmt.Errorf("compile answer schema: %w", err)
	}

	return rs, nil
}

func renderPrompt(question string, passages []promptPassage) (string, error) {
	tpl, err := template.New("prompt").Parse(promptTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	data := struct {
		Question string
		Passages []promptPassage
	}{Question: question, Passages: passages}
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

type promptPassage struct {
	Chapter string
	Section string
	Text    string
}

// parseStructuredAnswer extracts the JSON object from arbitrary model output,
// validates it against the answer schema, and returns the answer text.
func parseStructuredAnswer(ctx context.Context, validator *jsonschema.Schema, raw string) (string, error) {
	j := extractJSON(raw)
	if j == "" {
		return "", errors.New("no JSON object found in response")
	}

	verrs, err := validator.ValidateBytes(ctx, []byte(j))
	if err != nil {
		return "", fmt.Errorf("schema validate error: %w", err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return "", fmt.Errorf("response does not match schema: %s", sb.String())
	}

	var sa structuredAnswer
	if err := json.Unmarshal([]byte(j), &sa); err != nil {
		return "", fmt.Errorf("json unmarshal: %w", err)
	}

	return sa.Answer, nil
}

// extractJSON returns the substring from the first '{' to the last '}' in the input.
// This is a pragmatic approach to handle model outputs that wrap JSON in text or markdown.
func extractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}
