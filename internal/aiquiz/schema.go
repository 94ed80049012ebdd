package aiquiz

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const quizSchemaURL = "schema://quiz-response.json"

var quizSchemaDef = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"text", "options", "correct_answer"},
				"properties": map[string]any{
					"text":         map[string]any{"type": "string", "minLength": 1},
					"code_snippet": map[string]any{"type": []any{"string", "null"}},
					"options": map[string]any{
						"type":     "array",
						"minItems": OptionsPerQuestion,
						"maxItems": OptionsPerQuestion,
						"items":    map[string]any{"type": "string", "minLength": 1},
					},
					"correct_answer": map[string]any{"type": "string", "minLength": 1},
					"explanation":    map[string]any{"type": []any{"string", "null"}},
				},
			},
		},
	},
}

var (
	quizSchemaOnce sync.Once
	quizSchema     *jsonschema.Schema
	quizSchemaErr  error
)

func compiledQuizSchema() (*jsonschema.Schema, error) {
	quizSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(quizSchemaURL, quizSchemaDef); err != nil {
			quizSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		quizSchema, quizSchemaErr = c.Compile(quizSchemaURL)
	})
	return quizSchema, quizSchemaErr
}

// validateQuizDocument checks a decoded JSON document against the quiz schema.
func validateQuizDocument(doc any) error {
	schema, err := compiledQuizSchema()
	if err != nil {
		return fmt.Errorf("compile quiz schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
