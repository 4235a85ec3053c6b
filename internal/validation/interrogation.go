package validation

import "fmt"

// interrogationValidator enforces the interrogator contract: a batch of
// STAR+ interview questions targeted at identified gaps, plus the notes
// captured once the candidate answers.
type interrogationValidator struct {
	strictCount bool
}

const interrogationSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "theme", "question", "format", "target_gap", "why_asking"],
				"properties": {
					"id": {"type": "string"},
					"theme": {"enum": ["technical", "leadership", "outcomes", "tools"]},
					"question": {"type": "string"},
					"format": {"const": "STAR+"},
					"target_gap": {"type": "string"},
					"why_asking": {"type": "string"}
				}
			}
		},
		"interview_notes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["question_id", "answer", "verified", "source_material"],
				"properties": {
					"question_id": {"type": "string"},
					"answer": {"type": "string"},
					"verified": {"type": "boolean"},
					"source_material": {"type": "boolean"}
				}
			}
		}
	}
}`

const (
	minQuestions = 8
	maxQuestions = 12
)

func (v *interrogationValidator) Stage() string { return StageInterrogation }

func (v *interrogationValidator) Validate(raw string) (map[string]any, error) {
	doc, err := parseCommon(v.Stage(), raw)
	if err != nil {
		return nil, err
	}

	// Question ids occasionally arrive as bare integers; stringify before
	// the schema sees them.
	if questions, ok := asList(doc["questions"]); ok {
		for _, q := range questions {
			if m, ok := asMap(q); ok {
				if id, ok := m["id"]; ok {
					if _, isStr := id.(string); !isStr {
						m["id"] = fmt.Sprintf("%v", id)
					}
				}
			}
		}
	}

	if err := validateSchema(v.Stage(), doc, interrogationSchema); err != nil {
		return nil, err
	}

	if v.strictCount {
		questions, _ := asList(doc["questions"])
		if n := len(questions); n < minQuestions || n > maxQuestions {
			return nil, &SchemaError{
				Stage:   v.Stage(),
				Field:   "questions",
				Message: fmt.Sprintf("expected between %d and %d questions, got %d", minQuestions, maxQuestions, n),
			}
		}
	}

	// Notes are filled in after the review pause; absent means not answered yet.
	if _, ok := doc["interview_notes"]; !ok {
		doc["interview_notes"] = []any{}
	}

	return doc, nil
}
