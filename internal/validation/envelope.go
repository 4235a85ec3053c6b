package validation

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema is the contract every stage output must satisfy before any
// stage-specific checks run.
const envelopeSchema = `{
	"type": "object",
	"required": ["agent", "timestamp", "confidence"],
	"properties": {
		"agent": {"type": "string"},
		"timestamp": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

// checkEnvelope validates the common envelope fields (agent, timestamp,
// confidence) shared by all stages.
func checkEnvelope(stage string, doc map[string]any) error {
	normalizeTimestamp(doc)
	return validateSchema(stage, doc, envelopeSchema)
}

// validateSchema validates a parsed document against a JSON Schema string
// and converts the first failure into a SchemaError.
func validateSchema(stage string, doc map[string]any, schema string) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return &SchemaError{Stage: stage, Message: "output is not JSON-representable: " + err.Error()}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return &SchemaError{Stage: stage, Message: "schema validation failed: " + err.Error()}
	}
	if result.Valid() {
		return nil
	}

	desc := result.Errors()[0]
	field := desc.Field()
	if field == "" {
		field = "(root)"
	}
	return &SchemaError{Stage: stage, Field: field, Message: desc.Description()}
}
