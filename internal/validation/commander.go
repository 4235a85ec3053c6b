package validation

// commanderValidator enforces the fit-gate contract used by deployments
// that screen a posting before committing to the full pipeline.
type commanderValidator struct{}

const commanderSchema = `{
	"type": "object",
	"required": ["action", "fit_analysis", "next_step"],
	"properties": {
		"action": {"enum": ["proceed", "pass", "discuss"]},
		"fit_analysis": {
			"type": "object",
			"required": ["fit_percentage", "auto_reject_triggered", "red_flags"],
			"properties": {
				"fit_percentage": {"type": "number", "minimum": 0, "maximum": 100},
				"auto_reject_triggered": {"type": "boolean"},
				"red_flags": {"type": "array", "items": {"type": "string"}}
			}
		},
		"next_step": {"type": "string"}
	}
}`

func (v *commanderValidator) Stage() string { return StageCommander }

func (v *commanderValidator) Validate(raw string) (map[string]any, error) {
	doc, err := parseCommon(v.Stage(), raw)
	if err != nil {
		return nil, err
	}

	// Tolerate "85%"-style percentages; range violations still fail.
	if fa, ok := asMap(doc["fit_analysis"]); ok {
		if _, isStr := fa["fit_percentage"].(string); isStr {
			if pct, ok := asFloat(fa["fit_percentage"]); ok {
				fa["fit_percentage"] = pct
			}
		}
	}

	if err := validateSchema(v.Stage(), doc, commanderSchema); err != nil {
		return nil, err
	}
	return doc, nil
}
