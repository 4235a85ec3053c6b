package validation

// gapAnalysisValidator enforces the gap analyzer contract. Downstream logic
// (interrogation targeting, fit gating) reads this output structurally, so
// it is a strict stage, with normalization where the drift is benign:
// percent-string or out-of-range fit scores are clamped, and requirement
// lists nested under category keys are flattened.
type gapAnalysisValidator struct{}

const gapAnalysisSchema = `{
	"type": "object",
	"required": ["requirements", "fit_score", "gaps", "blockers"],
	"properties": {
		"requirements": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["classification"],
				"properties": {
					"classification": {
						"enum": ["direct_match", "adjacent_experience", "gap", "blocker"]
					},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		},
		"fit_score": {"type": "number", "minimum": 0, "maximum": 100},
		"gaps": {"type": "array"},
		"blockers": {"type": "array"}
	}
}`

func (v *gapAnalysisValidator) Stage() string { return StageGapAnalysis }

func (v *gapAnalysisValidator) Validate(raw string) (map[string]any, error) {
	doc, err := parseCommon(v.Stage(), raw)
	if err != nil {
		return nil, err
	}

	normalizeGapAnalysis(doc)

	if err := validateSchema(v.Stage(), doc, gapAnalysisSchema); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalizeGapAnalysis applies tolerant fixups before schema validation.
func normalizeGapAnalysis(doc map[string]any) {
	// Models sometimes emit requirements grouped by category
	// ({"must_have": [...], "nice_to_have": [...]}) instead of a flat list.
	if grouped, ok := asMap(doc["requirements"]); ok {
		flat := make([]any, 0)
		for category, entries := range grouped {
			list, ok := asList(entries)
			if !ok {
				continue
			}
			for _, entry := range list {
				if m, ok := asMap(entry); ok {
					if _, has := m["category"]; !has {
						m["category"] = category
					}
					flat = append(flat, m)
				}
			}
		}
		doc["requirements"] = flat
	}

	// fit_score arrives as "85", "85%" or occasionally out of range.
	if score, ok := asFloat(doc["fit_score"]); ok {
		doc["fit_score"] = clamp(score, 0, 100)
	}

	// Missing gap/blocker lists mean "none found".
	if _, ok := doc["gaps"]; !ok {
		doc["gaps"] = []any{}
	}
	if _, ok := doc["blockers"]; !ok {
		doc["blockers"] = []any{}
	}
}
