package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGapAnalysisValidator(t *testing.T) {
	v, err := ForStage(StageGapAnalysis, Options{})
	require.NoError(t, err)

	valid := envelope("gap_analyzer") + `
requirements:
  - requirement: "5 years Go"
    classification: direct_match
    confidence: 0.9
  - requirement: "Kubernetes"
    classification: gap
    confidence: 0.7
fit_score: 72
gaps:
  - "Kubernetes"
blockers: []
`

	t.Run("valid output passes", func(t *testing.T) {
		doc, err := v.Validate(valid)
		require.NoError(t, err)
		assert.Equal(t, float64(72), doc["fit_score"])
	})

	t.Run("percent-string fit score is coerced", func(t *testing.T) {
		doc, err := v.Validate(envelope("gap_analyzer") + `
requirements: []
fit_score: "85%"
gaps: []
blockers: []
`)
		require.NoError(t, err)
		assert.Equal(t, float64(85), doc["fit_score"])
	})

	t.Run("out-of-range fit score is clamped", func(t *testing.T) {
		doc, err := v.Validate(envelope("gap_analyzer") + `
requirements: []
fit_score: 130
gaps: []
blockers: []
`)
		require.NoError(t, err)
		assert.Equal(t, float64(100), doc["fit_score"])
	})

	t.Run("category-grouped requirements are flattened", func(t *testing.T) {
		doc, err := v.Validate(envelope("gap_analyzer") + `
requirements:
  must_have:
    - requirement: "Go"
      classification: direct_match
  nice_to_have:
    - requirement: "Rust"
      classification: gap
fit_score: 60
gaps: []
blockers: []
`)
		require.NoError(t, err)
		reqs, ok := doc["requirements"].([]any)
		require.True(t, ok)
		require.Len(t, reqs, 2)
		for _, r := range reqs {
			m := r.(map[string]any)
			assert.Contains(t, []any{"must_have", "nice_to_have"}, m["category"])
		}
	})

	t.Run("unknown classification fails", func(t *testing.T) {
		_, err := v.Validate(envelope("gap_analyzer") + `
requirements:
  - requirement: "Go"
    classification: perfect_fit
fit_score: 60
gaps: []
blockers: []
`)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("per-requirement confidence out of range fails", func(t *testing.T) {
		_, err := v.Validate(envelope("gap_analyzer") + `
requirements:
  - requirement: "Go"
    classification: gap
    confidence: 1.4
fit_score: 60
gaps: []
blockers: []
`)
		assert.True(t, IsValidationError(err))
	})

	t.Run("missing requirements fails", func(t *testing.T) {
		_, err := v.Validate(envelope("gap_analyzer") + "fit_score: 60\ngaps: []\nblockers: []\n")
		assert.True(t, IsValidationError(err))
	})

	t.Run("missing gap lists default to empty", func(t *testing.T) {
		doc, err := v.Validate(envelope("gap_analyzer") + "requirements: []\nfit_score: 60\n")
		require.NoError(t, err)
		assert.Equal(t, []any{}, doc["gaps"])
		assert.Equal(t, []any{}, doc["blockers"])
	})
}
