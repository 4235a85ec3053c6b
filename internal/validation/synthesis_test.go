package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesisValidator(t *testing.T) {
	v, err := ForStage(StageExecutiveSynthesis, Options{})
	require.NoError(t, err)

	decisionOf := func(t *testing.T, raw string) map[string]any {
		t.Helper()
		doc, err := v.Validate(raw)
		require.NoError(t, err)
		decision, ok := doc["decision"].(map[string]any)
		require.True(t, ok, "decision must be written back")
		return decision
	}

	t.Run("well-formed decision is canonicalized in place", func(t *testing.T) {
		d := decisionOf(t, envelope("executive_synthesizer")+`
decision:
  recommendation: "Proceed with caution!"
  fit_score: 58
  rationale: "Fit is borderline."
`)
		assert.Equal(t, RecommendProceedWithCaution, d["recommendation"])
		assert.Equal(t, 58, d["fit_score"])
		assert.Equal(t, "Fit is borderline.", d["rationale"])
	})

	t.Run("decision nested under executive_summary is found", func(t *testing.T) {
		d := decisionOf(t, envelope("executive_synthesizer")+`
executive_summary:
  decision:
    recommendation: approved
    reason: "Strong overlap."
`)
		assert.Equal(t, RecommendProceed, d["recommendation"])
		assert.Equal(t, "Strong overlap.", d["rationale"])
	})

	t.Run("flat document doubles as the decision", func(t *testing.T) {
		d := decisionOf(t, envelope("executive_synthesizer")+`
recommendation: REJECT
fit_score: "72%"
`)
		assert.Equal(t, RecommendPass, d["recommendation"])
		assert.Equal(t, 72, d["fit_score"])
	})

	t.Run("missing decision is inferred from fit score", func(t *testing.T) {
		tests := []struct {
			score string
			want  string
		}{
			{"85", RecommendStrongProceed},
			{"65", RecommendProceed},
			{"55", RecommendProceedWithCaution},
			{"30", RecommendPass},
		}
		for _, tt := range tests {
			d := decisionOf(t, envelope("executive_synthesizer")+"fit_score: "+tt.score+"\n")
			assert.Equal(t, tt.want, d["recommendation"], "score %s", tt.score)
			assert.NotEmpty(t, d["rationale"])
		}
	})

	t.Run("fit_analysis percentage feeds inference", func(t *testing.T) {
		d := decisionOf(t, envelope("executive_synthesizer")+`
fit_analysis:
  fit_percentage: 81
`)
		assert.Equal(t, RecommendStrongProceed, d["recommendation"])
		assert.Equal(t, 81, d["fit_score"])
	})

	t.Run("nothing usable defaults to PROCEED", func(t *testing.T) {
		d := decisionOf(t, envelope("executive_synthesizer")+"summary: \"looks fine\"\n")
		assert.Equal(t, RecommendProceed, d["recommendation"])
	})

	t.Run("unrecognized recommendation defaults to PROCEED", func(t *testing.T) {
		d := decisionOf(t, envelope("executive_synthesizer")+`
decision:
  recommendation: "shrug"
`)
		assert.Equal(t, RecommendProceed, d["recommendation"])
	})

	t.Run("envelope violations still fail", func(t *testing.T) {
		_, err := v.Validate("decision:\n  recommendation: PROCEED\n")
		assert.True(t, IsValidationError(err))
	})
}

func TestCanonicalRecommendation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PROCEED", RecommendProceed},
		{"proceed", RecommendProceed},
		{" Strong  Proceed ", RecommendStrongProceed},
		{"proceed-with-caution", RecommendProceedWithCaution},
		{"APPROVED", RecommendProceed},
		{"do not proceed", RecommendPass},
		{"conditional", RecommendProceedWithCaution},
		{"???", RecommendProceed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalRecommendation(tt.in), "input %q", tt.in)
	}
}
