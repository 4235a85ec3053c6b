package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope renders the common header every stage output carries.
func envelope(agent string) string {
	return fmt.Sprintf("agent: %s\ntimestamp: \"2025-11-02T10:00:00Z\"\nconfidence: 0.9\n", agent)
}

func TestEnvelope(t *testing.T) {
	v, err := ForStage(StageDifferentiation, Options{})
	require.NoError(t, err)

	t.Run("valid envelope passes", func(t *testing.T) {
		doc, err := v.Validate(envelope("differentiator") + "differentiators: []\n")
		require.NoError(t, err)
		assert.Equal(t, "differentiator", doc["agent"])
	})

	t.Run("missing agent fails", func(t *testing.T) {
		_, err := v.Validate("timestamp: \"2025-11-02T10:00:00Z\"\nconfidence: 0.9\n")
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, StageDifferentiation, schemaErr.Stage)
	})

	t.Run("missing timestamp fails", func(t *testing.T) {
		_, err := v.Validate("agent: differentiator\nconfidence: 0.9\n")
		assert.True(t, IsValidationError(err))
	})

	t.Run("confidence out of range fails", func(t *testing.T) {
		_, err := v.Validate("agent: differentiator\ntimestamp: \"2025-11-02T10:00:00Z\"\nconfidence: 1.5\n")
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("non-numeric confidence fails", func(t *testing.T) {
		_, err := v.Validate("agent: differentiator\ntimestamp: \"2025-11-02T10:00:00Z\"\nconfidence: high\n")
		assert.True(t, IsValidationError(err))
	})

	t.Run("unquoted YAML timestamp is normalized", func(t *testing.T) {
		// yaml.v3 decodes unquoted ISO timestamps into time.Time; the
		// envelope check must still see a string.
		doc, err := v.Validate("agent: differentiator\ntimestamp: 2025-11-02T10:00:00Z\nconfidence: 0.9\n")
		require.NoError(t, err)
		assert.Equal(t, "2025-11-02T10:00:00Z", doc["timestamp"])
	})
}

func TestForStage(t *testing.T) {
	for _, stage := range []string{
		StageGapAnalysis, StageInterrogation, StageDifferentiation,
		StageTailoring, StageATSOptimization, StageAudit,
		StageExecutiveSynthesis, StageCommander,
	} {
		v, err := ForStage(stage, Options{})
		require.NoError(t, err, stage)
		assert.Equal(t, stage, v.Stage())
	}

	_, err := ForStage("rendering", Options{})
	assert.Error(t, err)
}
