package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "yaml fence",
			in:   "```yaml\nagent: x\n```",
			want: "agent: x",
		},
		{
			name: "json fence",
			in:   "```json\n{\"agent\": \"x\"}\n```",
			want: `{"agent": "x"}`,
		},
		{
			name: "bare fence",
			in:   "```\nagent: x\n```",
			want: "agent: x",
		},
		{
			name: "no fence",
			in:   "  agent: x  ",
			want: "agent: x",
		},
		{
			name: "fence with surrounding whitespace",
			in:   "\n\n```yaml\nfit_score: 80\n```\n\n",
			want: "fit_score: 80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFence(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("JSON object", func(t *testing.T) {
		doc, err := Parse(`{"agent": "gap_analyzer", "fit_score": 72}`)
		require.NoError(t, err)
		assert.Equal(t, "gap_analyzer", doc["agent"])
	})

	t.Run("YAML object", func(t *testing.T) {
		doc, err := Parse("agent: gap_analyzer\nfit_score: 72\n")
		require.NoError(t, err)
		assert.Equal(t, "gap_analyzer", doc["agent"])
		assert.Equal(t, 72, doc["fit_score"])
	})

	t.Run("fenced YAML", func(t *testing.T) {
		doc, err := Parse("```yaml\nagent: auditor\n```")
		require.NoError(t, err)
		assert.Equal(t, "auditor", doc["agent"])
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := Parse("   ")
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("scalar top level", func(t *testing.T) {
		_, err := Parse(`"just a string"`)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("list top level", func(t *testing.T) {
		_, err := Parse("- a\n- b\n")
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Parse("{unclosed: [")
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.True(t, IsValidationError(err))
	})
}
