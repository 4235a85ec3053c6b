package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmatsuda/application-tailor/internal/validation"
)

// scriptedInvoker returns canned responses (or errors) in order.
type scriptedInvoker struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedInvoker) Invoke(_ context.Context, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i)
}

var testDef = Definition{
	Stage:     validation.StageDifferentiation,
	Role:      "test role",
	Required:  []string{"job_description", "resume"},
	PromptKey: "differentiation",
}

func validInput() map[string]any {
	return map[string]any{
		"job_description": "Senior Go engineer",
		"resume":          "Ten years of Go",
	}
}

const validResponse = "agent: differentiator\ntimestamp: \"2025-11-02T10:00:00Z\"\nconfidence: 0.9\ndifferentiators: []\n"

func testValidator(t *testing.T) validation.Validator {
	t.Helper()
	v, err := validation.ForStage(validation.StageDifferentiation, validation.Options{})
	require.NoError(t, err)
	return v
}

func TestAgentExecute(t *testing.T) {
	t.Run("missing context key fails without invoking", func(t *testing.T) {
		invoker := &scriptedInvoker{}
		agent := New(testDef, invoker, testValidator(t), 0)

		_, err := agent.Execute(context.Background(), map[string]any{"resume": "x"})
		var missing *MissingContextError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, validation.StageDifferentiation, missing.Stage)
		assert.Equal(t, "job_description", missing.Key)
		assert.Zero(t, invoker.calls)
	})

	t.Run("valid response on first attempt", func(t *testing.T) {
		invoker := &scriptedInvoker{responses: []string{validResponse}}
		agent := New(testDef, invoker, testValidator(t), 1)

		out, err := agent.Execute(context.Background(), validInput())
		require.NoError(t, err)
		assert.Equal(t, "differentiator", out["agent"])
		assert.Equal(t, 1, invoker.calls)
	})

	t.Run("invocation error is retried", func(t *testing.T) {
		invoker := &scriptedInvoker{
			errs:      []error{fmt.Errorf("rate limited"), nil},
			responses: []string{"", validResponse},
		}
		agent := New(testDef, invoker, testValidator(t), 1)

		out, err := agent.Execute(context.Background(), validInput())
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Equal(t, 2, invoker.calls)
	})

	t.Run("validation failure is retried", func(t *testing.T) {
		invoker := &scriptedInvoker{responses: []string{"not: a valid envelope", validResponse}}
		agent := New(testDef, invoker, testValidator(t), 1)

		out, err := agent.Execute(context.Background(), validInput())
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Equal(t, 2, invoker.calls)
	})

	t.Run("exhausted retries wrap the last error", func(t *testing.T) {
		invoker := &scriptedInvoker{responses: []string{"bad", "bad", "bad"}}
		agent := New(testDef, invoker, testValidator(t), 2)

		_, err := agent.Execute(context.Background(), validInput())
		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, 3, execErr.Attempts)
		assert.Equal(t, 3, invoker.calls)
		assert.True(t, validation.IsValidationError(execErr.Err))
	})

	t.Run("negative retries selects the default", func(t *testing.T) {
		invoker := &scriptedInvoker{responses: []string{"bad", "bad"}}
		agent := New(testDef, invoker, testValidator(t), -1)

		_, err := agent.Execute(context.Background(), validInput())
		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, DefaultMaxRetries+1, execErr.Attempts)
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Definitions[validation.StageGapAnalysis], map[string]any{
		"job_description": "Build pipelines",
		"resume":          "Built pipelines",
	})
	assert.Contains(t, prompt, "Build pipelines")
	assert.Contains(t, prompt, "Built pipelines")
	assert.NotContains(t, prompt, "{{.JobDescription}}")
	assert.NotContains(t, prompt, "{{.Resume}}")
}

func TestBuildPromptSerializesStructuredContext(t *testing.T) {
	prompt := BuildPrompt(Definitions[validation.StageInterrogation], map[string]any{
		"job_description": "jd",
		"resume":          "r",
		"gaps":            []any{map[string]any{"requirement": "Kubernetes"}},
	})
	assert.Contains(t, prompt, `"requirement": "Kubernetes"`)
}

func TestPlaceholderName(t *testing.T) {
	assert.Equal(t, "JobDescription", placeholderName("job_description"))
	assert.Equal(t, "Resume", placeholderName("resume"))
	assert.Equal(t, "ATSOptimization", placeholderName("ats_optimization"))
	assert.Equal(t, "TailoredResume", placeholderName("tailored_resume"))
}

func TestDefinitionsCoverAllStages(t *testing.T) {
	for _, stage := range []string{
		validation.StageGapAnalysis, validation.StageInterrogation,
		validation.StageDifferentiation, validation.StageTailoring,
		validation.StageATSOptimization, validation.StageAudit,
		validation.StageExecutiveSynthesis, validation.StageCommander,
	} {
		def, ok := Definitions[stage]
		require.True(t, ok, stage)
		assert.Equal(t, stage, def.Stage)
		assert.NotEmpty(t, def.Role)
		assert.NotEmpty(t, def.Required)
		assert.NotEmpty(t, def.PromptKey)
	}
}
