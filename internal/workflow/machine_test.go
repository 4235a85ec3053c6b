package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmatsuda/application-tailor/internal/validation"
)

// stubExec counts calls and delegates to fn.
type stubExec struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, in map[string]any) (map[string]any, error)
}

func (s *stubExec) Execute(ctx context.Context, in map[string]any) (map[string]any, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(ctx, in)
}

func (s *stubExec) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func approvedAudit() map[string]any {
	return map[string]any{
		"approval": map[string]any{"approved": true, "reason": "clean"},
	}
}

func rejectedAudit() map[string]any {
	return map[string]any{
		"approval": map[string]any{"approved": false, "reason": "fabricated claim"},
	}
}

func static(out map[string]any) *stubExec {
	return &stubExec{fn: func(context.Context, map[string]any) (map[string]any, error) {
		return out, nil
	}}
}

// happyExecutors returns a full executor set that completes the pipeline.
// The interrogator emits source-material notes so no second pause occurs.
func happyExecutors() map[string]StageExecutor {
	return map[string]StageExecutor{
		validation.StageGapAnalysis: static(map[string]any{
			"requirements": []any{
				map[string]any{"requirement": "Kubernetes", "classification": "gap"},
			},
			"fit_score": float64(70),
			"gaps":      []any{"Kubernetes"},
			"blockers":  []any{},
		}),
		validation.StageInterrogation: static(map[string]any{
			"questions": []any{
				map[string]any{"id": "q1", "question": "Describe your Kubernetes experience."},
			},
			"interview_notes": []any{
				map[string]any{"question_id": "q1", "answer": "Ran EKS for two years.", "verified": false, "source_material": true},
			},
		}),
		validation.StageDifferentiation: static(map[string]any{
			"differentiators": []any{"Cost optimization track record"},
		}),
		validation.StageTailoring: static(map[string]any{
			"tailored_resume": "TAILORED RESUME",
			"cover_letter":    "COVER LETTER",
		}),
		validation.StageATSOptimization: static(map[string]any{
			"optimized_resume": "OPTIMIZED RESUME",
		}),
		validation.StageAudit: static(approvedAudit()),
		validation.StageExecutiveSynthesis: static(map[string]any{
			"decision": map[string]any{"recommendation": "PROCEED", "fit_score": 70},
		}),
	}
}

func inputs() Inputs {
	return Inputs{JobDescription: "JD", Resume: "RESUME"}
}

// recorder captures hook emissions for assertions.
type recorder struct {
	mu     sync.Mutex
	states []State
	stages []string
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnState: func(s State) {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
		},
		OnStageComplete: func(stage string, _ map[string]any) {
			r.mu.Lock()
			r.stages = append(r.stages, stage)
			r.mu.Unlock()
		},
	}
}

func TestRunHappyPath(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(happyExecutors())

	outcome := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, PipelineContext{}, rec.hooks())

	require.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.Paused)
	assert.Equal(t, "OPTIMIZED RESUME", outcome.Resume)
	assert.Equal(t, "COVER LETTER", outcome.CoverLetter)

	require.NotNil(t, outcome.Audit)
	assert.Equal(t, AuditApproved, outcome.Audit.FinalStatus)
	assert.Equal(t, 0, outcome.Audit.RetryCount)
	assert.False(t, outcome.Audit.AuditFailed)

	require.NotNil(t, outcome.ExecutiveBrief)

	assert.Equal(t, []State{
		StateGapAnalysis, StateInterrogation, StateDifferentiation,
		StateTailoring, StateATSOptimization, StateAuditing,
		StateExecutiveSynthesis, StateCompleted,
	}, rec.states)
	assert.Equal(t, []string{
		validation.StageGapAnalysis, validation.StageInterrogation,
		validation.StageDifferentiation, validation.StageTailoring,
		validation.StageATSOptimization, validation.StageExecutiveSynthesis,
	}, rec.stages)
}

func TestRunPausesForGapReview(t *testing.T) {
	execs := happyExecutors()
	m := NewMachine(execs)
	rec := &recorder{}
	pctx := PipelineContext{}

	outcome := m.Run(context.Background(), inputs(), Approvals{}, pctx, rec.hooks())

	require.Equal(t, StateGapAnalysisReview, outcome.State)
	assert.True(t, outcome.Paused)
	assert.True(t, pctx.Has(validation.StageGapAnalysis))
	assert.False(t, pctx.Has(validation.StageInterrogation))
	assert.Equal(t, []State{StateGapAnalysis, StateGapAnalysisReview}, rec.states)
}

func TestRunResumeIsIdempotent(t *testing.T) {
	execs := happyExecutors()
	gap := execs[validation.StageGapAnalysis].(*stubExec)
	m := NewMachine(execs)
	pctx := PipelineContext{}

	first := m.Run(context.Background(), inputs(), Approvals{}, pctx, Hooks{})
	require.True(t, first.Paused)
	require.Equal(t, 1, gap.callCount())

	rec := &recorder{}
	second := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, pctx, rec.hooks())
	require.Equal(t, StateCompleted, second.State)

	// The cached gap analysis is reused: no re-invocation, no state
	// regression through GAP_ANALYSIS on resume.
	assert.Equal(t, 1, gap.callCount())
	assert.NotContains(t, rec.states, StateGapAnalysis)
	assert.Equal(t, StateInterrogation, rec.states[0])
}

func TestRunPausesForInterviewAnswers(t *testing.T) {
	execs := happyExecutors()
	execs[validation.StageInterrogation] = static(map[string]any{
		"questions": []any{
			map[string]any{"id": "q1", "question": "Describe your Kubernetes experience."},
			map[string]any{"id": "q2", "question": "What did you ship last year?"},
		},
		"interview_notes": []any{},
	})
	diff := execs[validation.StageDifferentiation].(*stubExec)
	m := NewMachine(execs)
	pctx := PipelineContext{}

	outcome := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, pctx, Hooks{})
	require.Equal(t, StateInterrogationReview, outcome.State)
	assert.True(t, outcome.Paused)
	assert.Zero(t, diff.callCount())

	// Resume with answers merges them into interview notes.
	answers := []Answer{
		{Question: "Describe your Kubernetes experience.", Answer: "Ran EKS."},
		{Question: "What did you ship last year?", Answer: "A billing system."},
	}
	second := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true, InterviewAnswers: answers}, pctx, Hooks{})
	require.Equal(t, StateCompleted, second.State)

	notes, ok := pctx[validation.StageInterrogation]["interview_notes"].([]any)
	require.True(t, ok)
	require.Len(t, notes, 2)
	first := notes[0].(map[string]any)
	assert.Equal(t, "q1", first["question_id"])
	assert.Equal(t, "Ran EKS.", first["answer"])
	assert.Equal(t, false, first["verified"])
	assert.Equal(t, true, first["source_material"])
}

func TestRunSkipsInterviewPauseWithSourceNotes(t *testing.T) {
	m := NewMachine(happyExecutors())

	outcome := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, PipelineContext{}, Hooks{})
	require.Equal(t, StateCompleted, outcome.State)
}

func TestRunFailsBeforeAudit(t *testing.T) {
	execs := happyExecutors()
	execs[validation.StageTailoring] = &stubExec{fn: func(context.Context, map[string]any) (map[string]any, error) {
		return nil, fmt.Errorf("model unavailable")
	}}
	audit := execs[validation.StageAudit].(*stubExec)
	rec := &recorder{}
	m := NewMachine(execs)

	outcome := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, PipelineContext{}, rec.hooks())

	require.Equal(t, StateFailed, outcome.State)
	assert.False(t, outcome.Success)
	assert.Equal(t, validation.StageTailoring, outcome.FailedStage)
	assert.Contains(t, outcome.ErrorMessage, "model unavailable")
	assert.Zero(t, audit.callCount())
	assert.Equal(t, StateFailed, rec.states[len(rec.states)-1])
}

func TestRunMissingExecutorFails(t *testing.T) {
	execs := happyExecutors()
	delete(execs, validation.StageDifferentiation)
	m := NewMachine(execs)

	outcome := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, PipelineContext{}, Hooks{})
	require.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, validation.StageDifferentiation, outcome.FailedStage)
}

func TestRunSynthesisFailureIsNotFatal(t *testing.T) {
	execs := happyExecutors()
	execs[validation.StageExecutiveSynthesis] = &stubExec{fn: func(context.Context, map[string]any) (map[string]any, error) {
		return nil, fmt.Errorf("synthesis crashed")
	}}
	m := NewMachine(execs)

	outcome := m.Run(context.Background(), inputs(), Approvals{GapAnalysisApproved: true}, PipelineContext{}, Hooks{})

	require.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.Success)
	assert.Nil(t, outcome.ExecutiveBrief)
	assert.Equal(t, "OPTIMIZED RESUME", outcome.Resume)
}

func TestExtractGaps(t *testing.T) {
	t.Run("flat requirements list", func(t *testing.T) {
		gaps := extractGaps(map[string]any{
			"requirements": []any{
				map[string]any{"requirement": "Go", "classification": "direct_match"},
				map[string]any{"requirement": "K8s", "classification": "gap"},
			},
		})
		require.Len(t, gaps, 1)
	})

	t.Run("category-grouped requirements", func(t *testing.T) {
		gaps := extractGaps(map[string]any{
			"requirements": map[string]any{
				"must_have": []any{
					map[string]any{"requirement": "K8s", "classification": "gap"},
				},
				"nice_to_have": []any{
					map[string]any{"requirement": "Rust", "classification": "gap"},
				},
			},
		})
		assert.Len(t, gaps, 2)
	})

	t.Run("dedicated gaps list is appended", func(t *testing.T) {
		gaps := extractGaps(map[string]any{
			"requirements": []any{},
			"gaps":         []any{"Terraform"},
		})
		assert.Equal(t, []any{"Terraform"}, gaps)
	})
}
