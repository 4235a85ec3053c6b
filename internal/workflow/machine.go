// Package workflow implements the pipeline state machine: stage sequencing,
// pause/resume at the two human review points, the bounded audit retry
// loop, and terminal outcome reporting.
package workflow

import (
	"context"
	"fmt"

	"github.com/jmatsuda/application-tailor/internal/validation"
)

// DefaultMaxAuditRetries bounds the audit loop at three total attempts.
const DefaultMaxAuditRetries = 2

// StageExecutor produces one validated stage output from an invocation
// context. agents.Agent satisfies it; tests substitute stubs.
type StageExecutor interface {
	Execute(ctx context.Context, in map[string]any) (map[string]any, error)
}

// Hooks lets the caller observe execution: state transitions, log lines and
// completed stage outputs. Any field may be nil.
type Hooks struct {
	OnState         func(State)
	OnLog           func(string)
	OnStageComplete func(stage string, output map[string]any)
}

func (h Hooks) state(s State) {
	if h.OnState != nil {
		h.OnState(s)
	}
}

func (h Hooks) logf(format string, args ...any) {
	if h.OnLog != nil {
		h.OnLog(fmt.Sprintf(format, args...))
	}
}

func (h Hooks) stageComplete(stage string, out map[string]any) {
	if h.OnStageComplete != nil {
		h.OnStageComplete(stage, out)
	}
}

// Outcome is the result of one Run call. Exactly one of Paused, Success, or
// a FAILED state describes how the run ended. Documents survive a degraded
// audit; Audit carries the orthogonal audit verdict.
type Outcome struct {
	State          State
	Paused         bool
	Success        bool
	ErrorMessage   string
	FailedStage    string
	Resume         string
	CoverLetter    string
	Audit          *AuditOutcome
	ExecutiveBrief map[string]any
}

// StageFailure wraps an error from a pre-audit stage; it is fatal to the
// run.
type StageFailure struct {
	Stage string
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }

// Machine sequences the fixed pipeline. It is synchronous: each stage,
// including its retries, completes before the next begins. One Machine may
// serve many runs; all per-run state lives in the PipelineContext.
type Machine struct {
	executors       map[string]StageExecutor
	reviser         Reviser
	maxAuditRetries int
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxAuditRetries overrides the audit retry bound.
func WithMaxAuditRetries(n int) Option {
	return func(m *Machine) { m.maxAuditRetries = n }
}

// WithReviser installs a document revision step between audit attempts.
func WithReviser(r Reviser) Option {
	return func(m *Machine) { m.reviser = r }
}

// NewMachine builds a Machine over the given stage executors.
func NewMachine(executors map[string]StageExecutor, opts ...Option) *Machine {
	m := &Machine{
		executors:       executors,
		reviser:         NoopReviser{},
		maxAuditRetries: DefaultMaxAuditRetries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes the pipeline from wherever the PipelineContext left off.
// Completed stages found in pctx are skipped, which makes resume after a
// pause (or a stale duplicate resume call) idempotent: no finished work is
// re-executed and state never regresses. pctx is mutated in place so the
// caller can persist it.
func (m *Machine) Run(ctx context.Context, in Inputs, appr Approvals, pctx PipelineContext, h Hooks) Outcome {
	if pctx == nil {
		pctx = PipelineContext{}
	}

	gapOut, err := m.runStage(ctx, StateGapAnalysis, validation.StageGapAnalysis, pctx, map[string]any{
		"job_description": in.JobDescription,
		"resume":          in.Resume,
	}, h)
	if err != nil {
		return m.fail(validation.StageGapAnalysis, err, h)
	}

	if !appr.GapAnalysisApproved {
		h.state(StateGapAnalysisReview)
		h.logf("pausing for gap analysis review (fit score: %v)", gapOut["fit_score"])
		return Outcome{State: StateGapAnalysisReview, Paused: true}
	}

	interOut, err := m.runStage(ctx, StateInterrogation, validation.StageInterrogation, pctx, map[string]any{
		"job_description": in.JobDescription,
		"resume":          in.Resume,
		"gaps":            extractGaps(gapOut),
		"gap_analysis":    gapOut,
	}, h)
	if err != nil {
		return m.fail(validation.StageInterrogation, err, h)
	}

	notes := interviewNotes(interOut)
	if len(appr.InterviewAnswers) > 0 {
		notes = mergeAnswers(interOut, appr.InterviewAnswers)
	} else if len(notes) == 0 {
		// No answers submitted and the interrogator produced no notes from
		// source material: wait for the candidate.
		h.state(StateInterrogationReview)
		h.logf("pausing for interview answers (%d questions)", listLen(interOut["questions"]))
		return Outcome{State: StateInterrogationReview, Paused: true}
	}

	diffOut, err := m.runStage(ctx, StateDifferentiation, validation.StageDifferentiation, pctx, map[string]any{
		"job_description": in.JobDescription,
		"resume":          in.Resume,
		"interview_notes": notes,
	}, h)
	if err != nil {
		return m.fail(validation.StageDifferentiation, err, h)
	}

	tailOut, err := m.runStage(ctx, StateTailoring, validation.StageTailoring, pctx, map[string]any{
		"job_description":  in.JobDescription,
		"resume":           in.Resume,
		"interview_notes":  notes,
		"differentiators":  fieldOrEmptyList(diffOut, "differentiators"),
		"gap_analysis":     gapOut,
		"source_documents": in.SourceDocuments,
	}, h)
	if err != nil {
		return m.fail(validation.StageTailoring, err, h)
	}

	docs := Documents{
		Resume:      stringField(tailOut, "tailored_resume"),
		CoverLetter: stringField(tailOut, "cover_letter"),
	}

	atsOut, err := m.runStage(ctx, StateATSOptimization, validation.StageATSOptimization, pctx, map[string]any{
		"job_description": in.JobDescription,
		"tailored_resume": docs.Resume,
		"cover_letter":    docs.CoverLetter,
	}, h)
	if err != nil {
		return m.fail(validation.StageATSOptimization, err, h)
	}
	if optimized := stringField(atsOut, "optimized_resume"); optimized != "" {
		docs.Resume = optimized
	}
	if optimized := stringField(atsOut, "optimized_cover_letter"); optimized != "" {
		docs.CoverLetter = optimized
	}

	// From here on the run cannot fail: a broken audit must not destroy the
	// documents the earlier stages produced.
	h.state(StateAuditing)
	h.logf("entering audit loop (max retries: %d)", m.maxAuditRetries)
	audit, docs := m.runAuditLoop(ctx, docs, in.JobDescription, h)

	h.state(StateExecutiveSynthesis)
	h.logf("entering stage %s", validation.StageExecutiveSynthesis)
	var brief map[string]any
	if exec, execErr := m.exec(validation.StageExecutiveSynthesis); execErr != nil {
		h.logf("executive synthesis unavailable: %v; continuing without brief", execErr)
	} else if out, synthErr := exec.Execute(ctx, map[string]any{
		"gap_analysis":    gapOut,
		"audit_status":    audit.FinalStatus,
		"tailored_resume": docs.Resume,
	}); synthErr != nil {
		h.logf("executive synthesis failed: %v; continuing without brief", synthErr)
	} else {
		brief = out
		pctx[validation.StageExecutiveSynthesis] = out
		h.stageComplete(validation.StageExecutiveSynthesis, out)
	}

	h.state(StateCompleted)
	h.logf("pipeline complete (audit: %s)", audit.FinalStatus)
	return Outcome{
		State:          StateCompleted,
		Success:        true,
		Resume:         docs.Resume,
		CoverLetter:    docs.CoverLetter,
		Audit:          audit,
		ExecutiveBrief: brief,
	}
}

// runStage executes one stage unless its output is already in the context.
// Skipped stages emit no state transition, so re-entry never regresses
// observable state.
func (m *Machine) runStage(ctx context.Context, st State, stage string, pctx PipelineContext, in map[string]any, h Hooks) (map[string]any, error) {
	if out, ok := pctx[stage]; ok {
		h.logf("stage %s already complete; skipping", stage)
		return out, nil
	}

	h.state(st)
	h.logf("entering stage %s", stage)

	exec, err := m.exec(stage)
	if err != nil {
		return nil, err
	}
	out, err := exec.Execute(ctx, in)
	if err != nil {
		return nil, err
	}

	pctx[stage] = out
	h.logf("stage %s complete", stage)
	h.stageComplete(stage, out)
	return out, nil
}

func (m *Machine) exec(stage string) (StageExecutor, error) {
	exec, ok := m.executors[stage]
	if !ok {
		return nil, fmt.Errorf("no executor registered for stage %s", stage)
	}
	return exec, nil
}

func (m *Machine) fail(stage string, err error, h Hooks) Outcome {
	failure := &StageFailure{Stage: stage, Err: err}
	h.state(StateFailed)
	h.logf("pipeline failed: %v", failure)
	return Outcome{
		State:        StateFailed,
		FailedStage:  stage,
		ErrorMessage: failure.Error(),
	}
}

// extractGaps collects requirement entries classified as gaps, handling
// both the flat list shape and the category-keyed map shape, plus the
// dedicated gaps list.
func extractGaps(gapOut map[string]any) []any {
	gaps := make([]any, 0)

	appendGapEntries := func(entries []any) {
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if cls, _ := m["classification"].(string); cls == "gap" {
				gaps = append(gaps, m)
			}
		}
	}

	switch reqs := gapOut["requirements"].(type) {
	case []any:
		appendGapEntries(reqs)
	case map[string]any:
		for _, v := range reqs {
			if entries, ok := v.([]any); ok {
				appendGapEntries(entries)
			}
		}
	}

	if extra, ok := gapOut["gaps"].([]any); ok {
		gaps = append(gaps, extra...)
	}
	return gaps
}

// mergeAnswers converts submitted answers into interview notes and writes
// them into the interrogation output. Question ids are taken from the
// generated questions by position; the merge is idempotent.
func mergeAnswers(interOut map[string]any, answers []Answer) []any {
	questions, _ := interOut["questions"].([]any)

	notes := make([]any, 0, len(answers))
	for i, a := range answers {
		questionID := fmt.Sprintf("q%d", i+1)
		if i < len(questions) {
			if q, ok := questions[i].(map[string]any); ok {
				if id, ok := q["id"].(string); ok && id != "" {
					questionID = id
				}
			}
		}
		notes = append(notes, map[string]any{
			"question_id":     questionID,
			"answer":          a.Answer,
			"verified":        false,
			"source_material": true,
		})
	}

	interOut["interview_notes"] = notes
	return notes
}

func interviewNotes(interOut map[string]any) []any {
	notes, _ := interOut["interview_notes"].([]any)
	return notes
}

func stringField(out map[string]any, key string) string {
	if out == nil {
		return ""
	}
	s, _ := out[key].(string)
	return s
}

func fieldOrEmptyList(out map[string]any, key string) any {
	if out != nil {
		if v, ok := out[key]; ok {
			return v
		}
	}
	return []any{}
}

func listLen(v any) int {
	l, _ := v.([]any)
	return len(l)
}
