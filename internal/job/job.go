// Package job owns the lifecycle of one tailoring job: its persistent
// state, its event stream, and the manager that drives the workflow
// machine asynchronously.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmatsuda/application-tailor/internal/workflow"
)

// Job is the persistent record of one tailoring run. All mutation goes
// through the Manager, which serializes access per job.
type Job struct {
	ID        string         `json:"id"`
	State     workflow.State `json:"state"`
	Success   bool           `json:"success"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	JobDescription  string `json:"job_description"`
	Resume          string `json:"resume"`
	SourceDocuments string `json:"source_documents,omitempty"`

	// Models records the model routed to each stage at creation time, for
	// reproducibility of results.
	Models map[string]string `json:"models,omitempty"`

	GapAnalysisApproved bool              `json:"gap_analysis_approved"`
	InterviewAnswers    []workflow.Answer `json:"interview_answers,omitempty"`

	Context workflow.PipelineContext `json:"context"`
	Log     []string                 `json:"log"`

	FinalResume    string                 `json:"final_resume"`
	CoverLetter    string                 `json:"cover_letter"`
	AuditReport    *workflow.AuditOutcome `json:"audit_report,omitempty"`
	ExecutiveBrief map[string]any         `json:"executive_brief,omitempty"`

	FailedStage  string `json:"failed_stage,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// New creates a job in the INITIALIZED state.
func New(jobDescription, resume, sourceDocuments string, models map[string]string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:              uuid.NewString(),
		State:           workflow.StateInitialized,
		CreatedAt:       now,
		UpdatedAt:       now,
		JobDescription:  jobDescription,
		Resume:          resume,
		SourceDocuments: sourceDocuments,
		Models:          models,
		Context:         workflow.PipelineContext{},
		Log:             []string{},
	}
}

// Progress returns the completion percentage for the job's current state.
func (j *Job) Progress() int {
	return workflow.Progress(j.State)
}

// Paused reports whether the job is waiting at a review state.
func (j *Job) Paused() bool {
	return j.State.IsPause()
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.State.IsTerminal()
}

// AuditFailed reports whether the audit verdict was degraded. Orthogonal to
// job success: a COMPLETED job may still carry a failed audit.
func (j *Job) AuditFailed() bool {
	return j.AuditReport != nil && j.AuditReport.AuditFailed
}

// CompletePayload is the full terminal snapshot emitted with the complete
// event. Every field is always present so consumers never need existence
// checks.
func (j *Job) CompletePayload() map[string]any {
	auditStatus := ""
	auditRetries := 0
	auditError := ""
	var resumeReport, coverReport map[string]any
	if j.AuditReport != nil {
		auditStatus = j.AuditReport.FinalStatus
		auditRetries = j.AuditReport.RetryCount
		auditError = j.AuditReport.AuditError
		resumeReport = j.AuditReport.ResumeReport
		coverReport = j.AuditReport.CoverLetterReport
	}
	brief := j.ExecutiveBrief
	if brief == nil {
		brief = map[string]any{}
	}
	models := j.Models
	if models == nil {
		models = map[string]string{}
	}
	if resumeReport == nil {
		resumeReport = map[string]any{}
	}
	if coverReport == nil {
		coverReport = map[string]any{}
	}
	return map[string]any{
		"job_id":              j.ID,
		"state":               string(j.State),
		"success":             j.Success,
		"final_resume":        j.FinalResume,
		"cover_letter":        j.CoverLetter,
		"models":              models,
		"audit_status":        auditStatus,
		"audit_retries":       auditRetries,
		"audit_failed":        j.AuditFailed(),
		"audit_error":         auditError,
		"resume_report":       resumeReport,
		"cover_letter_report": coverReport,
		"executive_brief":     brief,
		"error_message":       j.ErrorMessage,
	}
}
