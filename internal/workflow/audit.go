package workflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jmatsuda/application-tailor/internal/validation"
)

// Terminal audit outcomes. The audit stage resolves every path, including
// crashes, into one of these values; it never surfaces an error to the
// caller. Documents produced by earlier stages are always returned.
const (
	AuditApproved = "APPROVED"
	AuditRejected = "REJECTED"
	AuditCrashed  = "AUDIT_CRASHED"
)

// AuditOutcome is the resolved result of the audit retry loop. It rides on
// an otherwise-successful job: AuditFailed is orthogonal to job success and
// must be checked separately by the caller.
type AuditOutcome struct {
	FinalStatus       string         `json:"final_status"`
	RetryCount        int            `json:"retry_count"`
	AuditFailed       bool           `json:"audit_failed"`
	AuditError        string         `json:"audit_error,omitempty"`
	ResumeReport      map[string]any `json:"resume_report"`
	CoverLetterReport map[string]any `json:"cover_letter_report"`
}

// Reviser is the extension point applied between failed audit attempts.
// Intended for future content-revision logic; the default implementation
// leaves documents unchanged.
type Reviser interface {
	Revise(ctx context.Context, docs Documents, resumeReport, coverReport map[string]any) (Documents, error)
}

// NoopReviser returns documents unchanged.
type NoopReviser struct{}

// Revise implements Reviser.
func (NoopReviser) Revise(_ context.Context, docs Documents, _, _ map[string]any) (Documents, error) {
	return docs, nil
}

// runAuditLoop audits the resume and, when present, the cover letter, in a
// bounded retry loop. Both documents must be approved. Attempts that reject
// or crash are retried after the reviser runs; exhausting retries yields a
// REJECTED or AUDIT_CRASHED outcome as a value.
func (m *Machine) runAuditLoop(ctx context.Context, docs Documents, jobDescription string, h Hooks) (*AuditOutcome, Documents) {
	var lastResume, lastCover map[string]any

	for attempt := 0; ; attempt++ {
		resumeOut, coverOut, err := m.auditAttempt(ctx, docs, jobDescription)
		if resumeOut != nil {
			lastResume = resumeOut
		}
		if coverOut != nil {
			lastCover = coverOut
		}

		if err == nil {
			approved := validation.Approved(resumeOut) &&
				(docs.CoverLetter == "" || validation.Approved(coverOut))
			if approved {
				h.logf("audit approved (retries used: %d)", attempt)
				return &AuditOutcome{
					FinalStatus:       AuditApproved,
					RetryCount:        attempt,
					ResumeReport:      resumeOut,
					CoverLetterReport: coverOut,
				}, docs
			}
			h.logf("audit attempt %d rejected", attempt+1)
		} else {
			h.logf("audit attempt %d crashed: %v", attempt+1, err)
		}

		if attempt >= m.maxAuditRetries {
			if err != nil {
				return &AuditOutcome{
					FinalStatus:       AuditCrashed,
					RetryCount:        attempt,
					AuditFailed:       true,
					AuditError:        err.Error(),
					ResumeReport:      lastResume,
					CoverLetterReport: lastCover,
				}, docs
			}
			return &AuditOutcome{
				FinalStatus:       AuditRejected,
				RetryCount:        attempt,
				AuditFailed:       true,
				ResumeReport:      lastResume,
				CoverLetterReport: lastCover,
			}, docs
		}

		revised, revErr := m.reviser.Revise(ctx, docs, lastResume, lastCover)
		if revErr != nil {
			h.logf("document revision failed: %v; retrying with unchanged documents", revErr)
		} else {
			docs = revised
		}
	}
}

// auditAttempt audits both documents once. The two audits are independent
// and run concurrently; the stage itself still completes before the
// pipeline moves on.
func (m *Machine) auditAttempt(ctx context.Context, docs Documents, jobDescription string) (map[string]any, map[string]any, error) {
	exec, err := m.exec(validation.StageAudit)
	if err != nil {
		return nil, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	var resumeOut, coverOut map[string]any

	g.Go(func() error {
		out, err := exec.Execute(gctx, map[string]any{
			"document_type":   "resume",
			"document":        docs.Resume,
			"job_description": jobDescription,
		})
		if err != nil {
			return fmt.Errorf("resume audit: %w", err)
		}
		resumeOut = out
		return nil
	})

	if docs.CoverLetter != "" {
		g.Go(func() error {
			out, err := exec.Execute(gctx, map[string]any{
				"document_type":   "cover_letter",
				"document":        docs.CoverLetter,
				"job_description": jobDescription,
			})
			if err != nil {
				return fmt.Errorf("cover letter audit: %w", err)
			}
			coverOut = out
			return nil
		})
	}

	err = g.Wait()
	return resumeOut, coverOut, err
}
