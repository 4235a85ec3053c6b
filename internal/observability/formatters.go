// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmatsuda/application-tailor/internal/validation"
	"github.com/jmatsuda/application-tailor/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// PrintStage routes a completed stage's output to the matching formatter.
// Stages without a verbose rendering are silently skipped.
func (p *Printer) PrintStage(stage string, out map[string]any) {
	switch stage {
	case validation.StageGapAnalysis:
		p.PrintGapAnalysis(out)
	case validation.StageInterrogation:
		p.PrintQuestions(out)
	case validation.StageDifferentiation:
		p.PrintDifferentiators(out)
	}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintGapAnalysis outputs a human-readable summary of the gap analysis.
func (p *Printer) PrintGapAnalysis(out map[string]any) {
	if out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fit score: %v\n", out["fit_score"]))

	if reqs, ok := out["requirements"].([]any); ok && len(reqs) > 0 {
		sb.WriteString("\nRequirements:\n")
		count := min(len(reqs), maxItemsToShow)
		for i := 0; i < count; i++ {
			req, ok := reqs[i].(map[string]any)
			if !ok {
				continue
			}
			name, _ := req["requirement"].(string)
			class, _ := req["classification"].(string)
			sb.WriteString(fmt.Sprintf("  • %s", name))
			if class != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", class))
			}
			sb.WriteString("\n")
		}
		if len(reqs) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(reqs)-maxItemsToShow))
		}
	}

	appendItems(&sb, "Gaps", out["gaps"])
	appendItems(&sb, "Blockers", out["blockers"])

	p.printBox("GAP ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuestions outputs the generated interview questions.
func (p *Printer) PrintQuestions(out map[string]any) {
	questions, _ := out["questions"].([]any)
	if len(questions) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d questions:\n\n", len(questions)))

	count := min(len(questions), maxItemsToShow)
	for i := 0; i < count; i++ {
		q, ok := questions[i].(map[string]any)
		if !ok {
			continue
		}
		text, _ := q["question"].(string)
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, text))
		if theme, _ := q["theme"].(string); theme != "" {
			sb.WriteString(fmt.Sprintf("    Theme: %s\n", theme))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(questions) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more questions", len(questions)-maxItemsToShow))
	}

	p.printBox("INTERVIEW QUESTIONS", sb.String())
}

// PrintDifferentiators outputs the candidate's differentiation angles.
func (p *Printer) PrintDifferentiators(out map[string]any) {
	items, _ := out["differentiators"].([]any)
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		text := itemText(items[i])
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", text))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(items)-maxItemsToShow))
	}

	p.printBox("DIFFERENTIATORS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAuditOutcome outputs the audit verdict.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAuditOutcome(audit *workflow.AuditOutcome) {
	if audit == nil {
		return
	}
	if audit.FinalStatus == workflow.AuditApproved {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ AUDIT APPROVED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:  %s\n", audit.FinalStatus))
	sb.WriteString(fmt.Sprintf("Retries: %d\n", audit.RetryCount))
	if audit.AuditError != "" {
		sb.WriteString(fmt.Sprintf("Error:   %s\n", audit.AuditError))
	}
	appendReportIssues(&sb, "Resume", audit.ResumeReport)
	appendReportIssues(&sb, "Cover letter", audit.CoverLetterReport)

	p.printBox("⚠ AUDIT NOT APPROVED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExecutiveBrief outputs the final recommendation.
func (p *Printer) PrintExecutiveBrief(brief map[string]any) {
	decision, _ := brief["decision"].(map[string]any)
	if decision == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Recommendation: %v\n", decision["recommendation"]))
	if score, ok := decision["fit_score"]; ok {
		sb.WriteString(fmt.Sprintf("Fit score:      %v\n", score))
	}
	if rationale, _ := decision["rationale"].(string); rationale != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", rationale))
	}

	p.printBox("EXECUTIVE BRIEF", strings.TrimSuffix(sb.String(), "\n"))
}

func appendItems(sb *strings.Builder, label string, v any) {
	items, _ := v.([]any)
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", label))
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", itemText(items[i])))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// itemText renders a list entry that may be a bare string or a structured
// object with a descriptive field.
func itemText(v any) string {
	switch item := v.(type) {
	case string:
		return item
	case map[string]any:
		for _, key := range []string{"description", "requirement", "differentiator", "title"} {
			if s, _ := item[key].(string); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", v)
}

func appendReportIssues(sb *strings.Builder, label string, report map[string]any) {
	if report == nil {
		return
	}
	inner, _ := report["audit_report"].(map[string]any)
	if inner == nil {
		inner = report
	}
	status, _ := inner["overall_status"].(string)
	if status != "" {
		sb.WriteString(fmt.Sprintf("%s: %s\n", label, status))
	}
}
