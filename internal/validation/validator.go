// Package validation normalizes raw LLM agent responses into validated,
// typed mappings. Each pipeline stage has its own contract; stages whose
// output feeds structured business logic downstream are strict, stages whose
// output is prose consumed by humans enforce only the common envelope.
package validation

import "fmt"

// Stage names, shared by agent definitions, the workflow machine and the
// per-stage validators.
const (
	StageGapAnalysis        = "gap_analysis"
	StageInterrogation      = "interrogation"
	StageDifferentiation    = "differentiation"
	StageTailoring          = "tailoring"
	StageATSOptimization    = "ats_optimization"
	StageAudit              = "audit"
	StageExecutiveSynthesis = "executive_synthesis"
	StageCommander          = "commander"
)

// Validator converts one stage's raw text response into a validated mapping.
type Validator interface {
	Stage() string
	Validate(raw string) (map[string]any, error)
}

// Options carries deployment policy knobs that change validator strictness.
type Options struct {
	// StrictQuestionCount enforces the interrogator's 8-12 question bound.
	// Some deployments relax it and accept whatever the model produced.
	StrictQuestionCount bool
}

// ForStage returns the validator for a stage name.
func ForStage(stage string, opts Options) (Validator, error) {
	switch stage {
	case StageGapAnalysis:
		return &gapAnalysisValidator{}, nil
	case StageInterrogation:
		return &interrogationValidator{strictCount: opts.StrictQuestionCount}, nil
	case StageDifferentiation, StageTailoring, StageATSOptimization:
		return &lenientValidator{stage: stage}, nil
	case StageAudit:
		return &auditValidator{}, nil
	case StageCommander:
		return &commanderValidator{}, nil
	case StageExecutiveSynthesis:
		return &synthesisValidator{}, nil
	default:
		return nil, fmt.Errorf("no validator registered for stage %q", stage)
	}
}

// parseCommon parses raw text and checks the shared envelope. Every
// stage-specific validator starts here.
func parseCommon(stage, raw string) (map[string]any, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(stage, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
