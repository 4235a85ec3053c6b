package workflow

// State identifies where a pipeline execution is. Progression is monotonic
// except at the two review states, which are re-entrant pause points.
type State string

// Pipeline states, in execution order.
const (
	StateInitialized        State = "INITIALIZED"
	StateGapAnalysis        State = "GAP_ANALYSIS"
	StateGapAnalysisReview  State = "GAP_ANALYSIS_REVIEW"
	StateInterrogation      State = "INTERROGATION"
	StateInterrogationReview State = "INTERROGATION_REVIEW"
	StateDifferentiation    State = "DIFFERENTIATION"
	StateTailoring          State = "TAILORING"
	StateATSOptimization    State = "ATS_OPTIMIZATION"
	StateAuditing           State = "AUDITING"
	StateExecutiveSynthesis State = "EXECUTIVE_SYNTHESIS"
	StateCompleted          State = "COMPLETED"
	StateFailed             State = "FAILED"
)

// stateOrder is the formal transition order. FAILED is reachable from any
// state and shares the terminal slot with COMPLETED.
var stateOrder = map[State]int{
	StateInitialized:         0,
	StateGapAnalysis:         1,
	StateGapAnalysisReview:   2,
	StateInterrogation:       3,
	StateInterrogationReview: 4,
	StateDifferentiation:     5,
	StateTailoring:           6,
	StateATSOptimization:     7,
	StateAuditing:            8,
	StateExecutiveSynthesis:  9,
	StateCompleted:           10,
	StateFailed:              10,
}

// progressByState is the pure progress step function. Review states sit
// partway into the stage they gate.
var progressByState = map[State]int{
	StateInitialized:         0,
	StateGapAnalysis:         10,
	StateGapAnalysisReview:   20,
	StateInterrogation:       30,
	StateInterrogationReview: 40,
	StateDifferentiation:     50,
	StateTailoring:           60,
	StateATSOptimization:     70,
	StateAuditing:            80,
	StateExecutiveSynthesis:  90,
	StateCompleted:           100,
	StateFailed:              100,
}

// Order returns the position of a state in the pipeline sequence.
func (s State) Order() int { return stateOrder[s] }

// IsPause reports whether the state is one of the two human-review pauses.
func (s State) IsPause() bool {
	return s == StateGapAnalysisReview || s == StateInterrogationReview
}

// IsTerminal reports whether the state ends the pipeline.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// After reports whether s comes after other in pipeline order.
func (s State) After(other State) bool {
	return stateOrder[s] > stateOrder[other]
}

// Progress returns the completion percentage for a state. Deterministic and
// monotone non-decreasing along the pipeline order.
func Progress(s State) int {
	return progressByState[s]
}

// Valid reports whether s is a known workflow state.
func Valid(s State) bool {
	_, ok := stateOrder[s]
	return ok
}
