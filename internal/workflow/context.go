package workflow

// PipelineContext accumulates validated stage outputs keyed by stage name.
// It grows monotonically during one execution and never shrinks; any stage
// may read any prior stage's output. It is exclusively owned by the single
// in-flight execution of its job.
type PipelineContext map[string]map[string]any

// Has reports whether a stage's output is already present.
func (p PipelineContext) Has(stage string) bool {
	_, ok := p[stage]
	return ok
}

// Clone returns a copy with fresh top-level and per-stage maps. Nested
// values are shared; stage outputs are never mutated after validation, with
// the interrogation notes merge as the one sanctioned exception.
func (p PipelineContext) Clone() PipelineContext {
	cp := make(PipelineContext, len(p))
	for stage, out := range p {
		outCp := make(map[string]any, len(out))
		for k, v := range out {
			outCp[k] = v
		}
		cp[stage] = outCp
	}
	return cp
}

// Inputs are the immutable raw materials provided once at job creation.
type Inputs struct {
	JobDescription  string
	Resume          string
	SourceDocuments string
}

// Answer is one question/answer pair collected during the interview review
// pause.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Approvals carries the external inputs that resume a paused pipeline.
type Approvals struct {
	GapAnalysisApproved bool
	InterviewAnswers    []Answer
}

// Documents are the tailored application materials flowing through the
// later stages.
type Documents struct {
	Resume      string
	CoverLetter string
}
