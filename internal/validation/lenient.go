package validation

// lenientValidator covers the stages whose output is opaque prose consumed
// by humans or by defensive downstream readers (differentiation, tailoring,
// ATS optimization). Only the common envelope is enforced; structural fields
// such as differentiators, tailored_resume or cover_letter are read
// best-effort by the workflow, which defaults anything missing.
type lenientValidator struct {
	stage string
}

func (v *lenientValidator) Stage() string { return v.stage }

func (v *lenientValidator) Validate(raw string) (map[string]any, error) {
	return parseCommon(v.stage, raw)
}
