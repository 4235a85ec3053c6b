package validation

// auditValidator enforces the auditor contract: a structured report with an
// overall status, four sub-audits, an action list and an approval verdict.
// The approval block may sit inside audit_report or at the top level; both
// shapes appear in the wild and both are accepted.
type auditValidator struct{}

const auditReportSchema = `{
	"type": "object",
	"required": ["summary", "truth_audit", "tone_audit", "ats_audit", "compliance_audit"],
	"properties": {
		"summary": {
			"type": "object",
			"required": ["overall_status", "blocking_issues", "warnings", "recommendations"],
			"properties": {
				"overall_status": {"enum": ["PASS", "FAIL", "CONDITIONAL"]},
				"blocking_issues": {"type": "integer", "minimum": 0},
				"warnings": {"type": "integer", "minimum": 0},
				"recommendations": {"type": "integer", "minimum": 0}
			}
		},
		"truth_audit": {"$ref": "#/definitions/subAudit"},
		"tone_audit": {"$ref": "#/definitions/subAudit"},
		"ats_audit": {"$ref": "#/definitions/subAudit"},
		"compliance_audit": {"$ref": "#/definitions/subAudit"},
		"action_required": {
			"type": "object",
			"properties": {
				"blocking": {"type": "array"},
				"recommended": {"type": "array"},
				"optional": {"type": "array"}
			}
		}
	},
	"definitions": {
		"subAudit": {
			"type": "object",
			"required": ["status"],
			"properties": {
				"status": {"enum": ["PASS", "FAIL", "CONDITIONAL"]}
			}
		}
	}
}`

func (v *auditValidator) Stage() string { return StageAudit }

func (v *auditValidator) Validate(raw string) (map[string]any, error) {
	doc, err := parseCommon(v.Stage(), raw)
	if err != nil {
		return nil, err
	}

	report, ok := asMap(doc["audit_report"])
	if !ok {
		return nil, &SchemaError{Stage: v.Stage(), Field: "audit_report", Message: "audit_report object is required"}
	}

	if err := validateSchema(v.Stage(), report, auditReportSchema); err != nil {
		return nil, err
	}

	approval := locateApproval(doc)
	if approval == nil {
		return nil, &SchemaError{Stage: v.Stage(), Field: "approval", Message: "approval object is required"}
	}
	if _, ok := approval["approved"].(bool); !ok {
		return nil, &SchemaError{Stage: v.Stage(), Field: "approval.approved", Message: "approved must be a boolean"}
	}
	if _, ok := asString(approval["reason"]); !ok {
		return nil, &SchemaError{Stage: v.Stage(), Field: "approval.reason", Message: "reason must be a string"}
	}

	return doc, nil
}

// Approved reports the auditor's verdict for a validated (or raw) audit
// output, reading the approval block from either supported position. An
// absent or malformed verdict counts as not approved.
func Approved(doc map[string]any) bool {
	approval := locateApproval(doc)
	if approval == nil {
		return false
	}
	approved, _ := approval["approved"].(bool)
	return approved
}

// locateApproval finds the approval block in either the nested
// (audit_report.approval) or flat (approval) position.
func locateApproval(doc map[string]any) map[string]any {
	if report, ok := asMap(doc["audit_report"]); ok {
		if approval, ok := asMap(report["approval"]); ok {
			return approval
		}
	}
	if approval, ok := asMap(doc["approval"]); ok {
		return approval
	}
	return nil
}
