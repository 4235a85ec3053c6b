package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmatsuda/application-tailor/internal/prompts"
	"github.com/jmatsuda/application-tailor/internal/validation"
)

const promptFile = "agents.json"

// Definition holds the static metadata for one pipeline agent: its stage
// name, the persona handed to the LLM as role context, the context keys it
// refuses to run without, and the embedded prompt template it builds from.
type Definition struct {
	Stage     string
	Role      string
	Required  []string
	PromptKey string
}

// Definitions is the fixed agent table for the pipeline. Topology is
// hard-coded; only model routing and retry limits are configurable.
var Definitions = map[string]Definition{
	validation.StageGapAnalysis: {
		Stage:     validation.StageGapAnalysis,
		Role:      "You are a rigorous talent analyst. You compare job requirements against candidate evidence and never soften a gap.",
		Required:  []string{"job_description", "resume"},
		PromptKey: "gap-analysis",
	},
	validation.StageInterrogation: {
		Stage:     validation.StageInterrogation,
		Role:      "You are an interview preparer. You design STAR+ questions that surface concrete evidence for unproven requirements.",
		Required:  []string{"job_description", "resume", "gaps"},
		PromptKey: "interrogation",
	},
	validation.StageDifferentiation: {
		Stage:     validation.StageDifferentiation,
		Role:      "You are a positioning strategist. You find genuine differentiators and never invent experience.",
		Required:  []string{"job_description", "resume", "interview_notes"},
		PromptKey: "differentiation",
	},
	validation.StageTailoring: {
		Stage:     validation.StageTailoring,
		Role:      "You are a senior application writer. Every claim you make traces to source material.",
		Required:  []string{"job_description", "resume", "interview_notes", "differentiators", "gap_analysis"},
		PromptKey: "tailoring",
	},
	validation.StageATSOptimization: {
		Stage:     validation.StageATSOptimization,
		Role:      "You are an ATS specialist. You align terminology with the posting without changing substance.",
		Required:  []string{"job_description", "tailored_resume"},
		PromptKey: "ats-optimization",
	},
	validation.StageAudit: {
		Stage:     validation.StageAudit,
		Role:      "You are an uncompromising pre-submission auditor. A fabricated claim is an automatic FAIL.",
		Required:  []string{"document_type", "document", "job_description"},
		PromptKey: "audit",
	},
	validation.StageExecutiveSynthesis: {
		Stage:     validation.StageExecutiveSynthesis,
		Role:      "You are an executive advisor. You give a clear go/no-go recommendation with a short rationale.",
		Required:  []string{"gap_analysis", "audit_status"},
		PromptKey: "executive-synthesis",
	},
	validation.StageCommander: {
		Stage:     validation.StageCommander,
		Role:      "You are a pragmatic screening officer. You decide fast whether a posting deserves the full pipeline.",
		Required:  []string{"job_description", "resume"},
		PromptKey: "commander",
	},
}

// BuildPrompt renders the stage template with the invocation context.
// Context keys are snake_case; template placeholders are their CamelCase
// forms ({{.JobDescription}} for job_description). Non-scalar values are
// serialized as indented JSON.
func BuildPrompt(def Definition, in map[string]any) string {
	template := prompts.MustGet(promptFile, def.PromptKey)

	data := make(map[string]string, len(in))
	for key, value := range in {
		data[placeholderName(key)] = stringifyContextValue(value)
	}
	return prompts.Format(template, data)
}

func placeholderName(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p == "ats" {
			parts[i] = "ATS"
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

func stringifyContextValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(out)
	}
}
