package validation

import (
	"fmt"
	"math"
	"strings"
)

// synthesisValidator resolves the executive synthesizer's decision. It is
// deliberately the only validator with a side effect: after locating and
// normalizing the decision (which may live in several nested spots, or not
// exist at all), it writes the canonical form back into the output under
// "decision" so every downstream reader sees one shape.
//
// Recovery is two-phase: locateDecision finds whatever raw decision material
// the model produced, then normalizeDecision maps it onto the canonical
// recommendation set, inferring from the fit score when necessary.
type synthesisValidator struct{}

// Canonical recommendation values.
const (
	RecommendStrongProceed      = "STRONG_PROCEED"
	RecommendProceed            = "PROCEED"
	RecommendProceedWithCaution = "PROCEED_WITH_CAUTION"
	RecommendPass               = "PASS"
)

// recommendationSynonyms maps normalized but non-canonical recommendation
// strings onto the canonical set.
var recommendationSynonyms = map[string]string{
	"APPROVED":           RecommendProceed,
	"APPROVE":            RecommendProceed,
	"ACCEPT":             RecommendProceed,
	"ACCEPTED":           RecommendProceed,
	"GO":                 RecommendProceed,
	"YES":                RecommendProceed,
	"REJECT":             RecommendPass,
	"REJECTED":           RecommendPass,
	"DECLINE":            RecommendPass,
	"DO_NOT_PROCEED":     RecommendPass,
	"NO":                 RecommendPass,
	"STRONG_APPROVE":     RecommendStrongProceed,
	"STRONGLY_PROCEED":   RecommendStrongProceed,
	"STRONG_YES":         RecommendStrongProceed,
	"CAUTION":            RecommendProceedWithCaution,
	"CONDITIONAL":        RecommendProceedWithCaution,
	"PROCEED_CAUTIOUSLY": RecommendProceedWithCaution,
	"PROCEED_WITH_CARE":  RecommendProceedWithCaution,
}

func (v *synthesisValidator) Stage() string { return StageExecutiveSynthesis }

func (v *synthesisValidator) Validate(raw string) (map[string]any, error) {
	doc, err := parseCommon(v.Stage(), raw)
	if err != nil {
		return nil, err
	}

	rawDecision := locateDecision(doc)
	doc["decision"] = normalizeDecision(rawDecision, doc)
	return doc, nil
}

// locateDecision searches the known spots a model may have put its decision.
// A top-level "recommendation" key means the whole document doubles as a
// flat decision. Returns nil when nothing decision-like exists.
func locateDecision(doc map[string]any) map[string]any {
	for _, key := range []string{"decision", "executive_decision", "final_decision"} {
		if d, ok := asMap(doc[key]); ok {
			return d
		}
	}
	for _, key := range []string{"executive_summary", "synthesis", "brief"} {
		if nested, ok := asMap(doc[key]); ok {
			if d, ok := asMap(nested["decision"]); ok {
				return d
			}
		}
	}
	if _, ok := doc["recommendation"]; ok {
		return doc
	}
	return nil
}

// normalizeDecision produces the canonical decision mapping from whatever
// locateDecision found, falling back to fit-score inference.
func normalizeDecision(rawDecision, doc map[string]any) map[string]any {
	decision := map[string]any{}

	score, hasScore := findFitScore(rawDecision, doc)
	if hasScore {
		decision["fit_score"] = scoreValue(score)
	}

	if rawDecision != nil {
		if rec, ok := asString(rawDecision["recommendation"]); ok && strings.TrimSpace(rec) != "" {
			decision["recommendation"] = canonicalRecommendation(rec)
			if rationale, ok := asString(rawDecision["rationale"]); ok {
				decision["rationale"] = rationale
			} else if reason, ok := asString(rawDecision["reason"]); ok {
				decision["rationale"] = reason
			}
			return decision
		}
	}

	// No usable recommendation anywhere: infer from the fit score when one
	// exists, otherwise default to PROCEED.
	if hasScore {
		decision["recommendation"] = recommendationForScore(score)
		decision["rationale"] = fmt.Sprintf("inferred from fit score %v; no explicit decision in output", scoreValue(score))
	} else {
		decision["recommendation"] = RecommendProceed
		decision["rationale"] = "no decision or fit score in output; defaulting to PROCEED"
	}
	return decision
}

// canonicalRecommendation normalizes case and punctuation, applies the
// synonym table, and defaults unrecognized values to PROCEED.
func canonicalRecommendation(rec string) string {
	normalized := strings.ToUpper(strings.TrimSpace(rec))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range normalized {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	normalized = strings.Trim(b.String(), "_")

	switch normalized {
	case RecommendStrongProceed, RecommendProceed, RecommendProceedWithCaution, RecommendPass:
		return normalized
	}
	if canonical, ok := recommendationSynonyms[normalized]; ok {
		return canonical
	}
	return RecommendProceed
}

// recommendationForScore maps a numeric fit score onto a recommendation.
func recommendationForScore(score float64) string {
	switch {
	case score >= 80:
		return RecommendStrongProceed
	case score >= 65:
		return RecommendProceed
	case score >= 50:
		return RecommendProceedWithCaution
	default:
		return RecommendPass
	}
}

// findFitScore looks for a fit score in the decision material first, then in
// the wider document.
func findFitScore(rawDecision, doc map[string]any) (float64, bool) {
	if rawDecision != nil {
		if score, ok := asFloat(rawDecision["fit_score"]); ok {
			return score, true
		}
	}
	if score, ok := asFloat(doc["fit_score"]); ok {
		return score, true
	}
	if fa, ok := asMap(doc["fit_analysis"]); ok {
		if score, ok := asFloat(fa["fit_percentage"]); ok {
			return score, true
		}
	}
	return 0, false
}

// scoreValue renders an integral score as an int for cleaner serialization.
func scoreValue(score float64) any {
	if score == math.Trunc(score) {
		return int(score)
	}
	return score
}
